package storage

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/ruteri/secret-dns/interfaces"
)

// MultiSnapshotStore saves to every backend and loads from the first backend
// that has a snapshot.
type MultiSnapshotStore struct {
	backends []interfaces.SnapshotStore
	log      *slog.Logger
}

func NewMultiSnapshotStore(backends []interfaces.SnapshotStore, log *slog.Logger) *MultiSnapshotStore {
	return &MultiSnapshotStore{
		backends: backends,
		log:      log,
	}
}

// Load returns interfaces.ErrSnapshotNotFound only when no backend failed
// for another reason.
func (m *MultiSnapshotStore) Load(ctx context.Context) ([]byte, error) {
	start := time.Now()
	var errs []error
	notFound := 0

	for _, backend := range m.backends {
		data, err := backend.Load(ctx)
		if err == nil {
			m.log.Info("Loaded snapshot",
				slog.String("backend", backend.LocationURI()),
				slog.Duration("duration", time.Since(start)))
			return data, nil
		}

		if errors.Is(err, interfaces.ErrSnapshotNotFound) {
			notFound++
			continue
		}
		errs = append(errs, fmt.Errorf("%s: %w", backend.LocationURI(), err))
		m.log.Debug("Failed to load snapshot from backend",
			slog.String("backend", backend.LocationURI()),
			"err", err)
	}

	if len(errs) == 0 {
		return nil, fmt.Errorf("%w in %d backends", interfaces.ErrSnapshotNotFound, notFound)
	}
	return nil, fmt.Errorf("all backends failed to load the snapshot: %w", errors.Join(errs...))
}

// Save succeeds when at least one backend stored the snapshot.
func (m *MultiSnapshotStore) Save(ctx context.Context, data []byte) error {
	start := time.Now()
	var errs []error
	stored := 0

	for _, backend := range m.backends {
		if err := backend.Save(ctx, data); err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", backend.LocationURI(), err))
			m.log.Warn("Failed to store snapshot in backend",
				slog.String("backend", backend.LocationURI()),
				"err", err)
			continue
		}
		stored++
	}

	if stored == 0 {
		m.log.Error("All backends failed to store the snapshot",
			slog.Int("failed_backends", len(errs)),
			slog.Duration("duration", time.Since(start)))
		return fmt.Errorf("all backends failed to store the snapshot: %w", errors.Join(errs...))
	}
	return nil
}

func (m *MultiSnapshotStore) LocationURI() string {
	locations := make([]string, 0, len(m.backends))
	for _, backend := range m.backends {
		locations = append(locations, backend.LocationURI())
	}
	return "multi:[" + strings.Join(locations, ",") + "]"
}
