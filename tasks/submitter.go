package tasks

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/ruteri/secret-dns/interfaces"
	"github.com/ruteri/secret-dns/metrics"
)

var errNoHandle = errors.New("backend returned no task handle")

// Submitter hands remote calls to the backend, retrying rejected submissions.
type Submitter struct {
	backend interfaces.TaskBackend
	cfg     Config
	log     *slog.Logger
	metrics *metrics.Metrics
}

func NewSubmitter(backend interfaces.TaskBackend, cfg Config, log *slog.Logger, m *metrics.Metrics) *Submitter {
	return &Submitter{backend: backend, cfg: cfg, log: log, metrics: m}
}

// Submit returns the handle of the created task. After cfg.SubmitAttempts
// failed attempts it returns a nil handle and an error wrapping
// interfaces.ErrSubmission.
func (s *Submitter) Submit(ctx context.Context, call *interfaces.RemoteCall) (*interfaces.TaskHandle, error) {
	attempts := max(s.cfg.SubmitAttempts, 1)

	var lastErr error
	for attempt := 1; attempt <= attempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return nil, fmt.Errorf("%w: %w", interfaces.ErrSubmission, err)
		}

		handle, err := s.backend.SubmitCall(ctx, call)
		if err == nil && handle == nil {
			err = errNoHandle
		}
		if err == nil {
			s.metrics.SubmitAttempt("ok")
			s.log.Debug("Submitted task",
				slog.String("function", call.FunctionName()),
				slog.String("task", handle.ID.Hex()),
				slog.Int("attempt", attempt))
			return handle, nil
		}

		lastErr = err
		s.metrics.SubmitAttempt("error")
		s.log.Warn("Task submission failed",
			slog.String("function", call.FunctionName()),
			slog.Int("attempt", attempt),
			slog.Int("attempts", attempts),
			"err", err)

		if attempt < attempts && s.cfg.SubmitBackoff > 0 {
			if err := sleepCtx(ctx, s.cfg.SubmitBackoff); err != nil {
				return nil, fmt.Errorf("%w: %w", interfaces.ErrSubmission, err)
			}
		}
	}

	return nil, fmt.Errorf("%w after %d attempts: %w", interfaces.ErrSubmission, attempts, lastErr)
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
