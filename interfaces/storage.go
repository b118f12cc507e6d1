package interfaces

import "context"

// SnapshotStore persists a single mutable blob, used for cache snapshots.
type SnapshotStore interface {
	// Load returns the last saved snapshot or ErrSnapshotNotFound.
	Load(ctx context.Context) ([]byte, error)

	// Save replaces the stored snapshot.
	Save(ctx context.Context, data []byte) error

	// LocationURI identifies the store, with credentials redacted.
	LocationURI() string
}
