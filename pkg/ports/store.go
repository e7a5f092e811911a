package ports

import (
	"context"

	"github.com/aretw0/history/pkg/domain"
)

// SnapshotStore persists the entry list of a history session.
// This lets a session survive beyond the process that created it.
type SnapshotStore interface {
	// Save persists the snapshot for a given session ID.
	Save(ctx context.Context, sessionID string, snap *domain.Snapshot) error

	// Load retrieves the snapshot for a given session ID.
	// Returns domain.ErrSessionNotFound if the session does not exist.
	Load(ctx context.Context, sessionID string) (*domain.Snapshot, error)

	// Delete removes the snapshot for a given session ID.
	Delete(ctx context.Context, sessionID string) error

	// List returns the IDs of stored sessions.
	List(ctx context.Context) ([]string, error)
}

// StateStorage keeps per-entry state out of the location itself, keyed by location key.
// Adapters use it for state that should not travel with the path.
// Implementations report failures; adapters treat them as "nothing stored".
type StateStorage interface {
	SaveState(key string, state any) error
	LoadState(key string) (any, error)
}

// Snapshotter is implemented by adapters whose whole entry list can be captured and restored.
type Snapshotter interface {
	Snapshot() *domain.Snapshot
	Restore(snap *domain.Snapshot) error
}
