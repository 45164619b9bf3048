package store

import (
	"context"

	"github.com/nhle/community-roots/internal/model"
)

// Snapshot is everything the app persists between runs.
type Snapshot struct {
	Parks  []model.Park
	Ledger []model.LedgerEntry
}

// Empty reports whether the snapshot holds nothing worth restoring.
func (s Snapshot) Empty() bool {
	return len(s.Parks) == 0 && len(s.Ledger) == 0
}

// SnapshotStore saves and restores the park collection and the ledger
// history. Save replaces whatever was stored before.
type SnapshotStore interface {
	Save(ctx context.Context, snap Snapshot) error
	Load(ctx context.Context) (Snapshot, error)
	Close() error
}
