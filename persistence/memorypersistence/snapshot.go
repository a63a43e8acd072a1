package memorypersistence

import (
	"context"

	"github.com/kiroku-io/kiroku/persistence"
)

// LoadSnapshot loads the most recent snapshot of an aggregate instance.
func (ds *dataStore) LoadSnapshot(
	_ context.Context,
	id string,
) (persistence.Snapshot, bool, error) {
	db, err := ds.database()
	if err != nil {
		return persistence.Snapshot{}, false, err
	}

	db.mutex.RLock()
	defer db.mutex.RUnlock()

	ss, ok := db.snapshot.snapshots[id]
	return ss, ok, nil
}

// VisitSaveSnapshot always returns nil, snapshots are upserted without any
// concurrency check.
func (v *validator) VisitSaveSnapshot(
	_ context.Context,
	op persistence.SaveSnapshot,
) error {
	return nil
}

// VisitSaveSnapshot applies the changes in a "SaveSnapshot" operation to the
// database.
func (c *committer) VisitSaveSnapshot(
	_ context.Context,
	op persistence.SaveSnapshot,
) error {
	c.db.snapshot.save(op.Snapshot)
	return nil
}

// snapshotDatabase contains aggregate snapshots.
type snapshotDatabase struct {
	snapshots map[string]persistence.Snapshot
}

// save stores ss in the database, replacing any existing snapshot of the same
// instance.
func (db *snapshotDatabase) save(ss persistence.Snapshot) {
	if db.snapshots == nil {
		db.snapshots = map[string]persistence.Snapshot{}
	}

	db.snapshots[ss.AggregateID] = ss
}
