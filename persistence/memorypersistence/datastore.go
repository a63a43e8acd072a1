package memorypersistence

import (
	"context"
	"sync"

	"github.com/kiroku-io/kiroku/persistence"
)

// dataStore is an implementation of persistence.DataStore for in-memory
// persistence.
type dataStore struct {
	m  sync.RWMutex
	db *database
}

// newDataStore returns a new data-store that reads and writes to db.
func newDataStore(db *database) *dataStore {
	return &dataStore{db: db}
}

// Persist commits a batch of operations atomically.
//
// If any one of the operations causes an optimistic concurrency conflict
// the entire batch is aborted and a ConflictError is returned.
func (ds *dataStore) Persist(
	ctx context.Context,
	b persistence.Batch,
) error {
	b.MustValidate()

	ds.m.RLock()
	defer ds.m.RUnlock()

	if ds.db == nil {
		return persistence.ErrDataStoreClosed
	}

	ds.db.mutex.Lock()
	defer ds.db.mutex.Unlock()

	if err := b.AcceptVisitor(ctx, &validator{ds.db}); err != nil {
		return err
	}

	return b.AcceptVisitor(ctx, &committer{ds.db})
}

// Close closes the data store.
//
// Closing a data-store causes any future calls to Persist() to return
// ErrDataStoreClosed.
func (ds *dataStore) Close() error {
	ds.m.Lock()
	defer ds.m.Unlock()

	if ds.db == nil {
		return persistence.ErrDataStoreClosed
	}

	ds.db.Close()
	ds.db = nil

	return nil
}

// database returns the underlying database, or an error if the data-store is
// closed.
func (ds *dataStore) database() (*database, error) {
	ds.m.RLock()
	defer ds.m.RUnlock()

	if ds.db == nil {
		return nil, persistence.ErrDataStoreClosed
	}

	return ds.db, nil
}
