package boltpersistence

import (
	"context"
	"sync"

	"github.com/kiroku-io/kiroku/internal/x/bboltx"
	"github.com/kiroku-io/kiroku/persistence"
	"go.etcd.io/bbolt"
)

// dataStore is an implementation of persistence.DataStore for BoltDB.
type dataStore struct {
	db     *bbolt.DB
	appKey []byte

	m       sync.RWMutex
	release func(string) error
}

// Persist commits a batch of operations atomically.
//
// If any one of the operations causes an optimistic concurrency conflict
// the entire batch is aborted and a ConflictError is returned.
func (ds *dataStore) Persist(
	ctx context.Context,
	b persistence.Batch,
) (err error) {
	b.MustValidate()

	defer bboltx.Recover(&err)

	ds.m.RLock()
	defer ds.m.RUnlock()

	if ds.release == nil {
		return persistence.ErrDataStoreClosed
	}

	bboltx.Update(
		ds.db,
		func(tx *bbolt.Tx) {
			c := &committer{
				root: bboltx.CreateBucketIfNotExists(tx, ds.appKey),
			}
			bboltx.Must(b.AcceptVisitor(ctx, c))
		},
	)

	return nil
}

// Close closes the data store.
//
// Closing a data-store causes any future calls to Persist() to return
// ErrDataStoreClosed.
//
// In general use it is expected that all pending calls to Persist() will have
// finished before a data-store is closed. Close() may block until any
// in-flight calls to Persist() return, or may prevent any such calls from
// succeeding.
func (ds *dataStore) Close() error {
	ds.m.Lock()
	defer ds.m.Unlock()

	if ds.release == nil {
		return persistence.ErrDataStoreClosed
	}

	r := ds.release
	ds.db = nil
	ds.release = nil

	return r(string(ds.appKey))
}

// view executes a read-only transaction against the application's root
// bucket, if it exists.
func (ds *dataStore) view(fn func(root *bbolt.Bucket)) error {
	ds.m.RLock()
	defer ds.m.RUnlock()

	if ds.release == nil {
		return persistence.ErrDataStoreClosed
	}

	bboltx.View(
		ds.db,
		func(tx *bbolt.Tx) {
			if root, ok := bboltx.TryBucket(tx, ds.appKey); ok {
				fn(root)
			}
		},
	)

	return nil
}

// update executes a read-write transaction against the application's root
// bucket, creating it if necessary.
func (ds *dataStore) update(fn func(root *bbolt.Bucket)) error {
	ds.m.RLock()
	defer ds.m.RUnlock()

	if ds.release == nil {
		return persistence.ErrDataStoreClosed
	}

	bboltx.Update(
		ds.db,
		func(tx *bbolt.Tx) {
			fn(bboltx.CreateBucketIfNotExists(tx, ds.appKey))
		},
	)

	return nil
}

// committer is an implementation of persistence.OperationVisitor that applies
// operations to the database within a single read-write transaction.
//
// Conflicting operations abort the transaction.
type committer struct {
	root *bbolt.Bucket
}
