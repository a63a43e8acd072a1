package boltpersistence

import (
	"context"

	"github.com/kiroku-io/kiroku/internal/x/bboltx"
	"github.com/kiroku-io/kiroku/persistence"
	"go.etcd.io/bbolt"
)

// snapshotBucketKey is the key for a child bucket that contains the most
// recent snapshot of each aggregate instance.
//
// The keys are application-defined aggregate instance IDs. The values are
// snapshot records in the wire format described in marshal.go.
var snapshotBucketKey = []byte("snapshot")

// LoadSnapshot loads the most recent snapshot of an aggregate instance.
func (ds *dataStore) LoadSnapshot(
	_ context.Context,
	id string,
) (ss persistence.Snapshot, ok bool, err error) {
	defer bboltx.Recover(&err)

	err = ds.view(
		func(root *bbolt.Bucket) {
			if data := bboltx.GetPath(root, snapshotBucketKey, []byte(id)); data != nil {
				ss = unmarshalSnapshot(id, data)
				ok = true
			}
		},
	)

	return ss, ok, err
}

// VisitSaveSnapshot applies the changes in a "SaveSnapshot" operation to the
// database.
func (c *committer) VisitSaveSnapshot(
	_ context.Context,
	op persistence.SaveSnapshot,
) error {
	bboltx.PutPath(
		c.root,
		marshalSnapshot(op.Snapshot),
		snapshotBucketKey,
		[]byte(op.Snapshot.AggregateID),
	)

	return nil
}
