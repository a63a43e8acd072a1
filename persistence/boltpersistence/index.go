package boltpersistence

import (
	"context"

	"github.com/kiroku-io/kiroku/internal/x/bboltx"
	"github.com/kiroku-io/kiroku/persistence"
	"go.etcd.io/bbolt"
)

// indexBucketKey is the key for a child bucket that contains the inverted
// keyword index.
//
// The keys are application-defined keywords. The values are buckets in which
// the keys are aggregate instance IDs and the values are always nil. A
// keyword's bucket is removed when its last instance is dissociated.
var indexBucketKey = []byte("index")

// LoadAggregateIDs returns the IDs of the aggregate instances associated with
// the given keyword.
func (ds *dataStore) LoadAggregateIDs(
	_ context.Context,
	keyword string,
) (ids []string, err error) {
	defer bboltx.Recover(&err)

	err = ds.view(
		func(root *bbolt.Bucket) {
			entries, ok := bboltx.TryBucket(root, indexBucketKey, []byte(keyword))
			if !ok {
				return
			}

			c := entries.Cursor()
			for k, _ := c.First(); k != nil; k, _ = c.Next() {
				ids = append(ids, string(k))
			}
		},
	)

	return ids, err
}

// VisitSaveIndexEntry applies the changes in a "SaveIndexEntry" operation to
// the database.
func (c *committer) VisitSaveIndexEntry(
	_ context.Context,
	op persistence.SaveIndexEntry,
) error {
	bboltx.PutPath(
		c.root,
		nil,
		indexBucketKey,
		[]byte(op.Keyword),
		[]byte(op.AggregateID),
	)

	return nil
}

// VisitRemoveIndexEntry applies the changes in a "RemoveIndexEntry" operation
// to the database.
func (c *committer) VisitRemoveIndexEntry(
	_ context.Context,
	op persistence.RemoveIndexEntry,
) error {
	entries, ok := bboltx.TryBucket(c.root, indexBucketKey, []byte(op.Keyword))
	if !ok {
		return nil
	}

	bboltx.Must(entries.Delete([]byte(op.AggregateID)))

	if k, _ := entries.Cursor().First(); k == nil {
		parent := bboltx.Bucket(c.root, indexBucketKey)
		bboltx.Must(parent.DeleteBucket([]byte(op.Keyword)))
	}

	return nil
}
