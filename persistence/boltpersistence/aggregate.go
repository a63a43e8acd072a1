package boltpersistence

import (
	"context"

	"github.com/kiroku-io/kiroku/internal/x/bboltx"
	"github.com/kiroku-io/kiroku/persistence"
	"go.etcd.io/bbolt"
)

// aggregateBucketKey is the key for a child bucket that contains the
// meta-data for each aggregate instance.
//
// The keys are application-defined aggregate instance IDs. The values are
// aggregate meta-data records in the wire format described in marshal.go.
var aggregateBucketKey = []byte("aggregate")

// LoadAggregateMetaData loads the meta-data for an aggregate instance.
func (ds *dataStore) LoadAggregateMetaData(
	_ context.Context,
	id string,
) (md persistence.AggregateMetaData, err error) {
	defer bboltx.Recover(&err)

	md = persistence.AggregateMetaData{
		AggregateID: id,
	}

	err = ds.view(
		func(root *bbolt.Bucket) {
			if data := bboltx.GetPath(root, aggregateBucketKey, []byte(id)); data != nil {
				md = unmarshalAggregateMetaData(id, data)
			}
		},
	)

	return md, err
}

// VisitSaveAggregateMetaData applies the changes in a "SaveAggregateMetaData"
// operation to the database.
func (c *committer) VisitSaveAggregateMetaData(
	_ context.Context,
	op persistence.SaveAggregateMetaData,
) error {
	old := loadAggregateMetaData(c.root, op.MetaData.AggregateID)

	if op.MetaData.Revision != old.Revision {
		return persistence.ConflictError{
			Cause: op,
		}
	}

	saveAggregateMetaData(c.root, op.MetaData)

	return nil
}

// saveAggregateMetaData saves aggregate meta-data to the root bucket.
// md.Revision is incremented before saving.
func saveAggregateMetaData(root *bbolt.Bucket, md persistence.AggregateMetaData) {
	md.Revision++

	bboltx.PutPath(
		root,
		marshalAggregateMetaData(md),
		aggregateBucketKey,
		[]byte(md.AggregateID),
	)
}

// loadAggregateMetaData returns the meta-data for a specific aggregate
// instance.
func loadAggregateMetaData(root *bbolt.Bucket, id string) persistence.AggregateMetaData {
	data := bboltx.GetPath(
		root,
		aggregateBucketKey,
		[]byte(id),
	)
	if data == nil {
		return persistence.AggregateMetaData{
			AggregateID: id,
		}
	}

	return unmarshalAggregateMetaData(id, data)
}
