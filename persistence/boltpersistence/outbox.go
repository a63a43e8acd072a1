package boltpersistence

import (
	"context"
	"time"

	"github.com/kiroku-io/kiroku/internal/x/bboltx"
	"github.com/kiroku-io/kiroku/persistence"
	"go.etcd.io/bbolt"
)

var (
	// outboxBucketKey is the key for the root bucket for the outbox.
	outboxBucketKey = []byte("outbox")

	// outboxRecordsBucketKey is the key for a child bucket that contains each
	// staged record.
	//
	// The keys are the application-defined message IDs. The values are outbox
	// records in the wire format described in marshal.go.
	outboxRecordsBucketKey = []byte("records")

	// outboxOrderBucketKey is the key for a child bucket that is used to
	// index the staged records by their next-attempt time.
	//
	// The keys are the next-attempt time, represented as RFC3339Nano strings.
	// The values are buckets indicating which records are due to be attempted
	// at that time.
	//
	// Within this further sub-bucket, the keys are the application-defined
	// message IDs, and the values are always nil.
	outboxOrderBucketKey = []byte("order")
)

// LoadOutboxRecords loads up to n unpublished outbox records, ordered by
// their next-attempt time.
func (ds *dataStore) LoadOutboxRecords(
	_ context.Context,
	n int,
) (result []persistence.OutboxRecord, err error) {
	defer bboltx.Recover(&err)

	err = ds.view(
		func(root *bbolt.Bucket) {
			eachOutboxRecordInOrder(
				root,
				func(rec persistence.OutboxRecord) bool {
					if rec.Status == persistence.OutboxPublished {
						return true
					}

					result = append(result, rec)
					return len(result) < n
				},
			)
		},
	)

	return result, err
}

// ClaimOutboxRecords atomically transitions up to n due records to the
// publishing status and returns them.
func (ds *dataStore) ClaimOutboxRecords(
	_ context.Context,
	n int,
	lease time.Duration,
) (claimed []persistence.OutboxRecord, err error) {
	defer bboltx.Recover(&err)

	now := time.Now()

	err = ds.update(
		func(root *bbolt.Bucket) {
			eachOutboxRecordInOrder(
				root,
				func(rec persistence.OutboxRecord) bool {
					if !rec.IsDue(now) {
						return true
					}

					rec = rec.Claimed(now.Add(lease))
					rec.Revision++
					putOutboxRecord(root, rec)

					claimed = append(claimed, rec)
					return len(claimed) < n
				},
			)
		},
	)

	return claimed, err
}

// VisitSaveOutboxRecord applies the changes in a "SaveOutboxRecord" operation
// to the database.
func (c *committer) VisitSaveOutboxRecord(
	_ context.Context,
	op persistence.SaveOutboxRecord,
) error {
	old, ok := loadOutboxRecord(c.root, op.Record.MessageID)

	if op.Record.Revision != old.Revision {
		return persistence.ConflictError{
			Cause: op,
		}
	}

	rec := op.Record
	rec.Revision++
	putOutboxRecord(c.root, rec)

	if ok && !old.NextAttemptAt.Equal(rec.NextAttemptAt) {
		removeOutboxOrder(c.root, old)
	}

	putOutboxOrder(c.root, rec)

	return nil
}

// VisitRemoveOutboxRecord applies the changes in a "RemoveOutboxRecord"
// operation to the database.
func (c *committer) VisitRemoveOutboxRecord(
	_ context.Context,
	op persistence.RemoveOutboxRecord,
) error {
	old, ok := loadOutboxRecord(c.root, op.Record.MessageID)

	if !ok || op.Record.Revision != old.Revision {
		return persistence.ConflictError{
			Cause: op,
		}
	}

	bboltx.DeletePath(
		c.root,
		outboxBucketKey,
		outboxRecordsBucketKey,
		[]byte(op.Record.MessageID),
	)
	removeOutboxOrder(c.root, old)

	return nil
}

// eachOutboxRecordInOrder visits the staged records in next-attempt order,
// until fn returns false.
func eachOutboxRecordInOrder(
	root *bbolt.Bucket,
	fn func(persistence.OutboxRecord) bool,
) {
	records, ok := bboltx.TryBucket(root, outboxBucketKey, outboxRecordsBucketKey)
	if !ok {
		return
	}

	order, ok := bboltx.TryBucket(root, outboxBucketKey, outboxOrderBucketKey)
	if !ok {
		return
	}

	orderCursor := order.Cursor()

	for k, _ := orderCursor.First(); k != nil; k, _ = orderCursor.Next() {
		idCursor := order.Bucket(k).Cursor()

		for id, _ := idCursor.First(); id != nil; id, _ = idCursor.Next() {
			rec := unmarshalOutboxRecord(
				string(id),
				records.Get(id),
			)

			if !fn(rec) {
				return
			}
		}
	}
}

// putOutboxRecord stores rec, which must already carry its new revision.
func putOutboxRecord(root *bbolt.Bucket, rec persistence.OutboxRecord) {
	bboltx.PutPath(
		root,
		marshalOutboxRecord(rec),
		outboxBucketKey,
		outboxRecordsBucketKey,
		[]byte(rec.MessageID),
	)
}

// loadOutboxRecord returns the record with the given message ID.
func loadOutboxRecord(root *bbolt.Bucket, id string) (persistence.OutboxRecord, bool) {
	data := bboltx.GetPath(
		root,
		outboxBucketKey,
		outboxRecordsBucketKey,
		[]byte(id),
	)
	if data == nil {
		return persistence.OutboxRecord{MessageID: id}, false
	}

	return unmarshalOutboxRecord(id, data), true
}

// putOutboxOrder adds rec to the next-attempt order index.
func putOutboxOrder(root *bbolt.Bucket, rec persistence.OutboxRecord) {
	bboltx.PutPath(
		root,
		nil,
		outboxBucketKey,
		outboxOrderBucketKey,
		[]byte(marshalTime(rec.NextAttemptAt)),
		[]byte(rec.MessageID),
	)
}

// removeOutboxOrder removes rec from the next-attempt order index.
func removeOutboxOrder(root *bbolt.Bucket, rec persistence.OutboxRecord) {
	bboltx.DeletePath(
		root,
		outboxBucketKey,
		outboxOrderBucketKey,
		[]byte(marshalTime(rec.NextAttemptAt)),
		[]byte(rec.MessageID),
	)
}
