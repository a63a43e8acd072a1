package boltpersistence

import (
	"context"
	"encoding/binary"
	"errors"

	"github.com/kiroku-io/kiroku/aggregate"
	"github.com/kiroku-io/kiroku/internal/x/bboltx"
	"github.com/kiroku-io/kiroku/persistence"
	"go.etcd.io/bbolt"
)

// eventBucketKey is the key for a child bucket that contains the event log.
//
// The keys are application-defined aggregate instance IDs. The values are
// buckets in which the keys are 8-byte big-endian sequence numbers and the
// values are event envelopes in the wire format described in marshal.go.
//
// The big-endian encoding is what makes a cursor walk the stream in
// ascending sequence-number order.
var eventBucketKey = []byte("event")

// LoadEventsBySource loads the events produced by a specific aggregate
// instance.
//
// seq is the (exclusive) lower-bound of the sequence-number range to include
// in the result.
func (ds *dataStore) LoadEventsBySource(
	_ context.Context,
	id string,
	seq aggregate.SequenceNumber,
) (_ persistence.EventResult, err error) {
	defer bboltx.Recover(&err)

	var envelopes []persistence.EventEnvelope

	err = ds.view(
		func(root *bbolt.Bucket) {
			stream, ok := bboltx.TryBucket(root, eventBucketKey, []byte(id))
			if !ok {
				return
			}

			c := stream.Cursor()

			k, v := c.Seek(marshalSequenceNumber(seq + 1))
			for k != nil {
				envelopes = append(envelopes, unmarshalEventEnvelope(v))
				k, v = c.Next()
			}
		},
	)
	if err != nil {
		return nil, err
	}

	return &eventResult{envelopes: envelopes}, nil
}

// VisitSaveEvent applies the changes in a "SaveEvent" operation to the
// database.
func (c *committer) VisitSaveEvent(
	_ context.Context,
	op persistence.SaveEvent,
) error {
	bboltx.PutPath(
		c.root,
		marshalEventEnvelope(op.Envelope),
		eventBucketKey,
		[]byte(op.Envelope.AggregateID),
		marshalSequenceNumber(op.Envelope.SequenceNumber),
	)

	return nil
}

// marshalSequenceNumber encodes a sequence number as an 8-byte big-endian
// bucket key.
func marshalSequenceNumber(seq aggregate.SequenceNumber) []byte {
	k := make([]byte, 8)
	binary.BigEndian.PutUint64(k, uint64(seq))
	return k
}

// eventResult is an implementation of persistence.EventResult for BoltDB.
//
// Envelopes are read in full when the query is made; the result simply walks
// the loaded slice.
type eventResult struct {
	envelopes []persistence.EventEnvelope
	closed    bool
}

// Next returns the next event in the result.
func (r *eventResult) Next(
	_ context.Context,
) (*persistence.EventEnvelope, bool, error) {
	if r.closed {
		return nil, false, errors.New("event result is closed")
	}

	if len(r.envelopes) == 0 {
		return nil, false, nil
	}

	env := r.envelopes[0]
	r.envelopes = r.envelopes[1:]

	return &env, true, nil
}

// Close closes the cursor.
func (r *eventResult) Close() error {
	r.closed = true
	return nil
}
