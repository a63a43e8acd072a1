package memorypersistence

import (
	"context"
	"errors"
	"sort"

	"github.com/kiroku-io/kiroku/aggregate"
	"github.com/kiroku-io/kiroku/persistence"
)

// LoadEventsBySource loads the events produced by a specific aggregate
// instance.
//
// seq is the (exclusive) lower-bound of the sequence-number range to include
// in the result.
func (ds *dataStore) LoadEventsBySource(
	_ context.Context,
	id string,
	seq aggregate.SequenceNumber,
) (persistence.EventResult, error) {
	db, err := ds.database()
	if err != nil {
		return nil, err
	}

	db.mutex.RLock()
	defer db.mutex.RUnlock()

	history := db.event.events[id]

	// Find the first event after the requested sequence number. The slice is
	// kept in ascending sequence-number order.
	i := sort.Search(
		len(history),
		func(i int) bool {
			return history[i].SequenceNumber > seq
		},
	)

	envelopes := make([]persistence.EventEnvelope, len(history[i:]))
	copy(envelopes, history[i:])

	return &eventResult{envelopes: envelopes}, nil
}

// VisitSaveEvent always returns nil, the event log is append-only and
// conflicts are detected via the aggregate meta-data.
func (v *validator) VisitSaveEvent(
	_ context.Context,
	op persistence.SaveEvent,
) error {
	return nil
}

// VisitSaveEvent applies the changes in a "SaveEvent" operation to the
// database.
func (c *committer) VisitSaveEvent(
	_ context.Context,
	op persistence.SaveEvent,
) error {
	c.db.event.save(op.Envelope)
	return nil
}

// eventDatabase contains the event log, keyed by aggregate instance ID.
type eventDatabase struct {
	events map[string][]persistence.EventEnvelope
}

// save appends env to the instance's event stream, maintaining ascending
// sequence-number order.
func (db *eventDatabase) save(env persistence.EventEnvelope) {
	if db.events == nil {
		db.events = map[string][]persistence.EventEnvelope{}
	}

	history := db.events[env.AggregateID]

	i := sort.Search(
		len(history),
		func(i int) bool {
			return history[i].SequenceNumber > env.SequenceNumber
		},
	)

	history = append(history, persistence.EventEnvelope{})
	copy(history[i+1:], history[i:])
	history[i] = env

	db.events[env.AggregateID] = history
}

// eventResult is an implementation of persistence.EventResult for the
// in-memory provider.
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
