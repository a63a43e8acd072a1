package persistence

import (
	"context"
	"time"

	"github.com/kiroku-io/kiroku/aggregate"
)

// EventEnvelope is a domain event as persisted in the event store.
//
// Once appended the envelope is owned by the store and is immutable; the
// event stream is append-only.
type EventEnvelope struct {
	// EventID is the unique identifier of the event.
	EventID string

	// AggregateID is the ID of the aggregate instance that produced the
	// event.
	AggregateID string

	// AggregateType is the name of the aggregate type.
	AggregateType string

	// EventType is the portable name used to route the event to decoders and
	// handlers.
	EventType string

	// Version is the aggregate instance's version after this event.
	Version aggregate.Version

	// SequenceNumber is the event's position within the instance's stream.
	SequenceNumber aggregate.SequenceNumber

	// CausationID is the ID of the message that caused this event.
	CausationID string

	// CorrelationID is the ID of the root message that caused this event.
	CorrelationID string

	// CreatedAt is the time at which the event was created.
	CreatedAt time.Time

	// MediaType names the encoding of Data and the portable name of the
	// payload type within it.
	MediaType string

	// Data is the opaque serialized event payload.
	Data []byte
}

// ID returns the ID of the event.
func (e *EventEnvelope) ID() string {
	return e.EventID
}

// EventRepository is an interface for reading persisted events.
type EventRepository interface {
	// LoadEventsBySource loads the events produced by a specific aggregate
	// instance.
	//
	// seq specifies the (exclusive) lower-bound of the sequence-number range
	// to include in the result, allowing replay to resume from a snapshot.
	LoadEventsBySource(
		ctx context.Context,
		id string,
		seq aggregate.SequenceNumber,
	) (EventResult, error)
}

// EventResult is the result of a query made using an EventRepository.
//
// Results are produced in ascending sequence-number order. Retrieval may be
// paginated by the backend; pagination is transparent to the caller.
//
// EventResult values are not safe for concurrent use.
type EventResult interface {
	// Next returns the next event in the result.
	//
	// It returns false if there are no more events in the result.
	Next(ctx context.Context) (*EventEnvelope, bool, error)

	// Close closes the cursor.
	Close() error
}

// SaveEvent is a persistence operation that appends an event to an aggregate
// instance's event stream.
//
// It is typically performed in the same batch as a SaveAggregateMetaData
// operation, which is what enforces the optimistic concurrency check for the
// append.
type SaveEvent struct {
	// Envelope is the envelope containing the event to persist.
	Envelope EventEnvelope
}

// AcceptVisitor calls v.VisitSaveEvent().
func (op SaveEvent) AcceptVisitor(ctx context.Context, v OperationVisitor) error {
	return v.VisitSaveEvent(ctx, op)
}

func (op SaveEvent) entityKey() entityKey {
	return entityKey{"event", op.Envelope.EventID}
}
