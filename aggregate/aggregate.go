package aggregate

import (
	"github.com/kiroku-io/kiroku/id"
	"github.com/kiroku-io/kiroku/message"
)

// Version is the version of an aggregate instance.
//
// It is incremented by exactly one for each event appended to the instance's
// event stream.
type Version uint64

// SequenceNumber is the position of an event within an aggregate instance's
// event stream.
//
// Because each command produces at most one event, sequence numbers and
// versions advance in lockstep.
type SequenceNumber uint64

// Command is a message that requests a change to a specific aggregate
// instance.
type Command interface {
	message.Message

	// AggregateID returns the ID of the aggregate instance that the command
	// targets.
	AggregateID() string
}

// DomainEvent is a message that describes a change that has occurred within
// an aggregate instance.
type DomainEvent interface {
	message.Message

	// EventID returns the event's unique identifier, assigned when the event
	// is created.
	EventID() id.EventID

	// EventType returns the portable name used to route the event to decoders
	// and handlers. It must not change once events of this type have been
	// persisted.
	EventType() string
}

// IntegrationEvent is a message published to systems outside the application's
// own consistency boundary.
type IntegrationEvent interface {
	message.Message

	// EventID returns the event's unique identifier.
	EventID() string

	// EventType returns the portable name used to route the event to decoders
	// and handlers.
	EventType() string
}

// IntegrationConverter is an optional interface for domain events that
// produce integration events when they are recorded.
type IntegrationConverter interface {
	// IntegrationEvents returns the integration events to be published as a
	// result of this domain event.
	IntegrationEvents() []IntegrationEvent
}

// KeywordAdder is an optional interface for domain events that associate
// their aggregate instance with search keywords in the inverted index.
type KeywordAdder interface {
	// IndexKeywords returns the keywords under which the aggregate instance
	// should be discoverable.
	IndexKeywords() []string
}

// KeywordRemover is an optional interface for domain events that dissociate
// their aggregate instance from search keywords in the inverted index.
type KeywordRemover interface {
	// DeindexKeywords returns the keywords under which the aggregate instance
	// should no longer be discoverable.
	DeindexKeywords() []string
}

// Root is an application-defined aggregate state type.
//
// Handle() and Apply() are deliberately separate responsibilities: Handle()
// validates a command against the current state and must not mutate it, while
// Apply() folds an event into the state and must not fail. Replay only ever
// calls Apply(), which is what makes replay safe.
type Root interface {
	// AggregateType returns a unique name for the aggregate type.
	AggregateType() string

	// AggregateID returns the ID of this aggregate instance.
	AggregateID() string

	// Handle validates c against the current state.
	//
	// If the command is accepted it returns the resulting domain event. It
	// must not mutate the aggregate state; state changes occur only via a
	// subsequent call to Apply().
	Handle(c Command) (DomainEvent, error)

	// Apply folds e into the aggregate state.
	//
	// It is called both when an event is first recorded and when the
	// instance's historical events are replayed. A malformed event is a
	// programming error; Apply() is expected to panic rather than fail
	// gracefully.
	Apply(e DomainEvent)
}
