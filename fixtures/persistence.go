package fixtures

import (
	"reflect"
	"time"

	"github.com/dogmatiq/marshalkit"
	"github.com/google/uuid"
	"github.com/kiroku-io/kiroku/aggregate"
	"github.com/kiroku-io/kiroku/persistence"
	"github.com/kiroku-io/kiroku/serializer"
)

// DefaultAppKey is the default application key for test data stores.
const DefaultAppKey = "a0c4aa74-3bd2-4b24-adb1-5b1922a49d0f"

// Marshaler marshals and unmarshals the test message types and aggregate
// roots.
var Marshaler = serializer.MustNew(
	reflect.TypeOf(&Account{}),
	reflect.TypeOf(AccountOpened{}),
	reflect.TypeOf(FundsDeposited{}),
	reflect.TypeOf(FundsWithdrawn{}),
	reflect.TypeOf(AccountClosed{}),
	reflect.TypeOf(AccountOpenedNotice{}),
)

// NewEnvelope returns a new event envelope containing the given domain event.
//
// If eventID is empty, the event's own ID is used.
func NewEnvelope(
	eventID string,
	e aggregate.DomainEvent,
	v aggregate.Version,
	s aggregate.SequenceNumber,
) persistence.EventEnvelope {
	if eventID == "" {
		eventID = e.EventID().String()
	}

	packet := marshalkit.MustMarshal(Marshaler, e)

	return persistence.EventEnvelope{
		EventID:        eventID,
		AggregateID:    aggregateID(e),
		AggregateType:  "account",
		EventType:      e.EventType(),
		Version:        v,
		SequenceNumber: s,
		CausationID:    eventID,
		CorrelationID:  eventID,
		CreatedAt:      time.Now(),
		MediaType:      packet.MediaType,
		Data:           packet.Data,
	}
}

// NewOutboxRecord returns a new pending outbox record containing the given
// integration event.
//
// If messageID is empty, a new UUID is generated. nextAttemptAt is the time
// at which the record first becomes claimable.
func NewOutboxRecord(
	messageID string,
	e aggregate.IntegrationEvent,
	nextAttemptAt time.Time,
) persistence.OutboxRecord {
	if messageID == "" {
		messageID = uuid.NewString()
	}

	packet := marshalkit.MustMarshal(Marshaler, e)

	return persistence.OutboxRecord{
		MessageID:     messageID,
		AggregateType: "account",
		EventType:     e.EventType(),
		CausationID:   messageID,
		CorrelationID: messageID,
		CreatedAt:     time.Now(),
		MediaType:     packet.MediaType,
		Data:          packet.Data,
		Status:        persistence.OutboxPending,
		NextAttemptAt: nextAttemptAt,
	}
}

func aggregateID(e aggregate.DomainEvent) string {
	switch e := e.(type) {
	case AccountOpened:
		return e.AccountID
	case FundsDeposited:
		return e.AccountID
	case FundsWithdrawn:
		return e.AccountID
	case AccountClosed:
		return e.AccountID
	default:
		return ""
	}
}
