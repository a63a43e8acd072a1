package message

import (
	"time"
)

// Message is an application-defined unit of communication.
//
// Commands, domain events and integration events are all messages.
type Message interface {
	// MessageName returns a unique name for the message type.
	//
	// The name is used to route persisted messages to handlers. It must not
	// change once messages of this type have been persisted.
	MessageName() string
}

// MetaData is information about a message that is not part of the
// application's domain.
type MetaData struct {
	// MessageID is a unique identifier for the message.
	MessageID string

	// CausationID is the ID of the message that directly caused this message
	// to occur.
	//
	// Messages that are not caused by other messages are called "root"
	// messages. For such messages, the causation ID is the message's own ID.
	CausationID string

	// CorrelationID is the ID of the root message that (perhaps indirectly)
	// caused this message to occur.
	//
	// For root messages, the correlation ID is the message's own ID.
	CorrelationID string

	// CreatedAt is the time at which the message was created.
	CreatedAt time.Time
}

// Envelope is a container for a message and its meta-data.
type Envelope struct {
	MetaData

	// Message is the in-memory representation of the message, as used by the
	// application.
	Message Message
}
