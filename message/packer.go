package message

import (
	"time"

	"github.com/google/uuid"
)

// Packer puts messages into envelopes.
type Packer struct {
	// GenerateID is a function used to generate new message IDs. If it is nil,
	// a UUID is generated.
	GenerateID func() string

	// Now is a function used to get the current time. If it is nil, time.Now()
	// is used.
	Now func() time.Time
}

// Pack returns a new envelope containing the given message.
//
// The message is treated as a "root" message, so its causation and correlation
// IDs are both set to its own message ID.
func (p *Packer) Pack(m Message) *Envelope {
	id := p.generateID()

	return &Envelope{
		MetaData: MetaData{
			MessageID:     id,
			CausationID:   id,
			CorrelationID: id,
			CreatedAt:     p.now(),
		},
		Message: m,
	}
}

// PackWithID returns a new envelope containing the given message, using a
// pre-assigned message ID.
//
// It is used for messages that mint their own identity, such as domain
// events. The message is treated as a "root" message.
func (p *Packer) PackWithID(id string, m Message) *Envelope {
	return &Envelope{
		MetaData: MetaData{
			MessageID:     id,
			CausationID:   id,
			CorrelationID: id,
			CreatedAt:     p.now(),
		},
		Message: m,
	}
}

// PackChild returns a new envelope containing the given message, configured as
// a child of cause.
func (p *Packer) PackChild(cause *Envelope, m Message) *Envelope {
	return &Envelope{
		MetaData: MetaData{
			MessageID:     p.generateID(),
			CausationID:   cause.MessageID,
			CorrelationID: cause.CorrelationID,
			CreatedAt:     p.now(),
		},
		Message: m,
	}
}

// generateID calls p.GenerateID if it is non-nil, otherwise it generates a
// UUID.
func (p *Packer) generateID() string {
	if p.GenerateID != nil {
		return p.GenerateID()
	}

	return uuid.NewString()
}

// now calls p.Now if it is non-nil, otherwise it returns the current time.
func (p *Packer) now() time.Time {
	if p.Now != nil {
		return p.Now()
	}

	return time.Now()
}
