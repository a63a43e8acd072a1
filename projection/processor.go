// Package projection routes persisted domain events to read-model handlers.
package projection

import (
	"context"
	"fmt"
	"sync"

	"github.com/dogmatiq/dodeca/logging"
	"github.com/dogmatiq/marshalkit"
	"github.com/kiroku-io/kiroku/aggregate"
	"github.com/kiroku-io/kiroku/internal/mlog"
	"github.com/kiroku-io/kiroku/persistence"
)

// Handler applies a domain event to a read model.
type Handler func(ctx context.Context, e aggregate.DomainEvent) error

// Processor decodes persisted event envelopes and routes them to the
// handlers registered for their event type.
//
// Processors do not retry failed handlers; redelivery is the responsibility
// of whatever feeds the processor.
type Processor struct {
	// Marshaler is used to decode the event payloads.
	Marshaler marshalkit.ValueMarshaler

	// Logger is the target for log messages about the processed events.
	// If it is nil, logging.DefaultLogger is used.
	Logger logging.Logger

	m        sync.RWMutex
	handlers map[string]Handler
}

// Register associates h with the given portable event-type name.
//
// A subsequent registration for the same name replaces h.
func (p *Processor) Register(eventType string, h Handler) {
	p.m.Lock()
	defer p.m.Unlock()

	if p.handlers == nil {
		p.handlers = map[string]Handler{}
	}

	p.handlers[eventType] = h
}

// Process routes the event in env to the handler registered for its type.
//
// An event type with no registered handler is skipped; unrecognized events
// are expected whenever the schema evolves ahead of this processor.
func (p *Processor) Process(
	ctx context.Context,
	env persistence.EventEnvelope,
) error {
	p.m.RLock()
	h, ok := p.handlers[env.EventType]
	p.m.RUnlock()

	if !ok {
		logging.Debug(
			p.Logger,
			"no handler is registered for '%s' events, skipping event %s",
			env.EventType,
			env.EventID,
		)

		return nil
	}

	x, err := p.Marshaler.Unmarshal(
		marshalkit.Packet{
			MediaType: env.MediaType,
			Data:      env.Data,
		},
	)
	if err != nil {
		return fmt.Errorf(
			"%s event %s can not be decoded: %w",
			env.EventType,
			env.EventID,
			err,
		)
	}

	e, ok := x.(aggregate.DomainEvent)
	if !ok {
		return fmt.Errorf(
			"%s event %s is not a domain event",
			env.EventType,
			env.EventID,
		)
	}

	mlog.LogConsume(p.Logger, env, 0)

	return h(ctx, e)
}
