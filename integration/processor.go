// Package integration routes staged integration events to the handlers that
// deliver them to external systems.
package integration

import (
	"context"
	"fmt"
	"sync"

	"github.com/dogmatiq/dodeca/logging"
	"github.com/dogmatiq/marshalkit"
	"github.com/kiroku-io/kiroku/aggregate"
	"github.com/kiroku-io/kiroku/persistence"
)

// Handler delivers an integration event to an external system.
type Handler func(ctx context.Context, e aggregate.IntegrationEvent) error

// Processor decodes outbox records and routes them to the handlers
// registered for their event type.
//
// A Processor satisfies the outbox publisher's transport interface, so it can
// be used directly as the delivery target of a publisher.
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

// Process routes the event in rec to the handler registered for its type.
//
// An event type with no registered handler is skipped.
func (p *Processor) Process(
	ctx context.Context,
	rec persistence.OutboxRecord,
) error {
	p.m.RLock()
	h, ok := p.handlers[rec.EventType]
	p.m.RUnlock()

	if !ok {
		logging.Debug(
			p.Logger,
			"no handler is registered for '%s' events, skipping event %s",
			rec.EventType,
			rec.MessageID,
		)

		return nil
	}

	x, err := p.Marshaler.Unmarshal(
		marshalkit.Packet{
			MediaType: rec.MediaType,
			Data:      rec.Data,
		},
	)
	if err != nil {
		return fmt.Errorf(
			"%s event %s can not be decoded: %w",
			rec.EventType,
			rec.MessageID,
			err,
		)
	}

	e, ok := x.(aggregate.IntegrationEvent)
	if !ok {
		return fmt.Errorf(
			"%s event %s is not an integration event",
			rec.EventType,
			rec.MessageID,
		)
	}

	return h(ctx, e)
}

// Publish delivers the integration event contained in rec.
//
// It implements the transport interface expected by the outbox publisher.
func (p *Processor) Publish(
	ctx context.Context,
	rec persistence.OutboxRecord,
) error {
	return p.Process(ctx, rec)
}
