// Package outbox delivers staged integration events to external systems.
package outbox

import (
	"context"
	"time"

	"github.com/kiroku-io/kiroku/persistence"
)

// Transport is an interface for delivering integration events to an external
// system, such as a message broker.
type Transport interface {
	// Publish delivers the integration event contained in rec.
	//
	// Delivery is at-least-once; a consumer may observe the same event more
	// than once and must deduplicate by rec.MessageID.
	Publish(ctx context.Context, rec persistence.OutboxRecord) error
}

// TransportFunc is an adaptor to allow the use of a function as a Transport.
type TransportFunc func(ctx context.Context, rec persistence.OutboxRecord) error

// Publish delivers the integration event contained in rec by calling fn.
func (fn TransportFunc) Publish(ctx context.Context, rec persistence.OutboxRecord) error {
	return fn(ctx, rec)
}

// defaultLease is the lease duration used when Publisher.LeaseDuration is
// zero.
const defaultLease = 5 * time.Minute
