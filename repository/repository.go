// Package repository loads and persists event-sourced aggregate instances.
package repository

import (
	"context"
	"fmt"

	"github.com/dogmatiq/dodeca/logging"
	"github.com/dogmatiq/marshalkit"
	"github.com/kiroku-io/kiroku/aggregate"
	"github.com/kiroku-io/kiroku/message"
	"github.com/kiroku-io/kiroku/persistence"
)

const (
	// DefaultSnapshotInterval is the default number of events between
	// snapshots of an aggregate instance.
	DefaultSnapshotInterval = 100

	// DefaultConcurrencyLimit is the default number of aggregate instances
	// that may be loaded concurrently by a keyword query.
	DefaultConcurrencyLimit = 10
)

// EventSourced is a repository that reconstitutes aggregate instances from
// their historical events and persists new events recorded against them.
type EventSourced struct {
	// DataStore is the data store that contains the aggregate data.
	DataStore persistence.DataStore

	// Marshaler is used to marshal/unmarshal events, integration events and
	// aggregate snapshots.
	Marshaler marshalkit.ValueMarshaler

	// New returns a new aggregate root with the given ID and no recorded
	// history.
	New func(id string) aggregate.Root

	// Packer is used to stamp meta-data onto recorded events. If it is nil, a
	// packer with default settings is used.
	Packer *message.Packer

	// SnapshotInterval is the number of events between snapshots of an
	// aggregate instance. If it is zero, DefaultSnapshotInterval is used.
	SnapshotInterval int

	// ConcurrencyLimit is the number of instances that may be loaded
	// concurrently by LoadByKeyword(). If it is zero,
	// DefaultConcurrencyLimit is used.
	ConcurrencyLimit int

	// Logger is the target for log messages about aggregate instances.
	// If it is nil, logging.DefaultLogger is used.
	Logger logging.Logger
}

// Load reconstitutes the aggregate instance with the given ID.
//
// If a snapshot of the instance is available, replay resumes from the
// snapshot's position; otherwise the instance's entire history is replayed.
// An instance with no recorded history is returned in its zero state at
// version 0.
func (r *EventSourced) Load(
	ctx context.Context,
	id string,
) (*aggregate.VersionedAggregate, error) {
	root := r.New(id)

	var (
		v aggregate.Version
		s aggregate.SequenceNumber
	)

	ss, ok, err := r.DataStore.LoadSnapshot(ctx, id)
	if err != nil {
		return nil, err
	}

	if ok {
		x, err := r.Marshaler.Unmarshal(
			marshalkit.Packet{
				MediaType: ss.MediaType,
				Data:      ss.Data,
			},
		)
		if err != nil {
			return nil, err
		}

		root = x.(aggregate.Root)
		v = ss.Version
		s = ss.SequenceNumber
	}

	if err := func() error {
		res, err := r.DataStore.LoadEventsBySource(ctx, id, s)
		if err != nil {
			return err
		}
		defer res.Close()

		for {
			env, ok, err := res.Next(ctx)
			if err != nil {
				return err
			}
			if !ok {
				return nil
			}

			e, err := r.unmarshalEvent(env)
			if err != nil {
				return err
			}

			root.Apply(e)
			v = env.Version
			s = env.SequenceNumber
		}
	}(); err != nil {
		return nil, err
	}

	return aggregate.NewVersioned(root, v, s), nil
}

// Exists returns true if any events have been recorded against the aggregate
// instance with the given ID.
func (r *EventSourced) Exists(ctx context.Context, id string) (bool, error) {
	md, err := r.DataStore.LoadAggregateMetaData(ctx, id)
	if err != nil {
		return false, err
	}

	return md.InstanceExists, nil
}

// unmarshalEvent produces the domain event contained in env.
func (r *EventSourced) unmarshalEvent(
	env *persistence.EventEnvelope,
) (aggregate.DomainEvent, error) {
	x, err := r.Marshaler.Unmarshal(
		marshalkit.Packet{
			MediaType: env.MediaType,
			Data:      env.Data,
		},
	)
	if err != nil {
		return nil, err
	}

	e, ok := x.(aggregate.DomainEvent)
	if !ok {
		return nil, fmt.Errorf(
			"%s event %s is not a domain event",
			env.EventType,
			env.EventID,
		)
	}

	return e, nil
}

// packer returns r.Packer, or a packer with default settings if it is nil.
func (r *EventSourced) packer() *message.Packer {
	if r.Packer != nil {
		return r.Packer
	}

	return defaultPacker
}

// snapshotInterval returns the effective snapshot interval.
func (r *EventSourced) snapshotInterval() aggregate.SequenceNumber {
	if r.SnapshotInterval > 0 {
		return aggregate.SequenceNumber(r.SnapshotInterval)
	}

	return DefaultSnapshotInterval
}

var defaultPacker = &message.Packer{}
