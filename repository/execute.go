package repository

import (
	"context"

	"github.com/dogmatiq/dodeca/logging"
	"github.com/kiroku-io/kiroku/aggregate"
	"github.com/kiroku-io/kiroku/internal/mlog"
	"github.com/kiroku-io/kiroku/message"
	"github.com/kiroku-io/kiroku/persistence"
)

// Execute executes a command against the aggregate instance it targets.
//
// The instance is loaded, the command is validated against its current state,
// and the resulting event, if any, is persisted via Save(). It returns the
// instance with the event applied.
//
// If the instance is modified between the load and the save, the save fails
// with a persistence.ConflictError and no change is persisted.
func (r *EventSourced) Execute(
	ctx context.Context,
	c aggregate.Command,
) (*aggregate.VersionedAggregate, error) {
	inst, err := r.Load(ctx, c.AggregateID())
	if err != nil {
		return nil, err
	}

	e, err := inst.Handle(c)
	if err != nil {
		return nil, err
	}

	if e == nil {
		return inst, nil
	}

	if err := r.Save(ctx, inst, e); err != nil {
		return nil, err
	}

	return inst, nil
}

// Save appends e to the event stream of the aggregate instance in a.
//
// The event append, the instance's meta-data update and any outbox records
// staged for the event's integration events are committed in a single atomic
// batch. The meta-data update carries the instance's version as loaded, so a
// concurrent modification causes the entire batch to be rejected with a
// persistence.ConflictError.
//
// On success the event is applied to a. Snapshot and inverted-index
// maintenance are then performed on a best-effort basis; their failure is
// logged but never affects the outcome of the save.
func (r *EventSourced) Save(
	ctx context.Context,
	a *aggregate.VersionedAggregate,
	e aggregate.DomainEvent,
) error {
	var (
		v = a.Version() + 1
		s = a.SequenceNumber() + 1
	)

	penv := r.packer().PackWithID(e.EventID().String(), e)

	p, err := r.Marshaler.Marshal(e)
	if err != nil {
		return err
	}

	root := a.Root()

	env := persistence.EventEnvelope{
		EventID:        penv.MessageID,
		AggregateID:    a.AggregateID(),
		AggregateType:  root.AggregateType(),
		EventType:      e.EventType(),
		Version:        v,
		SequenceNumber: s,
		CausationID:    penv.CausationID,
		CorrelationID:  penv.CorrelationID,
		CreatedAt:      penv.CreatedAt,
		MediaType:      p.MediaType,
		Data:           p.Data,
	}

	batch := persistence.Batch{
		persistence.SaveAggregateMetaData{
			MetaData: persistence.AggregateMetaData{
				AggregateID:    a.AggregateID(),
				AggregateType:  root.AggregateType(),
				Revision:       a.Version(),
				InstanceExists: true,
			},
		},
		persistence.SaveEvent{
			Envelope: env,
		},
	}

	if c, ok := e.(aggregate.IntegrationConverter); ok {
		for _, x := range c.IntegrationEvents() {
			op, err := r.stageOutboxRecord(penv, a, x)
			if err != nil {
				return err
			}

			batch = append(batch, op)
		}
	}

	if err := r.DataStore.Persist(ctx, batch); err != nil {
		return err
	}

	a.Apply(e, v, s)
	mlog.LogProduce(r.Logger, env)

	r.takeSnapshot(ctx, a)
	r.updateIndex(ctx, a.AggregateID(), e)

	return nil
}

// stageOutboxRecord returns an operation that stages x for publication as a
// consequence of the domain event in cause.
func (r *EventSourced) stageOutboxRecord(
	cause *message.Envelope,
	a *aggregate.VersionedAggregate,
	x aggregate.IntegrationEvent,
) (persistence.SaveOutboxRecord, error) {
	env := r.packer().PackChild(cause, x)

	p, err := r.Marshaler.Marshal(x)
	if err != nil {
		return persistence.SaveOutboxRecord{}, err
	}

	return persistence.SaveOutboxRecord{
		Record: persistence.OutboxRecord{
			MessageID:     env.MessageID,
			AggregateID:   a.AggregateID(),
			AggregateType: a.Root().AggregateType(),
			EventType:     x.EventType(),
			CausationID:   env.CausationID,
			CorrelationID: env.CorrelationID,
			CreatedAt:     env.CreatedAt,
			MediaType:     p.MediaType,
			Data:          p.Data,
			Status:        persistence.OutboxPending,
			NextAttemptAt: env.CreatedAt,
		},
	}, nil
}

// takeSnapshot persists a snapshot of the instance in a if its position has
// reached a multiple of the snapshot interval.
func (r *EventSourced) takeSnapshot(
	ctx context.Context,
	a *aggregate.VersionedAggregate,
) {
	s := a.SequenceNumber()

	if s == 0 || s%r.snapshotInterval() != 0 {
		return
	}

	err := func() error {
		p, err := r.Marshaler.Marshal(a.Root())
		if err != nil {
			return err
		}

		return r.DataStore.Persist(
			ctx,
			persistence.Batch{
				persistence.SaveSnapshot{
					Snapshot: persistence.Snapshot{
						AggregateID:    a.AggregateID(),
						AggregateType:  a.Root().AggregateType(),
						Version:        a.Version(),
						SequenceNumber: s,
						MediaType:      p.MediaType,
						Data:           p.Data,
					},
				},
			},
		)
	}()
	if err != nil {
		logging.Log(
			r.Logger,
			"snapshot of aggregate %s at version %d could not be taken: %s",
			a.AggregateID(),
			a.Version(),
			err,
		)
	}
}

// updateIndex applies the keyword associations declared by e to the inverted
// index.
func (r *EventSourced) updateIndex(
	ctx context.Context,
	id string,
	e aggregate.DomainEvent,
) {
	var batch persistence.Batch

	if a, ok := e.(aggregate.KeywordAdder); ok {
		for _, kw := range a.IndexKeywords() {
			batch = append(batch, persistence.SaveIndexEntry{
				Keyword:     kw,
				AggregateID: id,
			})
		}
	}

	if rm, ok := e.(aggregate.KeywordRemover); ok {
		for _, kw := range rm.DeindexKeywords() {
			batch = append(batch, persistence.RemoveIndexEntry{
				Keyword:     kw,
				AggregateID: id,
			})
		}
	}

	if len(batch) == 0 {
		return
	}

	if err := r.DataStore.Persist(ctx, batch); err != nil {
		logging.Log(
			r.Logger,
			"keyword index for aggregate %s could not be updated: %s",
			id,
			err,
		)
	}
}
