package outbox

import (
	"context"
	"time"

	"github.com/dogmatiq/dodeca/logging"
	"github.com/dogmatiq/linger"
	"github.com/dogmatiq/linger/backoff"
	"github.com/kiroku-io/kiroku/internal/mlog"
	"github.com/kiroku-io/kiroku/persistence"
	"github.com/kiroku-io/kiroku/retry"
)

const (
	// DefaultBatchSize is the default number of records claimed per polling
	// pass.
	DefaultBatchSize = 10

	// DefaultLeaseDuration is the default duration for which a claim on a
	// record remains exclusive.
	DefaultLeaseDuration = defaultLease

	// DefaultPollInterval is the default duration to wait before polling the
	// outbox again when no records are due.
	DefaultPollInterval = 1 * time.Second
)

// DefaultRetryPolicy is the policy used to schedule delivery retries when no
// other policy is given.
var DefaultRetryPolicy retry.Policy = retry.ExponentialBackoff{
	Min: 5 * time.Second,
	Max: 1 * time.Hour,
}

// Publisher claims due outbox records and delivers them via a transport.
//
// Multiple publishers may run against the same data store; the exclusivity of
// claims guarantees that no two publishers deliver the same record while its
// lease is intact.
type Publisher struct {
	// DataStore is the data store that contains the outbox.
	DataStore persistence.DataStore

	// Transport is used to deliver the integration events.
	Transport Transport

	// BatchSize is the number of records claimed per polling pass. If it is
	// zero, DefaultBatchSize is used.
	BatchSize int

	// LeaseDuration is the duration for which a claim on a record remains
	// exclusive. A record whose lease lapses without being marked published
	// or failed becomes claimable again. If it is zero, DefaultLeaseDuration
	// is used.
	LeaseDuration time.Duration

	// PollInterval is the duration to wait before polling the outbox again
	// when no records are due. If it is zero, DefaultPollInterval is used.
	PollInterval time.Duration

	// Policy determines when a failed delivery is next attempted. If it is
	// nil, DefaultRetryPolicy is used.
	Policy retry.Policy

	// RetainPublished controls whether records are kept after delivery.
	// If it is false, records are removed from the outbox once they are
	// published.
	RetainPublished bool

	// BackoffStrategy is the strategy used to delay restarting the publisher
	// after a persistence failure. If it is nil, backoff.DefaultStrategy is
	// used.
	BackoffStrategy backoff.Strategy

	// Logger is the target for log messages about the delivered events.
	// If it is nil, logging.DefaultLogger is used.
	Logger logging.Logger

	backoff backoff.Counter
}

// Run delivers staged records until ctx is canceled.
//
// Transport failures are absorbed into each record's retry schedule; only
// persistence failures interrupt delivery, and the publisher restarts after a
// backoff delay.
func (p *Publisher) Run(ctx context.Context) error {
	p.backoff = backoff.Counter{
		Strategy: p.BackoffStrategy,
	}

	for {
		err := p.tick(ctx)
		if err == nil {
			p.backoff.Reset()
			continue
		}

		if ctx.Err() != nil {
			return ctx.Err()
		}

		logging.LogString(
			p.Logger,
			err.Error(),
		)

		if err := p.backoff.Sleep(ctx, err); err != nil {
			return err
		}
	}
}

// tick performs a single polling pass.
//
// It claims a batch of due records and attempts to deliver each of them. If
// no records are due it waits for the poll interval to elapse.
func (p *Publisher) tick(ctx context.Context) error {
	recs, err := p.DataStore.ClaimOutboxRecords(
		ctx,
		p.batchSize(),
		p.leaseDuration(),
	)
	if err != nil {
		return err
	}

	if len(recs) == 0 {
		return linger.Sleep(ctx, p.PollInterval, DefaultPollInterval)
	}

	for _, rec := range recs {
		if err := p.deliver(ctx, rec); err != nil {
			return err
		}
	}

	return nil
}

// deliver attempts to deliver a single claimed record, then marks it
// published or failed accordingly.
func (p *Publisher) deliver(
	ctx context.Context,
	rec persistence.OutboxRecord,
) error {
	if err := p.Transport.Publish(ctx, rec); err != nil {
		return p.nack(ctx, rec, err)
	}

	return p.ack(ctx, rec)
}

// ack marks rec as published, or removes it from the outbox entirely if
// published records are not retained.
func (p *Publisher) ack(
	ctx context.Context,
	rec persistence.OutboxRecord,
) error {
	var op persistence.Operation = persistence.RemoveOutboxRecord{
		Record: rec,
	}

	if p.RetainPublished {
		op = persistence.SaveOutboxRecord{
			Record: rec.Published(),
		}
	}

	if err := p.DataStore.Persist(
		ctx,
		persistence.Batch{op},
	); err != nil {
		return err
	}

	mlog.LogPublish(p.Logger, rec)

	return nil
}

// nack reschedules rec after a failed delivery attempt.
func (p *Publisher) nack(
	ctx context.Context,
	rec persistence.OutboxRecord,
	cause error,
) error {
	now := time.Now()

	next := p.policy().NextRetry(
		now,
		int(rec.AttemptCount),
		[]error{cause},
	)

	if err := p.DataStore.Persist(
		ctx,
		persistence.Batch{
			persistence.SaveOutboxRecord{
				Record: rec.Failed(next),
			},
		},
	); err != nil {
		return err
	}

	mlog.LogNack(p.Logger, rec, cause, next.Sub(now))

	return nil
}

func (p *Publisher) batchSize() int {
	if p.BatchSize > 0 {
		return p.BatchSize
	}

	return DefaultBatchSize
}

func (p *Publisher) leaseDuration() time.Duration {
	return linger.MustCoalesce(p.LeaseDuration, DefaultLeaseDuration)
}

func (p *Publisher) policy() retry.Policy {
	if p.Policy != nil {
		return p.Policy
	}

	return DefaultRetryPolicy
}
