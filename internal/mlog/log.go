package mlog

import (
	"fmt"
	"time"

	"github.com/dogmatiq/dodeca/logging"
	"github.com/kiroku-io/kiroku/persistence"
)

// LogProduce logs a message indicating that a domain event has been recorded.
func LogProduce(
	log logging.Logger,
	env persistence.EventEnvelope,
) {
	logging.LogString(
		log,
		String(
			[]IconWithLabel{
				MessageIDIcon.WithID(env.EventID),
				CausationIDIcon.WithID(env.CausationID),
				CorrelationIDIcon.WithID(env.CorrelationID),
			},
			[]Icon{
				ProduceIcon,
				"",
			},
			env.EventType,
			fmt.Sprintf("%s@%d", env.AggregateID, env.SequenceNumber),
		),
	)
}

// LogConsume logs a message indicating that a domain event is being consumed
// by a processor.
func LogConsume(
	log logging.Logger,
	env persistence.EventEnvelope,
	fc uint,
) {
	logging.LogString(
		log,
		String(
			[]IconWithLabel{
				MessageIDIcon.WithID(env.EventID),
				CausationIDIcon.WithID(env.CausationID),
				CorrelationIDIcon.WithID(env.CorrelationID),
			},
			[]Icon{
				ConsumeIcon,
				retryIcon(fc),
			},
			env.EventType,
		),
	)
}

// LogPublish logs a message indicating that an outbox record is being
// published.
func LogPublish(
	log logging.Logger,
	rec persistence.OutboxRecord,
) {
	logging.LogString(
		log,
		String(
			[]IconWithLabel{
				MessageIDIcon.WithID(rec.MessageID),
				CausationIDIcon.WithID(rec.CausationID),
				CorrelationIDIcon.WithID(rec.CorrelationID),
			},
			[]Icon{
				ProduceIcon,
				retryIcon(rec.AttemptCount),
			},
			rec.EventType,
		),
	)
}

// LogNack logs a message indicating that an outbox record could not be
// published.
func LogNack(
	log logging.Logger,
	rec persistence.OutboxRecord,
	cause error,
	delay time.Duration,
) {
	logging.LogString(
		log,
		String(
			[]IconWithLabel{
				MessageIDIcon.WithID(rec.MessageID),
				CausationIDIcon.WithID(rec.CausationID),
				CorrelationIDIcon.WithID(rec.CorrelationID),
			},
			[]Icon{
				ProduceErrorIcon,
				ErrorIcon,
			},
			rec.EventType,
			cause.Error(),
			fmt.Sprintf("next attempt in %s", delay),
		),
	)
}

// LogLoadFailure logs a message indicating that an aggregate instance could
// not be loaded during a keyword query.
func LogLoadFailure(
	log logging.Logger,
	id string,
	cause error,
) {
	logging.LogString(
		log,
		String(
			[]IconWithLabel{
				AggregateIcon.WithLabel(id),
			},
			[]Icon{
				ConsumeErrorIcon,
				ErrorIcon,
			},
			cause.Error(),
		),
	)
}

// retryIcon returns the icon to use in place of the retry icon, based on the
// failure count.
func retryIcon(fc uint) Icon {
	if fc == 0 {
		return ""
	}

	return RetryIcon
}
