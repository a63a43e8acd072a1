package repository

import (
	"context"
	"errors"
	"time"

	"github.com/dogmatiq/dodeca/logging"
	"github.com/kiroku-io/kiroku/aggregate"
	"github.com/kiroku-io/kiroku/persistence"
	"github.com/kiroku-io/kiroku/retry"
)

// DefaultMaxAttempts is the default number of times a CommandExecutor
// attempts a command before giving up.
const DefaultMaxAttempts = 3

// CommandExecutor executes commands against an event-sourced repository,
// transparently retrying optimistic concurrency conflicts.
//
// A conflict means the instance was modified by another writer between the
// load and the save; the retry re-reads the instance so the command is
// validated against its latest state. Any other failure is returned
// immediately.
type CommandExecutor struct {
	// Repository is the repository used to execute commands.
	Repository *EventSourced

	// MaxAttempts is the number of times a command is attempted before its
	// conflict is returned to the caller. If it is zero, DefaultMaxAttempts
	// is used.
	MaxAttempts int

	// Policy determines how long to wait between attempts. If it is nil,
	// DefaultRetryPolicy is used.
	Policy retry.Policy

	// Logger is the target for log messages about retried commands.
	// If it is nil, logging.DefaultLogger is used.
	Logger logging.Logger
}

// DefaultRetryPolicy is the retry policy used by a CommandExecutor when no
// other policy is given.
var DefaultRetryPolicy retry.Policy = retry.ExponentialBackoff{
	Min: 5 * time.Millisecond,
	Max: 1 * time.Second,
}

// Execute executes c, retrying if it conflicts with a concurrent writer.
func (e *CommandExecutor) Execute(
	ctx context.Context,
	c aggregate.Command,
) (*aggregate.VersionedAggregate, error) {
	attempts := 0

	for {
		inst, err := e.Repository.Execute(ctx, c)
		if err == nil {
			return inst, nil
		}

		if !errors.As(err, &persistence.ConflictError{}) {
			return nil, err
		}

		attempts++
		if attempts >= e.maxAttempts() {
			return nil, err
		}

		logging.Debug(
			e.Logger,
			"retrying %s command for aggregate %s after conflict",
			c.MessageName(),
			c.AggregateID(),
		)

		if err := retry.Sleep(ctx, e.policy(), attempts-1, err); err != nil {
			return nil, err
		}
	}
}

func (e *CommandExecutor) maxAttempts() int {
	if e.MaxAttempts > 0 {
		return e.MaxAttempts
	}

	return DefaultMaxAttempts
}

func (e *CommandExecutor) policy() retry.Policy {
	if e.Policy != nil {
		return e.Policy
	}

	return DefaultRetryPolicy
}
