package persistence

import (
	"context"
	"fmt"
)

// Persister is an interface for committing batches of atomic operations to
// the data store.
type Persister interface {
	// Persist performs the given batch of operations atomically.
	//
	// If any operation fails an optimistic concurrency check, it returns a
	// ConflictError and no operation in the batch takes effect.
	Persist(ctx context.Context, b Batch) error
}

// ConflictError is an error indicating that an optimistic concurrency
// conflict occurred while performing one of the operations in a batch.
type ConflictError struct {
	// Cause is the operation that failed the concurrency check.
	Cause Operation
}

func (e ConflictError) Error() string {
	return fmt.Sprintf(
		"optimistic concurrency conflict in %T operation",
		e.Cause,
	)
}
