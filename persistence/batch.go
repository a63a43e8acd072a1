package persistence

import (
	"context"
	"fmt"
)

// Batch is a set of operations that are performed atomically.
type Batch []Operation

// MustValidate panics if the batch contains any operations that operate on
// the same entity.
func (b Batch) MustValidate() {
	seen := map[entityKey]struct{}{}

	for _, op := range b {
		k := op.entityKey()

		if _, ok := seen[k]; ok {
			panic(fmt.Sprintf(
				"batch contains multiple operations for the same entity (%s %s)",
				k[0],
				k[1],
			))
		}

		seen[k] = struct{}{}
	}
}

// AcceptVisitor visits each operation in the batch.
func (b Batch) AcceptVisitor(ctx context.Context, v OperationVisitor) error {
	for _, op := range b {
		if err := op.AcceptVisitor(ctx, v); err != nil {
			return err
		}
	}

	return nil
}
