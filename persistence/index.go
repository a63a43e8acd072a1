package persistence

import (
	"context"
)

// InvertedIndexRepository is an interface for querying the keyword index used
// to discover aggregate instances without scanning the event log.
type InvertedIndexRepository interface {
	// LoadAggregateIDs returns the IDs of the aggregate instances associated
	// with the given keyword.
	//
	// The result is unordered. An unknown keyword yields an empty result.
	LoadAggregateIDs(
		ctx context.Context,
		keyword string,
	) ([]string, error)
}

// SaveIndexEntry is a persistence operation that associates an aggregate
// instance with a keyword in the inverted index.
//
// The operation is idempotent; adding an association that already exists is a
// no-op success.
type SaveIndexEntry struct {
	// Keyword is the keyword under which the instance is discoverable.
	Keyword string

	// AggregateID is the aggregate instance ID.
	AggregateID string
}

// AcceptVisitor calls v.VisitSaveIndexEntry().
func (op SaveIndexEntry) AcceptVisitor(ctx context.Context, v OperationVisitor) error {
	return v.VisitSaveIndexEntry(ctx, op)
}

func (op SaveIndexEntry) entityKey() entityKey {
	return entityKey{"index", op.Keyword + " " + op.AggregateID}
}

// RemoveIndexEntry is a persistence operation that dissociates an aggregate
// instance from a keyword in the inverted index.
//
// The operation is idempotent; removing an association that does not exist is
// a no-op success.
type RemoveIndexEntry struct {
	// Keyword is the keyword to dissociate.
	Keyword string

	// AggregateID is the aggregate instance ID.
	AggregateID string
}

// AcceptVisitor calls v.VisitRemoveIndexEntry().
func (op RemoveIndexEntry) AcceptVisitor(ctx context.Context, v OperationVisitor) error {
	return v.VisitRemoveIndexEntry(ctx, op)
}

func (op RemoveIndexEntry) entityKey() entityKey {
	return entityKey{"index", op.Keyword + " " + op.AggregateID}
}
