package persistence

import "context"

// Operation is a persistence operation that can be performed as part of an
// atomic batch.
type Operation interface {
	// AcceptVisitor calls the visit method specific to this operation type.
	AcceptVisitor(ctx context.Context, v OperationVisitor) error

	// entityKey returns the key of the entity that the operation manipulates.
	entityKey() entityKey
}

// OperationVisitor visits persistence operations.
type OperationVisitor interface {
	VisitSaveAggregateMetaData(context.Context, SaveAggregateMetaData) error
	VisitSaveEvent(context.Context, SaveEvent) error
	VisitSaveSnapshot(context.Context, SaveSnapshot) error
	VisitSaveIndexEntry(context.Context, SaveIndexEntry) error
	VisitRemoveIndexEntry(context.Context, RemoveIndexEntry) error
	VisitSaveOutboxRecord(context.Context, SaveOutboxRecord) error
	VisitRemoveOutboxRecord(context.Context, RemoveOutboxRecord) error
}

// entityKey uniquely identifies the entity manipulated by an operation.
type entityKey [2]string
