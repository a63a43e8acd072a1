package persistence

import (
	"context"

	"github.com/kiroku-io/kiroku/aggregate"
)

// AggregateMetaData contains meta-data about an aggregate instance.
type AggregateMetaData struct {
	// AggregateID is the aggregate instance ID.
	AggregateID string

	// AggregateType is the name of the aggregate type.
	AggregateType string

	// Revision is the instance's current version, used to enforce optimistic
	// concurrency control.
	Revision aggregate.Version

	// InstanceExists is true if any events have been recorded against the
	// instance. It distinguishes a new aggregate from one that is genuinely
	// not found.
	InstanceExists bool
}

// AggregateRepository is an interface for reading aggregate meta-data.
type AggregateRepository interface {
	// LoadAggregateMetaData loads the meta-data for an aggregate instance.
	//
	// If the instance is unknown it returns meta-data at revision zero with
	// InstanceExists set to false.
	LoadAggregateMetaData(
		ctx context.Context,
		id string,
	) (AggregateMetaData, error)
}

// SaveAggregateMetaData is a persistence operation that creates or updates
// meta-data about an aggregate instance.
type SaveAggregateMetaData struct {
	// MetaData is the meta-data to persist.
	//
	// MetaData.Revision must be the revision of the instance as currently
	// persisted, otherwise an optimistic concurrency conflict occurs and the
	// entire batch of operations is rejected.
	MetaData AggregateMetaData
}

// AcceptVisitor calls v.VisitSaveAggregateMetaData().
func (op SaveAggregateMetaData) AcceptVisitor(ctx context.Context, v OperationVisitor) error {
	return v.VisitSaveAggregateMetaData(ctx, op)
}

func (op SaveAggregateMetaData) entityKey() entityKey {
	return entityKey{"aggregate", op.MetaData.AggregateID}
}
