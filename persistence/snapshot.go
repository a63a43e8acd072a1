package persistence

import (
	"context"

	"github.com/kiroku-io/kiroku/aggregate"
)

// Snapshot is a checkpoint of an aggregate instance's state at a specific
// version, used to bound the cost of replaying the instance's history.
//
// Snapshots are purely an optimization; correctness never depends on their
// presence.
type Snapshot struct {
	// AggregateID is the aggregate instance ID.
	AggregateID string

	// AggregateType is the name of the aggregate type.
	AggregateType string

	// Version is the instance's version at the time the snapshot was taken.
	Version aggregate.Version

	// SequenceNumber is the sequence number of the last event folded into the
	// snapshot. Replay resumes from the event after this one.
	SequenceNumber aggregate.SequenceNumber

	// MediaType names the encoding of Data and the portable name of the
	// aggregate state type within it.
	MediaType string

	// Data is the opaque serialized aggregate state.
	Data []byte
}

// SnapshotRepository is an interface for reading aggregate snapshots.
type SnapshotRepository interface {
	// LoadSnapshot loads the most recent snapshot for an aggregate instance.
	//
	// If no snapshot has been taken, ok is false.
	LoadSnapshot(
		ctx context.Context,
		id string,
	) (_ Snapshot, ok bool, _ error)
}

// SaveSnapshot is a persistence operation that creates or updates the
// snapshot of an aggregate instance.
//
// Snapshots are upserted; a snapshot at a later version supersedes any
// existing snapshot. There is no concurrency check, as snapshot writes are
// best-effort.
type SaveSnapshot struct {
	// Snapshot is the snapshot to persist.
	Snapshot Snapshot
}

// AcceptVisitor calls v.VisitSaveSnapshot().
func (op SaveSnapshot) AcceptVisitor(ctx context.Context, v OperationVisitor) error {
	return v.VisitSaveSnapshot(ctx, op)
}

func (op SaveSnapshot) entityKey() entityKey {
	return entityKey{"snapshot", op.Snapshot.AggregateID}
}
