package persistence

import (
	"context"
	"time"
)

// OutboxStatus is the delivery status of an outbox record.
type OutboxStatus string

const (
	// OutboxPending indicates that the record has been staged but no delivery
	// attempt is in progress.
	OutboxPending OutboxStatus = "pending"

	// OutboxPublishing indicates that a publisher has claimed the record and
	// is attempting delivery.
	OutboxPublishing OutboxStatus = "publishing"

	// OutboxFailed indicates that the most recent delivery attempt failed and
	// the record is awaiting its next attempt.
	OutboxFailed OutboxStatus = "failed"

	// OutboxPublished indicates that the record has been delivered. This is a
	// terminal status.
	OutboxPublished OutboxStatus = "published"
)

// outboxTransitions is the set of legal status transitions.
var outboxTransitions = map[OutboxStatus]map[OutboxStatus]struct{}{
	OutboxPending: {
		OutboxPublishing: {},
	},
	OutboxPublishing: {
		OutboxPublished: {},
		OutboxFailed:    {},
	},
	OutboxFailed: {
		OutboxPublishing: {},
	},
	OutboxPublished: {},
}

// CanTransitionTo returns true if a record may move from s to next.
func (s OutboxStatus) CanTransitionTo(next OutboxStatus) bool {
	_, ok := outboxTransitions[s][next]
	return ok
}

// OutboxRecord is an integration event staged for publication to an external
// system.
//
// Records are staged in the same batch as the domain event that produced
// them, guaranteeing at-least-once delivery despite publisher crashes.
type OutboxRecord struct {
	// MessageID is the unique identifier of the integration event.
	MessageID string

	// AggregateID is the ID of the aggregate instance that produced the
	// event.
	AggregateID string

	// AggregateType is the name of the aggregate type.
	AggregateType string

	// EventType is the portable name used to route the event to decoders and
	// handlers.
	EventType string

	// CausationID is the ID of the domain event that produced this record.
	CausationID string

	// CorrelationID is the ID of the root message that caused this record.
	CorrelationID string

	// CreatedAt is the time at which the record was staged.
	CreatedAt time.Time

	// MediaType names the encoding of Data and the portable name of the
	// payload type within it.
	MediaType string

	// Data is the opaque serialized event payload.
	Data []byte

	// Status is the record's delivery status.
	Status OutboxStatus

	// AttemptCount is the number of failed delivery attempts so far.
	AttemptCount uint

	// NextAttemptAt is the earliest time at which the record may next be
	// claimed. It is meaningful for pending and failed records.
	NextAttemptAt time.Time

	// LeaseExpiresAt is the time at which a publishing claim lapses. A record
	// stuck in the publishing status beyond its lease is retryable, never
	// assumed delivered.
	LeaseExpiresAt time.Time

	// Revision is the record's revision, used to enforce optimistic
	// concurrency control. It is zero if the record has never been persisted.
	Revision uint64
}

// ID returns the ID of the integration event.
func (r *OutboxRecord) ID() string {
	return r.MessageID
}

// IsDue returns true if the record is eligible to be claimed at time t.
func (r *OutboxRecord) IsDue(t time.Time) bool {
	switch r.Status {
	case OutboxPending, OutboxFailed:
		return !r.NextAttemptAt.After(t)
	case OutboxPublishing:
		// A lapsed lease means the publisher crashed between claiming and
		// marking; the record must become claimable again.
		return !r.LeaseExpiresAt.After(t)
	default:
		return false
	}
}

// Claimed returns a copy of the record transitioned to the publishing status,
// holding a lease that expires at the given time.
func (r OutboxRecord) Claimed(leaseExpiresAt time.Time) OutboxRecord {
	r.Status = OutboxPublishing
	r.LeaseExpiresAt = leaseExpiresAt
	return r
}

// Published returns a copy of the record transitioned to the published
// status.
func (r OutboxRecord) Published() OutboxRecord {
	r.Status = OutboxPublished
	return r
}

// Failed returns a copy of the record transitioned to the failed status, due
// for another attempt at the given time.
func (r OutboxRecord) Failed(nextAttemptAt time.Time) OutboxRecord {
	r.Status = OutboxFailed
	r.AttemptCount++
	r.NextAttemptAt = nextAttemptAt
	return r
}

// OutboxRepository is an interface for reading and claiming outbox records.
type OutboxRepository interface {
	// LoadOutboxRecords loads up to n unpublished records, ordered by their
	// next-attempt time.
	LoadOutboxRecords(ctx context.Context, n int) ([]OutboxRecord, error)

	// ClaimOutboxRecords atomically transitions up to n due records to the
	// publishing status and returns them.
	//
	// The claim is exclusive: no two concurrent callers can claim the same
	// record. Each returned record holds a lease that expires after the given
	// duration; a record whose lease lapses without being marked published or
	// failed becomes claimable again.
	ClaimOutboxRecords(
		ctx context.Context,
		n int,
		lease time.Duration,
	) ([]OutboxRecord, error)
}

// SaveOutboxRecord is a persistence operation that creates or updates an
// outbox record.
type SaveOutboxRecord struct {
	// Record is the record to persist.
	//
	// Record.Revision must be the revision of the record as currently
	// persisted, otherwise an optimistic concurrency conflict occurs and the
	// entire batch of operations is rejected.
	//
	// Status changes are produced via the record's transition methods; the
	// revision check is what prevents conflicting transitions from being
	// persisted.
	Record OutboxRecord
}

// AcceptVisitor calls v.VisitSaveOutboxRecord().
func (op SaveOutboxRecord) AcceptVisitor(ctx context.Context, v OperationVisitor) error {
	return v.VisitSaveOutboxRecord(ctx, op)
}

func (op SaveOutboxRecord) entityKey() entityKey {
	return entityKey{"outbox", op.Record.MessageID}
}

// RemoveOutboxRecord is a persistence operation that removes a published
// record from the outbox.
type RemoveOutboxRecord struct {
	// Record is the record to remove.
	//
	// Record.Revision must be the revision of the record as currently
	// persisted, otherwise an optimistic concurrency conflict occurs and the
	// entire batch of operations is rejected.
	Record OutboxRecord
}

// AcceptVisitor calls v.VisitRemoveOutboxRecord().
func (op RemoveOutboxRecord) AcceptVisitor(ctx context.Context, v OperationVisitor) error {
	return v.VisitRemoveOutboxRecord(ctx, op)
}

func (op RemoveOutboxRecord) entityKey() entityKey {
	return entityKey{"outbox", op.Record.MessageID}
}
