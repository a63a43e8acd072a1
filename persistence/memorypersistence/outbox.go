package memorypersistence

import (
	"context"
	"sort"
	"time"

	"github.com/kiroku-io/kiroku/persistence"
)

// LoadOutboxRecords loads up to n unpublished outbox records, ordered by
// their next-attempt time.
func (ds *dataStore) LoadOutboxRecords(
	_ context.Context,
	n int,
) ([]persistence.OutboxRecord, error) {
	db, err := ds.database()
	if err != nil {
		return nil, err
	}

	db.mutex.RLock()
	defer db.mutex.RUnlock()

	records := db.outbox.unpublished()

	if len(records) > n {
		records = records[:n]
	}

	return records, nil
}

// ClaimOutboxRecords atomically transitions up to n due records to the
// publishing status and returns them.
func (ds *dataStore) ClaimOutboxRecords(
	_ context.Context,
	n int,
	lease time.Duration,
) ([]persistence.OutboxRecord, error) {
	db, err := ds.database()
	if err != nil {
		return nil, err
	}

	db.mutex.Lock()
	defer db.mutex.Unlock()

	now := time.Now()

	var claimed []persistence.OutboxRecord

	for _, rec := range db.outbox.unpublished() {
		if len(claimed) == n {
			break
		}

		if !rec.IsDue(now) {
			continue
		}

		rec = rec.Claimed(now.Add(lease))
		db.outbox.save(rec)

		rec.Revision++
		claimed = append(claimed, rec)
	}

	return claimed, nil
}

// VisitSaveOutboxRecord returns an error if a "SaveOutboxRecord" operation
// can not be applied to the database.
func (v *validator) VisitSaveOutboxRecord(
	_ context.Context,
	op persistence.SaveOutboxRecord,
) error {
	old := v.db.outbox.records[op.Record.MessageID]

	if op.Record.Revision == old.Revision {
		return nil
	}

	return persistence.ConflictError{
		Cause: op,
	}
}

// VisitRemoveOutboxRecord returns an error if a "RemoveOutboxRecord"
// operation can not be applied to the database.
func (v *validator) VisitRemoveOutboxRecord(
	_ context.Context,
	op persistence.RemoveOutboxRecord,
) error {
	old, ok := v.db.outbox.records[op.Record.MessageID]

	if ok && op.Record.Revision == old.Revision {
		return nil
	}

	return persistence.ConflictError{
		Cause: op,
	}
}

// VisitSaveOutboxRecord applies the changes in a "SaveOutboxRecord" operation
// to the database.
func (c *committer) VisitSaveOutboxRecord(
	_ context.Context,
	op persistence.SaveOutboxRecord,
) error {
	c.db.outbox.save(op.Record)
	return nil
}

// VisitRemoveOutboxRecord applies the changes in a "RemoveOutboxRecord"
// operation to the database.
func (c *committer) VisitRemoveOutboxRecord(
	_ context.Context,
	op persistence.RemoveOutboxRecord,
) error {
	delete(c.db.outbox.records, op.Record.MessageID)
	return nil
}

// outboxDatabase contains staged integration events awaiting publication.
type outboxDatabase struct {
	records map[string]persistence.OutboxRecord
}

// save stores rec in the database, incrementing its revision.
func (db *outboxDatabase) save(rec persistence.OutboxRecord) {
	if db.records == nil {
		db.records = map[string]persistence.OutboxRecord{}
	}

	rec.Revision++
	db.records[rec.MessageID] = rec
}

// unpublished returns all records that have not reached the published status,
// ordered by their next-attempt time.
func (db *outboxDatabase) unpublished() []persistence.OutboxRecord {
	var records []persistence.OutboxRecord

	for _, rec := range db.records {
		if rec.Status != persistence.OutboxPublished {
			records = append(records, rec)
		}
	}

	sort.Slice(
		records,
		func(i, j int) bool {
			if records[i].NextAttemptAt.Equal(records[j].NextAttemptAt) {
				return records[i].MessageID < records[j].MessageID
			}
			return records[i].NextAttemptAt.Before(records[j].NextAttemptAt)
		},
	)

	return records
}
