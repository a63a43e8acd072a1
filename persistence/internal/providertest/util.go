package providertest

import (
	"context"

	"github.com/kiroku-io/kiroku/aggregate"
	"github.com/kiroku-io/kiroku/persistence"
	"github.com/onsi/gomega"
)

// persist persists a batch of operations and asserts that there was no
// failure.
func persist(
	ctx context.Context,
	p persistence.Persister,
	batch ...persistence.Operation,
) {
	err := p.Persist(ctx, batch)
	gomega.Expect(err).ShouldNot(gomega.HaveOccurred())
}

// loadAggregateMetaData loads the meta-data for a specific aggregate
// instance.
func loadAggregateMetaData(
	ctx context.Context,
	r persistence.AggregateRepository,
	id string,
) persistence.AggregateMetaData {
	md, err := r.LoadAggregateMetaData(ctx, id)
	gomega.Expect(err).ShouldNot(gomega.HaveOccurred())

	return md
}

// loadSnapshot loads the snapshot of a specific aggregate instance.
func loadSnapshot(
	ctx context.Context,
	r persistence.SnapshotRepository,
	id string,
) (persistence.Snapshot, bool) {
	ss, ok, err := r.LoadSnapshot(ctx, id)
	gomega.Expect(err).ShouldNot(gomega.HaveOccurred())

	return ss, ok
}

// loadEventsBySource drains the event result for a specific aggregate
// instance into a slice.
func loadEventsBySource(
	ctx context.Context,
	r persistence.EventRepository,
	id string,
	after aggregate.SequenceNumber,
) []persistence.EventEnvelope {
	res, err := r.LoadEventsBySource(ctx, id, after)
	gomega.Expect(err).ShouldNot(gomega.HaveOccurred())
	defer res.Close()

	var envelopes []persistence.EventEnvelope

	for {
		env, ok, err := res.Next(ctx)
		gomega.Expect(err).ShouldNot(gomega.HaveOccurred())

		if !ok {
			return envelopes
		}

		envelopes = append(envelopes, *env)
	}
}

// loadOutboxRecords loads up to n unpublished outbox records.
func loadOutboxRecords(
	ctx context.Context,
	r persistence.OutboxRepository,
	n int,
) []persistence.OutboxRecord {
	records, err := r.LoadOutboxRecords(ctx, n)
	gomega.Expect(err).ShouldNot(gomega.HaveOccurred())

	return records
}

// loadAggregateIDs loads the IDs of the aggregate instances associated with a
// keyword.
func loadAggregateIDs(
	ctx context.Context,
	r persistence.InvertedIndexRepository,
	keyword string,
) []string {
	ids, err := r.LoadAggregateIDs(ctx, keyword)
	gomega.Expect(err).ShouldNot(gomega.HaveOccurred())

	return ids
}
