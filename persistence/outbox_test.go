package persistence_test

import (
	"time"

	. "github.com/kiroku-io/kiroku/persistence"
	. "github.com/onsi/ginkgo"
	"github.com/onsi/ginkgo/extensions/table"
	. "github.com/onsi/gomega"
)

var _ = Describe("type OutboxStatus", func() {
	Describe("func CanTransitionTo()", func() {
		table.DescribeTable(
			"it allows only the legal transitions",
			func(from, to OutboxStatus, expect bool) {
				Expect(from.CanTransitionTo(to)).To(Equal(expect))
			},
			table.Entry("pending to publishing", OutboxPending, OutboxPublishing, true),
			table.Entry("pending to published", OutboxPending, OutboxPublished, false),
			table.Entry("pending to failed", OutboxPending, OutboxFailed, false),
			table.Entry("publishing to published", OutboxPublishing, OutboxPublished, true),
			table.Entry("publishing to failed", OutboxPublishing, OutboxFailed, true),
			table.Entry("publishing to pending", OutboxPublishing, OutboxPending, false),
			table.Entry("failed to publishing", OutboxFailed, OutboxPublishing, true),
			table.Entry("failed to published", OutboxFailed, OutboxPublished, false),
			table.Entry("published to publishing", OutboxPublished, OutboxPublishing, false),
			table.Entry("published to pending", OutboxPublished, OutboxPending, false),
		)
	})
})

var _ = Describe("type OutboxRecord", func() {
	var (
		now    time.Time
		record OutboxRecord
	)

	BeforeEach(func() {
		now = time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

		record = OutboxRecord{
			MessageID:     "<message>",
			AggregateID:   "<aggregate>",
			Status:        OutboxPending,
			NextAttemptAt: now,
		}
	})

	Describe("func IsDue()", func() {
		It("returns true for a pending record whose next attempt time has passed", func() {
			Expect(record.IsDue(now)).To(BeTrue())
		})

		It("returns false for a pending record whose next attempt time is in the future", func() {
			record.NextAttemptAt = now.Add(1 * time.Second)
			Expect(record.IsDue(now)).To(BeFalse())
		})

		It("returns false for a record with an unexpired lease", func() {
			record = record.Claimed(now.Add(5 * time.Minute))
			Expect(record.IsDue(now)).To(BeFalse())
		})

		It("returns true for a record with a lapsed lease", func() {
			record = record.Claimed(now.Add(5 * time.Minute))
			Expect(record.IsDue(now.Add(5 * time.Minute))).To(BeTrue())
		})

		It("returns false for a published record", func() {
			record = record.Claimed(now.Add(5 * time.Minute)).Published()
			Expect(record.IsDue(now.Add(1 * time.Hour))).To(BeFalse())
		})
	})

	Describe("func Claimed()", func() {
		It("transitions the record to the publishing status with a lease", func() {
			expires := now.Add(5 * time.Minute)
			claimed := record.Claimed(expires)

			Expect(claimed.Status).To(Equal(OutboxPublishing))
			Expect(claimed.LeaseExpiresAt).To(BeTemporally("==", expires))
		})

		It("does not modify the original record", func() {
			record.Claimed(now.Add(5 * time.Minute))
			Expect(record.Status).To(Equal(OutboxPending))
		})
	})

	Describe("func Published()", func() {
		It("transitions the record to the published status", func() {
			published := record.Claimed(now).Published()
			Expect(published.Status).To(Equal(OutboxPublished))
		})
	})

	Describe("func Failed()", func() {
		It("transitions the record to the failed status and schedules the next attempt", func() {
			next := now.Add(30 * time.Second)
			failed := record.Claimed(now).Failed(next)

			Expect(failed.Status).To(Equal(OutboxFailed))
			Expect(failed.AttemptCount).To(BeEquivalentTo(1))
			Expect(failed.NextAttemptAt).To(BeTemporally("==", next))
		})

		It("accumulates the attempt count across failures", func() {
			failed := record.
				Claimed(now).
				Failed(now).
				Claimed(now).
				Failed(now)

			Expect(failed.AttemptCount).To(BeEquivalentTo(2))
		})
	})
})
