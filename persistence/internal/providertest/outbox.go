package providertest

import (
	"sync"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/kiroku-io/kiroku/fixtures"
	"github.com/kiroku-io/kiroku/persistence"
	"github.com/onsi/ginkgo"
	"github.com/onsi/gomega"
)

// declareOutboxOperationTests declares a functional test-suite for
// persistence operations related to the outbox.
func declareOutboxOperationTests(tc *TestContext) {
	ginkgo.Context("outbox operations", func() {
		var (
			dataStore persistence.DataStore
			tearDown  func()

			record persistence.OutboxRecord
		)

		ginkgo.BeforeEach(func() {
			dataStore, tearDown = tc.SetupDataStore()

			record = fixtures.NewOutboxRecord(
				"<message>",
				fixtures.AccountOpenedNotice{
					ID:        "<message>",
					AccountID: "<aggregate>",
					Owner:     "ayaka",
				},
				time.Now().Add(-1*time.Second),
			)
		})

		ginkgo.AfterEach(func() {
			tearDown()
		})

		ginkgo.Describe("type persistence.SaveOutboxRecord", func() {
			ginkgo.When("the record does not exist", func() {
				ginkgo.It("saves the record with a revision of 1", func() {
					persist(
						tc.Context,
						dataStore,
						persistence.SaveOutboxRecord{Record: record},
					)

					records := loadOutboxRecords(tc.Context, dataStore, 10)
					gomega.Expect(records).To(gomega.HaveLen(1))
					gomega.Expect(records[0].Revision).To(gomega.BeEquivalentTo(1))
				})

				ginkgo.It("saves the record verbatim", func() {
					persist(
						tc.Context,
						dataStore,
						persistence.SaveOutboxRecord{Record: record},
					)

					records := loadOutboxRecords(tc.Context, dataStore, 10)
					gomega.Expect(records).To(gomega.HaveLen(1))

					want := record
					want.Revision = 1
					gomega.Expect(cmp.Diff(want, records[0])).To(gomega.BeEmpty())
				})

				ginkgo.It("does not save the record when an OCC conflict occurs", func() {
					record.Revision = 123

					op := persistence.SaveOutboxRecord{Record: record}

					err := dataStore.Persist(
						tc.Context,
						persistence.Batch{op},
					)
					gomega.Expect(err).To(gomega.Equal(
						persistence.ConflictError{
							Cause: op,
						},
					))

					records := loadOutboxRecords(tc.Context, dataStore, 10)
					gomega.Expect(records).To(gomega.BeEmpty())
				})
			})

			ginkgo.When("the record exists", func() {
				ginkgo.BeforeEach(func() {
					persist(
						tc.Context,
						dataStore,
						persistence.SaveOutboxRecord{Record: record},
					)
					record.Revision = 1
				})

				ginkgo.It("increments the revision on each update", func() {
					updated := record.Claimed(time.Now().Add(5 * time.Minute))

					persist(
						tc.Context,
						dataStore,
						persistence.SaveOutboxRecord{Record: updated},
					)

					records := loadOutboxRecords(tc.Context, dataStore, 10)
					gomega.Expect(records).To(gomega.HaveLen(1))
					gomega.Expect(records[0].Revision).To(gomega.BeEquivalentTo(2))
					gomega.Expect(records[0].Status).To(gomega.Equal(persistence.OutboxPublishing))
				})

				ginkgo.It("does not save the record when an OCC conflict occurs", func() {
					stale := record
					stale.Revision = 0

					op := persistence.SaveOutboxRecord{
						Record: stale.Claimed(time.Now()),
					}

					err := dataStore.Persist(
						tc.Context,
						persistence.Batch{op},
					)
					gomega.Expect(err).To(gomega.Equal(
						persistence.ConflictError{
							Cause: op,
						},
					))

					records := loadOutboxRecords(tc.Context, dataStore, 10)
					gomega.Expect(records).To(gomega.HaveLen(1))
					gomega.Expect(records[0].Status).To(gomega.Equal(persistence.OutboxPending))
				})

				ginkgo.It("excludes published records from subsequent loads", func() {
					published := record.
						Claimed(time.Now()).
						Published()

					persist(
						tc.Context,
						dataStore,
						persistence.SaveOutboxRecord{Record: published},
					)

					records := loadOutboxRecords(tc.Context, dataStore, 10)
					gomega.Expect(records).To(gomega.BeEmpty())
				})
			})
		})

		ginkgo.Describe("type persistence.RemoveOutboxRecord", func() {
			ginkgo.BeforeEach(func() {
				persist(
					tc.Context,
					dataStore,
					persistence.SaveOutboxRecord{Record: record},
				)
				record.Revision = 1
			})

			ginkgo.It("removes the record", func() {
				persist(
					tc.Context,
					dataStore,
					persistence.RemoveOutboxRecord{Record: record},
				)

				records := loadOutboxRecords(tc.Context, dataStore, 10)
				gomega.Expect(records).To(gomega.BeEmpty())
			})

			ginkgo.It("does not remove the record when an OCC conflict occurs", func() {
				stale := record
				stale.Revision = 123

				op := persistence.RemoveOutboxRecord{Record: stale}

				err := dataStore.Persist(
					tc.Context,
					persistence.Batch{op},
				)
				gomega.Expect(err).To(gomega.Equal(
					persistence.ConflictError{
						Cause: op,
					},
				))

				records := loadOutboxRecords(tc.Context, dataStore, 10)
				gomega.Expect(records).To(gomega.HaveLen(1))
			})

			ginkgo.It("returns an OCC conflict for an unknown record", func() {
				unknown := fixtures.NewOutboxRecord(
					"<unknown>",
					fixtures.AccountOpenedNotice{ID: "<unknown>"},
					time.Now(),
				)
				unknown.Revision = 1

				op := persistence.RemoveOutboxRecord{Record: unknown}

				err := dataStore.Persist(
					tc.Context,
					persistence.Batch{op},
				)
				gomega.Expect(err).To(gomega.Equal(
					persistence.ConflictError{
						Cause: op,
					},
				))
			})
		})

		ginkgo.Describe("type persistence.OutboxRepository (interface)", func() {
			ginkgo.Describe("func LoadOutboxRecords()", func() {
				ginkgo.It("returns unpublished records in order of their next attempt time", func() {
					now := time.Now()

					later := fixtures.NewOutboxRecord(
						"<message-later>",
						fixtures.AccountOpenedNotice{ID: "<message-later>"},
						now.Add(1*time.Hour),
					)
					sooner := fixtures.NewOutboxRecord(
						"<message-sooner>",
						fixtures.AccountOpenedNotice{ID: "<message-sooner>"},
						now.Add(1*time.Minute),
					)

					persist(
						tc.Context,
						dataStore,
						persistence.SaveOutboxRecord{Record: record},
						persistence.SaveOutboxRecord{Record: later},
						persistence.SaveOutboxRecord{Record: sooner},
					)

					records := loadOutboxRecords(tc.Context, dataStore, 10)
					gomega.Expect(records).To(gomega.HaveLen(3))
					gomega.Expect(records[0].MessageID).To(gomega.Equal("<message>"))
					gomega.Expect(records[1].MessageID).To(gomega.Equal("<message-sooner>"))
					gomega.Expect(records[2].MessageID).To(gomega.Equal("<message-later>"))
				})

				ginkgo.It("limits the result to the requested number of records", func() {
					other := fixtures.NewOutboxRecord(
						"<message-2>",
						fixtures.AccountOpenedNotice{ID: "<message-2>"},
						time.Now().Add(1*time.Hour),
					)

					persist(
						tc.Context,
						dataStore,
						persistence.SaveOutboxRecord{Record: record},
						persistence.SaveOutboxRecord{Record: other},
					)

					records := loadOutboxRecords(tc.Context, dataStore, 1)
					gomega.Expect(records).To(gomega.HaveLen(1))
					gomega.Expect(records[0].MessageID).To(gomega.Equal("<message>"))
				})
			})

			ginkgo.Describe("func ClaimOutboxRecords()", func() {
				ginkgo.BeforeEach(func() {
					persist(
						tc.Context,
						dataStore,
						persistence.SaveOutboxRecord{Record: record},
					)
					record.Revision = 1
				})

				ginkgo.It("claims due records, transitioning them to the publishing status", func() {
					claimed, err := dataStore.ClaimOutboxRecords(tc.Context, 10, 5*time.Minute)
					gomega.Expect(err).ShouldNot(gomega.HaveOccurred())

					gomega.Expect(claimed).To(gomega.HaveLen(1))
					gomega.Expect(claimed[0].MessageID).To(gomega.Equal("<message>"))
					gomega.Expect(claimed[0].Status).To(gomega.Equal(persistence.OutboxPublishing))

					records := loadOutboxRecords(tc.Context, dataStore, 10)
					gomega.Expect(records).To(gomega.HaveLen(1))
					gomega.Expect(records[0].Status).To(gomega.Equal(persistence.OutboxPublishing))
				})

				ginkgo.It("does not claim records that are not yet due", func() {
					future := fixtures.NewOutboxRecord(
						"<message-future>",
						fixtures.AccountOpenedNotice{ID: "<message-future>"},
						time.Now().Add(1*time.Hour),
					)

					persist(
						tc.Context,
						dataStore,
						persistence.SaveOutboxRecord{Record: future},
					)

					claimed, err := dataStore.ClaimOutboxRecords(tc.Context, 10, 5*time.Minute)
					gomega.Expect(err).ShouldNot(gomega.HaveOccurred())

					gomega.Expect(claimed).To(gomega.HaveLen(1))
					gomega.Expect(claimed[0].MessageID).To(gomega.Equal("<message>"))
				})

				ginkgo.It("does not claim a record that is already claimed", func() {
					_, err := dataStore.ClaimOutboxRecords(tc.Context, 10, 5*time.Minute)
					gomega.Expect(err).ShouldNot(gomega.HaveOccurred())

					claimed, err := dataStore.ClaimOutboxRecords(tc.Context, 10, 5*time.Minute)
					gomega.Expect(err).ShouldNot(gomega.HaveOccurred())
					gomega.Expect(claimed).To(gomega.BeEmpty())
				})

				ginkgo.It("reclaims a record whose lease has lapsed", func() {
					_, err := dataStore.ClaimOutboxRecords(tc.Context, 10, 0)
					gomega.Expect(err).ShouldNot(gomega.HaveOccurred())

					claimed, err := dataStore.ClaimOutboxRecords(tc.Context, 10, 5*time.Minute)
					gomega.Expect(err).ShouldNot(gomega.HaveOccurred())

					gomega.Expect(claimed).To(gomega.HaveLen(1))
					gomega.Expect(claimed[0].MessageID).To(gomega.Equal("<message>"))
				})

				ginkgo.It("does not claim a failed record before its next attempt time", func() {
					claimed, err := dataStore.ClaimOutboxRecords(tc.Context, 10, 5*time.Minute)
					gomega.Expect(err).ShouldNot(gomega.HaveOccurred())
					gomega.Expect(claimed).To(gomega.HaveLen(1))

					failed := claimed[0].Failed(time.Now().Add(1 * time.Hour))
					persist(
						tc.Context,
						dataStore,
						persistence.SaveOutboxRecord{Record: failed},
					)

					claimed, err = dataStore.ClaimOutboxRecords(tc.Context, 10, 5*time.Minute)
					gomega.Expect(err).ShouldNot(gomega.HaveOccurred())
					gomega.Expect(claimed).To(gomega.BeEmpty())
				})

				ginkgo.It("never allows concurrent claims of the same record", func() {
					var (
						g       sync.WaitGroup
						m       sync.Mutex
						claimed []persistence.OutboxRecord
					)

					fn := func() {
						defer ginkgo.GinkgoRecover()
						defer g.Done()

						records, err := dataStore.ClaimOutboxRecords(tc.Context, 10, 5*time.Minute)
						gomega.Expect(err).ShouldNot(gomega.HaveOccurred())

						m.Lock()
						claimed = append(claimed, records...)
						m.Unlock()
					}

					g.Add(3)
					go fn()
					go fn()
					go fn()
					g.Wait()

					gomega.Expect(claimed).To(gomega.HaveLen(1))
				})
			})
		})
	})
}
