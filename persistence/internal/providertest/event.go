package providertest

import (
	"github.com/google/go-cmp/cmp"
	"github.com/kiroku-io/kiroku/fixtures"
	"github.com/kiroku-io/kiroku/id"
	"github.com/kiroku-io/kiroku/persistence"
	"github.com/onsi/ginkgo"
	"github.com/onsi/gomega"
)

// declareEventOperationTests declares a functional test-suite for persistence
// operations related to the event log.
func declareEventOperationTests(tc *TestContext) {
	ginkgo.Context("event operations", func() {
		var (
			dataStore persistence.DataStore
			tearDown  func()

			env1, env2, env3, other persistence.EventEnvelope
		)

		ginkgo.BeforeEach(func() {
			dataStore, tearDown = tc.SetupDataStore()

			env1 = fixtures.NewEnvelope(
				"",
				fixtures.AccountOpened{
					ID:        id.NewEventID(),
					AccountID: "<aggregate>",
					Owner:     "ayaka",
				},
				1, 1,
			)
			env2 = fixtures.NewEnvelope(
				"",
				fixtures.FundsDeposited{
					ID:        id.NewEventID(),
					AccountID: "<aggregate>",
					Amount:    100,
				},
				2, 2,
			)
			env3 = fixtures.NewEnvelope(
				"",
				fixtures.FundsWithdrawn{
					ID:        id.NewEventID(),
					AccountID: "<aggregate>",
					Amount:    25,
				},
				3, 3,
			)
			other = fixtures.NewEnvelope(
				"",
				fixtures.AccountOpened{
					ID:        id.NewEventID(),
					AccountID: "<other-aggregate>",
					Owner:     "soren",
				},
				1, 1,
			)
		})

		ginkgo.AfterEach(func() {
			tearDown()
		})

		ginkgo.Describe("type persistence.SaveEvent", func() {
			ginkgo.It("saves the envelope so that it can be loaded", func() {
				persist(
					tc.Context,
					dataStore,
					persistence.SaveEvent{Envelope: env1},
				)

				envelopes := loadEventsBySource(tc.Context, dataStore, "<aggregate>", 0)
				gomega.Expect(envelopes).To(gomega.HaveLen(1))

				gomega.Expect(cmp.Diff(env1, envelopes[0])).To(gomega.BeEmpty())
			})

			ginkgo.It("saves multiple envelopes from a single batch", func() {
				persist(
					tc.Context,
					dataStore,
					persistence.SaveEvent{Envelope: env1},
					persistence.SaveEvent{Envelope: env2},
				)

				envelopes := loadEventsBySource(tc.Context, dataStore, "<aggregate>", 0)
				gomega.Expect(envelopes).To(gomega.HaveLen(2))
			})
		})

		ginkgo.Describe("type persistence.EventRepository (interface)", func() {
			ginkgo.Describe("func LoadEventsBySource()", func() {
				ginkgo.BeforeEach(func() {
					persist(
						tc.Context,
						dataStore,
						persistence.SaveEvent{Envelope: env1},
						persistence.SaveEvent{Envelope: env2},
						persistence.SaveEvent{Envelope: env3},
						persistence.SaveEvent{Envelope: other},
					)
				})

				ginkgo.It("returns the instance's events in order of sequence number", func() {
					envelopes := loadEventsBySource(tc.Context, dataStore, "<aggregate>", 0)

					gomega.Expect(envelopes).To(gomega.HaveLen(3))
					gomega.Expect(envelopes[0].EventID).To(gomega.Equal(env1.EventID))
					gomega.Expect(envelopes[1].EventID).To(gomega.Equal(env2.EventID))
					gomega.Expect(envelopes[2].EventID).To(gomega.Equal(env3.EventID))
				})

				ginkgo.It("treats the sequence number as an exclusive lower bound", func() {
					envelopes := loadEventsBySource(tc.Context, dataStore, "<aggregate>", 2)

					gomega.Expect(envelopes).To(gomega.HaveLen(1))
					gomega.Expect(envelopes[0].EventID).To(gomega.Equal(env3.EventID))
				})

				ginkgo.It("does not include events from other instances", func() {
					envelopes := loadEventsBySource(tc.Context, dataStore, "<other-aggregate>", 0)

					gomega.Expect(envelopes).To(gomega.HaveLen(1))
					gomega.Expect(envelopes[0].EventID).To(gomega.Equal(other.EventID))
				})

				ginkgo.It("returns an empty result for an unknown instance", func() {
					envelopes := loadEventsBySource(tc.Context, dataStore, "<unknown>", 0)
					gomega.Expect(envelopes).To(gomega.BeEmpty())
				})

				ginkgo.It("returns an empty result when the bound is past the end of the stream", func() {
					envelopes := loadEventsBySource(tc.Context, dataStore, "<aggregate>", 3)
					gomega.Expect(envelopes).To(gomega.BeEmpty())
				})

				ginkgo.It("allows the result to be closed before it is drained", func() {
					res, err := dataStore.LoadEventsBySource(tc.Context, "<aggregate>", 0)
					gomega.Expect(err).ShouldNot(gomega.HaveOccurred())

					_, ok, err := res.Next(tc.Context)
					gomega.Expect(err).ShouldNot(gomega.HaveOccurred())
					gomega.Expect(ok).To(gomega.BeTrue())

					res.Close()

					_, ok, err = res.Next(tc.Context)
					gomega.Expect(ok).To(gomega.BeFalse())
					gomega.Expect(err).Should(gomega.HaveOccurred())
				})
			})
		})
	})
}
