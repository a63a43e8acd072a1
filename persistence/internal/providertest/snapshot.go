package providertest

import (
	"github.com/dogmatiq/marshalkit"
	"github.com/kiroku-io/kiroku/fixtures"
	"github.com/kiroku-io/kiroku/persistence"
	"github.com/onsi/ginkgo"
	"github.com/onsi/gomega"
)

// declareSnapshotOperationTests declares a functional test-suite for
// persistence operations related to aggregate snapshots.
func declareSnapshotOperationTests(tc *TestContext) {
	ginkgo.Context("snapshot operations", func() {
		var (
			dataStore persistence.DataStore
			tearDown  func()

			snapshot persistence.Snapshot
		)

		ginkgo.BeforeEach(func() {
			dataStore, tearDown = tc.SetupDataStore()

			packet := marshalkit.MustMarshal(
				fixtures.Marshaler,
				&fixtures.Account{
					AccountID: "<aggregate>",
					Owner:     "ayaka",
					Balance:   100,
					IsOpen:    true,
				},
			)

			snapshot = persistence.Snapshot{
				AggregateID:    "<aggregate>",
				AggregateType:  "account",
				Version:        10,
				SequenceNumber: 10,
				MediaType:      packet.MediaType,
				Data:           packet.Data,
			}
		})

		ginkgo.AfterEach(func() {
			tearDown()
		})

		ginkgo.Describe("type persistence.SaveSnapshot", func() {
			ginkgo.When("there is no snapshot of the instance", func() {
				ginkgo.It("creates the snapshot", func() {
					persist(
						tc.Context,
						dataStore,
						persistence.SaveSnapshot{Snapshot: snapshot},
					)

					ss, ok := loadSnapshot(tc.Context, dataStore, "<aggregate>")
					gomega.Expect(ok).To(gomega.BeTrue())
					gomega.Expect(ss).To(gomega.Equal(snapshot))
				})
			})

			ginkgo.When("a snapshot of the instance exists", func() {
				ginkgo.BeforeEach(func() {
					persist(
						tc.Context,
						dataStore,
						persistence.SaveSnapshot{Snapshot: snapshot},
					)
				})

				ginkgo.It("replaces the snapshot", func() {
					next := snapshot
					next.Version = 20
					next.SequenceNumber = 20

					persist(
						tc.Context,
						dataStore,
						persistence.SaveSnapshot{Snapshot: next},
					)

					ss, ok := loadSnapshot(tc.Context, dataStore, "<aggregate>")
					gomega.Expect(ok).To(gomega.BeTrue())
					gomega.Expect(ss).To(gomega.Equal(next))
				})
			})
		})

		ginkgo.Describe("type persistence.SnapshotRepository (interface)", func() {
			ginkgo.Describe("func LoadSnapshot()", func() {
				ginkgo.It("reports that no snapshot exists for an unknown instance", func() {
					_, ok := loadSnapshot(tc.Context, dataStore, "<unknown>")
					gomega.Expect(ok).To(gomega.BeFalse())
				})
			})
		})
	})
}
