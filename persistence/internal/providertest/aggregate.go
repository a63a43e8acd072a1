package providertest

import (
	"sync"

	"github.com/kiroku-io/kiroku/aggregate"
	"github.com/kiroku-io/kiroku/persistence"
	"github.com/onsi/ginkgo"
	"github.com/onsi/ginkgo/extensions/table"
	"github.com/onsi/gomega"
)

// declareAggregateOperationTests declares a functional test-suite for
// persistence operations related to aggregate meta-data.
func declareAggregateOperationTests(tc *TestContext) {
	ginkgo.Context("aggregate operations", func() {
		var (
			dataStore persistence.DataStore
			tearDown  func()
		)

		ginkgo.BeforeEach(func() {
			dataStore, tearDown = tc.SetupDataStore()
		})

		ginkgo.AfterEach(func() {
			tearDown()
		})

		ginkgo.Describe("type persistence.SaveAggregateMetaData", func() {
			ginkgo.When("the instance does not exist", func() {
				ginkgo.It("saves the meta-data with a revision of 1", func() {
					persist(
						tc.Context,
						dataStore,
						persistence.SaveAggregateMetaData{
							MetaData: persistence.AggregateMetaData{
								AggregateID:    "<aggregate>",
								AggregateType:  "account",
								InstanceExists: true,
							},
						},
					)

					md := loadAggregateMetaData(tc.Context, dataStore, "<aggregate>")
					gomega.Expect(md.Revision).To(gomega.BeEquivalentTo(1))
				})

				ginkgo.It("does not save the meta-data when an OCC conflict occurs", func() {
					op := persistence.SaveAggregateMetaData{
						MetaData: persistence.AggregateMetaData{
							AggregateID:   "<aggregate>",
							AggregateType: "account",
							Revision:      123,
						},
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

					md := loadAggregateMetaData(tc.Context, dataStore, "<aggregate>")
					gomega.Expect(md).To(gomega.Equal(
						persistence.AggregateMetaData{
							AggregateID: "<aggregate>",
							Revision:    0,
						},
					))
				})
			})

			ginkgo.When("the instance exists", func() {
				ginkgo.BeforeEach(func() {
					persist(
						tc.Context,
						dataStore,
						persistence.SaveAggregateMetaData{
							MetaData: persistence.AggregateMetaData{
								AggregateID:    "<aggregate>",
								AggregateType:  "account",
								InstanceExists: true,
							},
						},
					)
				})

				ginkgo.It("increments the revision even if no meta-data has changed", func() {
					persist(
						tc.Context,
						dataStore,
						persistence.SaveAggregateMetaData{
							MetaData: persistence.AggregateMetaData{
								AggregateID:    "<aggregate>",
								AggregateType:  "account",
								InstanceExists: true,
								Revision:       1,
							},
						},
					)

					md := loadAggregateMetaData(tc.Context, dataStore, "<aggregate>")
					gomega.Expect(md.Revision).To(gomega.BeEquivalentTo(2))
				})

				table.DescribeTable(
					"it does not save the meta-data when an OCC conflict occurs",
					func(conflictingRevision int) {
						// Increment the meta-data once more so that it's up to
						// revision 2. Otherwise we can't test for 1 as a
						// too-low value.
						persist(
							tc.Context,
							dataStore,
							persistence.SaveAggregateMetaData{
								MetaData: persistence.AggregateMetaData{
									AggregateID:    "<aggregate>",
									AggregateType:  "account",
									InstanceExists: true,
									Revision:       1,
								},
							},
						)

						op := persistence.SaveAggregateMetaData{
							MetaData: persistence.AggregateMetaData{
								AggregateID:    "<aggregate>",
								AggregateType:  "account",
								InstanceExists: true,
								Revision:       aggregate.Version(conflictingRevision),
							},
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

						md := loadAggregateMetaData(tc.Context, dataStore, "<aggregate>")
						gomega.Expect(md).To(gomega.Equal(
							persistence.AggregateMetaData{
								AggregateID:    "<aggregate>",
								AggregateType:  "account",
								InstanceExists: true,
								Revision:       2,
							},
						))
					},
					table.Entry("zero", 0),
					table.Entry("too low", 1),
					table.Entry("too high", 100),
				)
			})

			ginkgo.It("serializes operations from concurrent persist calls", func() {
				var g sync.WaitGroup

				fn := func(id string, count uint64) {
					defer ginkgo.GinkgoRecover()
					defer g.Done()

					for i := uint64(0); i < count; i++ {
						persist(
							tc.Context,
							dataStore,
							persistence.SaveAggregateMetaData{
								MetaData: persistence.AggregateMetaData{
									AggregateID:    id,
									AggregateType:  "account",
									InstanceExists: true,
									Revision:       aggregate.Version(i),
								},
							},
						)
					}
				}

				g.Add(3)
				go fn("<aggregate-a>", 1)
				go fn("<aggregate-b>", 2)
				go fn("<aggregate-c>", 3)
				g.Wait()

				md := loadAggregateMetaData(tc.Context, dataStore, "<aggregate-a>")
				gomega.Expect(md.Revision).To(gomega.BeEquivalentTo(1))

				md = loadAggregateMetaData(tc.Context, dataStore, "<aggregate-b>")
				gomega.Expect(md.Revision).To(gomega.BeEquivalentTo(2))

				md = loadAggregateMetaData(tc.Context, dataStore, "<aggregate-c>")
				gomega.Expect(md.Revision).To(gomega.BeEquivalentTo(3))
			})
		})

		ginkgo.Describe("type persistence.AggregateRepository (interface)", func() {
			ginkgo.Describe("func LoadAggregateMetaData()", func() {
				ginkgo.It("returns meta-data at revision zero if the instance does not exist", func() {
					md := loadAggregateMetaData(tc.Context, dataStore, "<aggregate>")
					gomega.Expect(md).To(gomega.Equal(
						persistence.AggregateMetaData{
							AggregateID: "<aggregate>",
						},
					))
				})

				ginkgo.It("returns the current meta-data", func() {
					persist(
						tc.Context,
						dataStore,
						persistence.SaveAggregateMetaData{
							MetaData: persistence.AggregateMetaData{
								AggregateID:    "<aggregate>",
								AggregateType:  "account",
								InstanceExists: true,
							},
						},
					)

					md := loadAggregateMetaData(tc.Context, dataStore, "<aggregate>")
					gomega.Expect(md).To(gomega.Equal(
						persistence.AggregateMetaData{
							AggregateID:    "<aggregate>",
							AggregateType:  "account",
							InstanceExists: true,
							Revision:       1,
						},
					))
				})
			})
		})
	})
}
