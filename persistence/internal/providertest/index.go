package providertest

import (
	"github.com/kiroku-io/kiroku/persistence"
	"github.com/onsi/ginkgo"
	"github.com/onsi/gomega"
)

// declareIndexOperationTests declares a functional test-suite for persistence
// operations related to the inverted keyword index.
func declareIndexOperationTests(tc *TestContext) {
	ginkgo.Context("inverted index operations", func() {
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

		ginkgo.Describe("type persistence.SaveIndexEntry", func() {
			ginkgo.It("associates the instance with the keyword", func() {
				persist(
					tc.Context,
					dataStore,
					persistence.SaveIndexEntry{
						Keyword:     "<keyword>",
						AggregateID: "<aggregate>",
					},
				)

				ids := loadAggregateIDs(tc.Context, dataStore, "<keyword>")
				gomega.Expect(ids).To(gomega.ConsistOf("<aggregate>"))
			})

			ginkgo.It("is idempotent", func() {
				for i := 0; i < 2; i++ {
					persist(
						tc.Context,
						dataStore,
						persistence.SaveIndexEntry{
							Keyword:     "<keyword>",
							AggregateID: "<aggregate>",
						},
					)
				}

				ids := loadAggregateIDs(tc.Context, dataStore, "<keyword>")
				gomega.Expect(ids).To(gomega.ConsistOf("<aggregate>"))
			})

			ginkgo.It("allows a keyword to refer to multiple instances", func() {
				persist(
					tc.Context,
					dataStore,
					persistence.SaveIndexEntry{
						Keyword:     "<keyword>",
						AggregateID: "<aggregate-a>",
					},
					persistence.SaveIndexEntry{
						Keyword:     "<keyword>",
						AggregateID: "<aggregate-b>",
					},
				)

				ids := loadAggregateIDs(tc.Context, dataStore, "<keyword>")
				gomega.Expect(ids).To(gomega.ConsistOf("<aggregate-a>", "<aggregate-b>"))
			})

			ginkgo.It("allows an instance to be indexed under multiple keywords", func() {
				persist(
					tc.Context,
					dataStore,
					persistence.SaveIndexEntry{
						Keyword:     "<keyword-1>",
						AggregateID: "<aggregate>",
					},
					persistence.SaveIndexEntry{
						Keyword:     "<keyword-2>",
						AggregateID: "<aggregate>",
					},
				)

				gomega.Expect(
					loadAggregateIDs(tc.Context, dataStore, "<keyword-1>"),
				).To(gomega.ConsistOf("<aggregate>"))
				gomega.Expect(
					loadAggregateIDs(tc.Context, dataStore, "<keyword-2>"),
				).To(gomega.ConsistOf("<aggregate>"))
			})
		})

		ginkgo.Describe("type persistence.RemoveIndexEntry", func() {
			ginkgo.BeforeEach(func() {
				persist(
					tc.Context,
					dataStore,
					persistence.SaveIndexEntry{
						Keyword:     "<keyword>",
						AggregateID: "<aggregate-a>",
					},
					persistence.SaveIndexEntry{
						Keyword:     "<keyword>",
						AggregateID: "<aggregate-b>",
					},
				)
			})

			ginkgo.It("dissociates the instance from the keyword", func() {
				persist(
					tc.Context,
					dataStore,
					persistence.RemoveIndexEntry{
						Keyword:     "<keyword>",
						AggregateID: "<aggregate-a>",
					},
				)

				ids := loadAggregateIDs(tc.Context, dataStore, "<keyword>")
				gomega.Expect(ids).To(gomega.ConsistOf("<aggregate-b>"))
			})

			ginkgo.It("is idempotent", func() {
				for i := 0; i < 2; i++ {
					persist(
						tc.Context,
						dataStore,
						persistence.RemoveIndexEntry{
							Keyword:     "<keyword>",
							AggregateID: "<aggregate-a>",
						},
					)
				}

				ids := loadAggregateIDs(tc.Context, dataStore, "<keyword>")
				gomega.Expect(ids).To(gomega.ConsistOf("<aggregate-b>"))
			})

			ginkgo.It("leaves the keyword empty once the last instance is removed", func() {
				persist(
					tc.Context,
					dataStore,
					persistence.RemoveIndexEntry{
						Keyword:     "<keyword>",
						AggregateID: "<aggregate-a>",
					},
					persistence.RemoveIndexEntry{
						Keyword:     "<keyword>",
						AggregateID: "<aggregate-b>",
					},
				)

				ids := loadAggregateIDs(tc.Context, dataStore, "<keyword>")
				gomega.Expect(ids).To(gomega.BeEmpty())
			})
		})

		ginkgo.Describe("type persistence.InvertedIndexRepository (interface)", func() {
			ginkgo.Describe("func LoadAggregateIDs()", func() {
				ginkgo.It("returns an empty result for an unknown keyword", func() {
					ids := loadAggregateIDs(tc.Context, dataStore, "<unknown>")
					gomega.Expect(ids).To(gomega.BeEmpty())
				})
			})
		})
	})
}
