package providertest

import (
	"github.com/kiroku-io/kiroku/persistence"
	"github.com/onsi/ginkgo"
	"github.com/onsi/gomega"
)

func declareProviderTests(tc *TestContext) {
	ginkgo.Describe("type Provider (interface)", func() {
		ginkgo.Describe("func Open()", func() {
			ginkgo.It("returns different data stores for different applications", func() {
				p, close := tc.Out.NewProvider()
				if close != nil {
					defer close()
				}

				ds1, err := p.Open(tc.Context, "<app-key-1>")
				gomega.Expect(err).ShouldNot(gomega.HaveOccurred())
				defer ds1.Close()

				ds2, err := p.Open(tc.Context, "<app-key-2>")
				gomega.Expect(err).ShouldNot(gomega.HaveOccurred())
				defer ds2.Close()

				persist(
					tc.Context,
					ds1,
					persistence.SaveAggregateMetaData{
						MetaData: persistence.AggregateMetaData{
							AggregateID:    "<aggregate>",
							AggregateType:  "account",
							InstanceExists: true,
						},
					},
				)

				md := loadAggregateMetaData(tc.Context, ds2, "<aggregate>")
				gomega.Expect(md.Revision).To(gomega.BeEquivalentTo(0))
			})

			ginkgo.It("allows reopening a data store after it has been closed", func() {
				p, close := tc.Out.NewProvider()
				if close != nil {
					defer close()
				}

				ds, err := p.Open(tc.Context, "<app-key>")
				gomega.Expect(err).ShouldNot(gomega.HaveOccurred())

				err = ds.Close()
				gomega.Expect(err).ShouldNot(gomega.HaveOccurred())

				ds, err = p.Open(tc.Context, "<app-key>")
				gomega.Expect(err).ShouldNot(gomega.HaveOccurred())
				ds.Close()
			})
		})
	})
}
