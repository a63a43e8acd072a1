// Package providertest contains a behavioral test suite that is used to
// verify persistence provider implementations against the persistence
// contracts.
package providertest

import (
	"context"
	"time"

	"github.com/kiroku-io/kiroku/fixtures"
	"github.com/kiroku-io/kiroku/persistence"
	"github.com/onsi/ginkgo"
	"github.com/onsi/gomega"
)

// Out is a container for values that are provided by the provider-specific
// initialization code to the test suite.
type Out struct {
	// NewProvider is a function that creates a new provider.
	NewProvider func() (p persistence.Provider, close func())

	// IsShared returns true if multiple instances of the same provider access
	// the same data.
	IsShared bool

	// TestTimeout is the maximum duration allowed for each test.
	TestTimeout time.Duration
}

// DefaultTestTimeout is the default test timeout.
const DefaultTestTimeout = 10 * time.Second

// TestContext encapsulates the shared test context passed to the tests for
// each provider sub-system.
type TestContext struct {
	Context context.Context
	Out     Out
}

// SetupDataStore sets up a new data-store.
func (tc *TestContext) SetupDataStore() (persistence.DataStore, func()) {
	p, close := tc.Out.NewProvider()

	ds, err := p.Open(tc.Context, fixtures.DefaultAppKey)
	if err != nil {
		if close != nil {
			close()
		}

		gomega.Expect(err).ShouldNot(gomega.HaveOccurred())
	}

	return ds, func() {
		ds.Close()

		if close != nil {
			close()
		}
	}
}

// Declare declares generic behavioral tests for a specific persistence
// provider implementation.
func Declare(
	before func(context.Context) Out,
	after func(),
) {
	var (
		tc     TestContext
		cancel func()
	)

	ginkgo.Context("standard provider test suite", func() {
		ginkgo.BeforeEach(func() {
			setupCtx, cancelSetup := context.WithTimeout(context.Background(), DefaultTestTimeout)
			defer cancelSetup()

			tc.Out = before(setupCtx)

			if tc.Out.TestTimeout <= 0 {
				tc.Out.TestTimeout = DefaultTestTimeout
			}

			tc.Context, cancel = context.WithTimeout(context.Background(), tc.Out.TestTimeout)
		})

		ginkgo.AfterEach(func() {
			if after != nil {
				after()
			}

			cancel()
		})

		declareProviderTests(&tc)
		declareDataStoreTests(&tc)
		declareAggregateOperationTests(&tc)
		declareEventOperationTests(&tc)
		declareSnapshotOperationTests(&tc)
		declareIndexOperationTests(&tc)
		declareOutboxOperationTests(&tc)
	})
}
