package repository_test

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/kiroku-io/kiroku/aggregate"
	. "github.com/kiroku-io/kiroku/fixtures"
	"github.com/kiroku-io/kiroku/persistence"
	. "github.com/kiroku-io/kiroku/repository"
	. "github.com/onsi/ginkgo"
	. "github.com/onsi/gomega"
)

var _ = Describe("func LoadByKeyword()", func() {
	var (
		ctx       context.Context
		cancel    context.CancelFunc
		dataStore *DataStoreStub
		repo      *EventSourced
	)

	BeforeEach(func() {
		ctx, cancel = context.WithTimeout(context.Background(), 5*time.Second)

		dataStore = NewDataStoreStub()

		repo = &EventSourced{
			DataStore: dataStore,
			Marshaler: Marshaler,
			New: func(id string) aggregate.Root {
				return NewAccount(id)
			},
		}
	})

	AfterEach(func() {
		dataStore.Close()
		cancel()
	})

	It("loads every instance associated with the keyword", func() {
		executeAll(
			ctx,
			repo,
			OpenAccount{AccountID: "<account-1>", Owner: "<owner>"},
			OpenAccount{AccountID: "<account-2>", Owner: "<owner>"},
			OpenAccount{AccountID: "<account-3>", Owner: "<other>"},
			Deposit{AccountID: "<account-2>", Amount: 100},
		)

		instances, err := repo.LoadByKeyword(ctx, "<owner>")
		Expect(err).ShouldNot(HaveOccurred())
		Expect(instances).To(HaveLen(2))

		byID := map[string]*aggregate.VersionedAggregate{}
		for _, inst := range instances {
			byID[inst.AggregateID()] = inst
		}

		Expect(byID).To(HaveKey("<account-1>"))
		Expect(byID).To(HaveKey("<account-2>"))
		Expect(byID["<account-2>"].Root().(*Account).Balance).To(BeEquivalentTo(100))
	})

	It("returns an empty result for an unknown keyword", func() {
		instances, err := repo.LoadByKeyword(ctx, "<unknown>")
		Expect(err).ShouldNot(HaveOccurred())
		Expect(instances).To(BeEmpty())
	})

	It("limits the number of concurrent loads", func() {
		var ids []string
		for i := 0; i < 30; i++ {
			ids = append(ids, fmt.Sprintf("<account-%d>", i))
		}

		dataStore.LoadAggregateIDsFunc = func(
			context.Context,
			string,
		) ([]string, error) {
			return ids, nil
		}

		var (
			m        sync.Mutex
			inFlight int
			max      int
		)

		dataStore.LoadSnapshotFunc = func(
			ctx context.Context,
			id string,
		) (persistence.Snapshot, bool, error) {
			m.Lock()
			inFlight++
			if inFlight > max {
				max = inFlight
			}
			m.Unlock()

			time.Sleep(5 * time.Millisecond)

			m.Lock()
			inFlight--
			m.Unlock()

			return dataStore.DataStore.LoadSnapshot(ctx, id)
		}

		repo.ConcurrencyLimit = 5

		instances, err := repo.LoadByKeyword(ctx, "<owner>")
		Expect(err).ShouldNot(HaveOccurred())
		Expect(instances).To(HaveLen(30))
		Expect(max).To(BeNumerically("<=", 5))
	})

	It("skips instances that can not be loaded", func() {
		executeAll(
			ctx,
			repo,
			OpenAccount{AccountID: "<account-1>", Owner: "<owner>"},
			OpenAccount{AccountID: "<account-2>", Owner: "<owner>"},
			OpenAccount{AccountID: "<account-3>", Owner: "<owner>"},
		)

		dataStore.LoadSnapshotFunc = func(
			ctx context.Context,
			id string,
		) (persistence.Snapshot, bool, error) {
			if id == "<account-2>" {
				return persistence.Snapshot{}, false, errors.New("<error>")
			}

			return dataStore.DataStore.LoadSnapshot(ctx, id)
		}

		instances, err := repo.LoadByKeyword(ctx, "<owner>")
		Expect(err).To(MatchError(
			"aggregate <account-2> could not be loaded: <error>",
		))
		Expect(instances).To(HaveLen(2))
	})

	It("collects the error for every instance that can not be loaded", func() {
		executeAll(
			ctx,
			repo,
			OpenAccount{AccountID: "<account-1>", Owner: "<owner>"},
			OpenAccount{AccountID: "<account-2>", Owner: "<owner>"},
			OpenAccount{AccountID: "<account-3>", Owner: "<owner>"},
		)

		dataStore.LoadSnapshotFunc = func(
			ctx context.Context,
			id string,
		) (persistence.Snapshot, bool, error) {
			if id == "<account-1>" {
				return persistence.Snapshot{}, false, errors.New("<error>")
			}

			return persistence.Snapshot{}, false, errors.New("<other error>")
		}

		instances, err := repo.LoadByKeyword(ctx, "<owner>")
		Expect(err).To(HaveOccurred())
		Expect(err.Error()).To(ContainSubstring("<account-1> could not be loaded: <error>"))
		Expect(err.Error()).To(ContainSubstring("could not be loaded: <other error>"))
		Expect(instances).To(BeEmpty())
	})

	It("returns an error if the index can not be queried", func() {
		dataStore.LoadAggregateIDsFunc = func(
			context.Context,
			string,
		) ([]string, error) {
			return nil, errors.New("<error>")
		}

		_, err := repo.LoadByKeyword(ctx, "<owner>")
		Expect(err).To(MatchError("<error>"))
	})
})
