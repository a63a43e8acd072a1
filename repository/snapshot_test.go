package repository_test

import (
	"context"
	"errors"
	"time"

	"github.com/dogmatiq/dodeca/logging"
	"github.com/kiroku-io/kiroku/aggregate"
	. "github.com/kiroku-io/kiroku/fixtures"
	"github.com/kiroku-io/kiroku/persistence"
	. "github.com/kiroku-io/kiroku/repository"
	. "github.com/onsi/ginkgo"
	. "github.com/onsi/gomega"
)

var _ = Describe("type EventSourced (snapshots)", func() {
	var (
		ctx       context.Context
		cancel    context.CancelFunc
		dataStore *DataStoreStub
		logger    *logging.BufferedLogger
		repo      *EventSourced
	)

	BeforeEach(func() {
		ctx, cancel = context.WithTimeout(context.Background(), 5*time.Second)

		dataStore = NewDataStoreStub()
		logger = &logging.BufferedLogger{}

		repo = &EventSourced{
			DataStore: dataStore,
			Marshaler: Marshaler,
			New: func(id string) aggregate.Root {
				return NewAccount(id)
			},
			SnapshotInterval: 10,
			Logger:           logger,
		}
	})

	AfterEach(func() {
		dataStore.Close()
		cancel()
	})

	// deposit records n deposit events against the account.
	deposit := func(n int) {
		for i := 0; i < n; i++ {
			_, err := repo.Execute(ctx, Deposit{
				AccountID: "<account>",
				Amount:    1,
			})
			Expect(err).ShouldNot(HaveOccurred())
		}
	}

	open := func() {
		_, err := repo.Execute(ctx, OpenAccount{
			AccountID: "<account>",
			Owner:     "<owner>",
		})
		Expect(err).ShouldNot(HaveOccurred())
	}

	It("does not take a snapshot before the interval is reached", func() {
		open()
		deposit(8)

		_, ok, err := dataStore.LoadSnapshot(ctx, "<account>")
		Expect(err).ShouldNot(HaveOccurred())
		Expect(ok).To(BeFalse())
	})

	It("takes a snapshot when an event lands on the interval", func() {
		open()
		deposit(9)

		ss, ok, err := dataStore.LoadSnapshot(ctx, "<account>")
		Expect(err).ShouldNot(HaveOccurred())
		Expect(ok).To(BeTrue())
		Expect(ss.AggregateID).To(Equal("<account>"))
		Expect(ss.AggregateType).To(Equal("account"))
		Expect(ss.Version).To(BeEquivalentTo(10))
		Expect(ss.SequenceNumber).To(BeEquivalentTo(10))
	})

	It("supersedes the previous snapshot at the next interval", func() {
		open()
		deposit(24)

		ss, ok, err := dataStore.LoadSnapshot(ctx, "<account>")
		Expect(err).ShouldNot(HaveOccurred())
		Expect(ok).To(BeTrue())
		Expect(ss.Version).To(BeEquivalentTo(20))
	})

	It("resumes replay from the snapshot's position", func() {
		open()
		deposit(24)

		var floor aggregate.SequenceNumber
		dataStore.LoadEventsBySourceFunc = func(
			ctx context.Context,
			id string,
			seq aggregate.SequenceNumber,
		) (persistence.EventResult, error) {
			floor = seq
			return dataStore.DataStore.LoadEventsBySource(ctx, id, seq)
		}

		inst, err := repo.Load(ctx, "<account>")
		Expect(err).ShouldNot(HaveOccurred())

		Expect(floor).To(BeEquivalentTo(20))
		Expect(inst.Version()).To(BeEquivalentTo(25))
		Expect(inst.Root().(*Account).Balance).To(BeEquivalentTo(24))
	})

	It("does not fail the save if the snapshot can not be persisted", func() {
		dataStore.PersistFunc = func(
			ctx context.Context,
			b persistence.Batch,
		) error {
			for _, op := range b {
				if _, ok := op.(persistence.SaveSnapshot); ok {
					return errors.New("<error>")
				}
			}

			return dataStore.DataStore.Persist(ctx, b)
		}

		open()
		deposit(9)

		_, ok, err := dataStore.LoadSnapshot(ctx, "<account>")
		Expect(err).ShouldNot(HaveOccurred())
		Expect(ok).To(BeFalse())

		Expect(logger.Messages()).To(ContainElement(
			logging.BufferedLogMessage{
				Message: "snapshot of aggregate <account> at version 10 could not be taken: <error>",
			},
		))

		inst, err := repo.Load(ctx, "<account>")
		Expect(err).ShouldNot(HaveOccurred())
		Expect(inst.Version()).To(BeEquivalentTo(10))
	})
})

var _ = Describe("type EventSourced (inverted index)", func() {
	var (
		ctx       context.Context
		cancel    context.CancelFunc
		dataStore *DataStoreStub
		logger    *logging.BufferedLogger
		repo      *EventSourced
	)

	BeforeEach(func() {
		ctx, cancel = context.WithTimeout(context.Background(), 5*time.Second)

		dataStore = NewDataStoreStub()
		logger = &logging.BufferedLogger{}

		repo = &EventSourced{
			DataStore: dataStore,
			Marshaler: Marshaler,
			New: func(id string) aggregate.Root {
				return NewAccount(id)
			},
			Logger: logger,
		}
	})

	AfterEach(func() {
		dataStore.Close()
		cancel()
	})

	It("associates the instance with the event's keywords", func() {
		_, err := repo.Execute(ctx, OpenAccount{
			AccountID: "<account>",
			Owner:     "<owner>",
		})
		Expect(err).ShouldNot(HaveOccurred())

		ids, err := dataStore.LoadAggregateIDs(ctx, "<owner>")
		Expect(err).ShouldNot(HaveOccurred())
		Expect(ids).To(ConsistOf("<account>"))
	})

	It("dissociates the instance from the event's removed keywords", func() {
		executeAll(
			ctx,
			repo,
			OpenAccount{AccountID: "<account>", Owner: "<owner>"},
			CloseAccount{AccountID: "<account>"},
		)

		ids, err := dataStore.LoadAggregateIDs(ctx, "<owner>")
		Expect(err).ShouldNot(HaveOccurred())
		Expect(ids).To(BeEmpty())
	})

	It("does not fail the save if the index can not be updated", func() {
		dataStore.PersistFunc = func(
			ctx context.Context,
			b persistence.Batch,
		) error {
			for _, op := range b {
				if _, ok := op.(persistence.SaveIndexEntry); ok {
					return errors.New("<error>")
				}
			}

			return dataStore.DataStore.Persist(ctx, b)
		}

		_, err := repo.Execute(ctx, OpenAccount{
			AccountID: "<account>",
			Owner:     "<owner>",
		})
		Expect(err).ShouldNot(HaveOccurred())

		Expect(logger.Messages()).To(ContainElement(
			logging.BufferedLogMessage{
				Message: "keyword index for aggregate <account> could not be updated: <error>",
			},
		))

		ok, err := repo.Exists(ctx, "<account>")
		Expect(err).ShouldNot(HaveOccurred())
		Expect(ok).To(BeTrue())
	})
})
