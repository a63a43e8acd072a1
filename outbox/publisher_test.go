package outbox_test

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/dogmatiq/dodeca/logging"
	"github.com/dogmatiq/linger/backoff"
	. "github.com/kiroku-io/kiroku/fixtures"
	. "github.com/kiroku-io/kiroku/outbox"
	"github.com/kiroku-io/kiroku/persistence"
	"github.com/kiroku-io/kiroku/retry"
	. "github.com/onsi/ginkgo"
	. "github.com/onsi/gomega"
)

var _ = Describe("type Publisher", func() {
	var (
		ctx       context.Context
		cancel    context.CancelFunc
		dataStore *DataStoreStub
		publisher *Publisher
	)

	BeforeEach(func() {
		ctx, cancel = context.WithTimeout(context.Background(), 5*time.Second)

		dataStore = NewDataStoreStub()

		publisher = &Publisher{
			DataStore:    dataStore,
			PollInterval: 5 * time.Millisecond,
			Policy: retry.ExponentialBackoff{
				Min: 5 * time.Millisecond,
				Max: 5 * time.Millisecond,
			},
			BackoffStrategy: backoff.Constant(5 * time.Millisecond),
		}
	})

	AfterEach(func() {
		cancel()
		dataStore.Close()
	})

	// stage persists a new pending record that is due immediately.
	stage := func(messageID string) persistence.OutboxRecord {
		rec := NewOutboxRecord(
			messageID,
			AccountOpenedNotice{
				ID:        messageID,
				AccountID: "<account>",
				Owner:     "<owner>",
			},
			time.Now(),
		)

		err := dataStore.Persist(
			ctx,
			persistence.Batch{
				persistence.SaveOutboxRecord{
					Record: rec,
				},
			},
		)
		Expect(err).ShouldNot(HaveOccurred())

		return rec
	}

	Describe("func Run()", func() {
		It("delivers staged records", func() {
			stage("<record-1>")
			stage("<record-2>")

			var (
				m         sync.Mutex
				delivered []string
			)

			publisher.Transport = TransportFunc(
				func(_ context.Context, rec persistence.OutboxRecord) error {
					m.Lock()
					defer m.Unlock()

					delivered = append(delivered, rec.MessageID)
					if len(delivered) == 2 {
						cancel()
					}

					return nil
				},
			)

			err := publisher.Run(ctx)
			Expect(err).To(Equal(context.Canceled))
			Expect(delivered).To(ConsistOf("<record-1>", "<record-2>"))
		})

		It("removes records once they are published", func() {
			stage("<record>")

			publisher.Transport = TransportFunc(
				func(context.Context, persistence.OutboxRecord) error {
					cancel()
					return nil
				},
			)

			publisher.Run(ctx)

			// The record is gone entirely, so re-staging under the same ID
			// starts from revision zero again.
			ctx = context.Background()
			stage("<record>")
		})

		It("retains published records if configured to do so", func() {
			rec := stage("<record>")

			publisher.RetainPublished = true
			publisher.Transport = TransportFunc(
				func(context.Context, persistence.OutboxRecord) error {
					cancel()
					return nil
				},
			)

			publisher.Run(ctx)

			// The record still occupies its slot, so a fresh record under
			// the same ID fails the concurrency check.
			err := dataStore.Persist(
				ctx,
				persistence.Batch{
					persistence.SaveOutboxRecord{
						Record: rec,
					},
				},
			)
			Expect(errors.As(err, &persistence.ConflictError{})).To(BeTrue())
		})

		It("reschedules a record when delivery fails", func() {
			stage("<record>")

			var (
				m        sync.Mutex
				attempts []uint
			)

			publisher.Transport = TransportFunc(
				func(_ context.Context, rec persistence.OutboxRecord) error {
					m.Lock()
					defer m.Unlock()

					attempts = append(attempts, rec.AttemptCount)
					if len(attempts) == 1 {
						return errors.New("<error>")
					}

					cancel()
					return nil
				},
			)

			err := publisher.Run(ctx)
			Expect(err).To(Equal(context.Canceled))
			Expect(attempts).To(Equal([]uint{0, 1}))
		})

		It("reclaims a record whose lease has lapsed", func() {
			stage("<record>")

			// Simulate a publisher that claimed the record and crashed before
			// marking it published or failed.
			claimed, err := dataStore.ClaimOutboxRecords(
				ctx,
				1,
				10*time.Millisecond,
			)
			Expect(err).ShouldNot(HaveOccurred())
			Expect(claimed).To(HaveLen(1))

			delivered := make(chan persistence.OutboxRecord, 1)

			publisher.Transport = TransportFunc(
				func(_ context.Context, rec persistence.OutboxRecord) error {
					delivered <- rec
					cancel()
					return nil
				},
			)

			err = publisher.Run(ctx)
			Expect(err).To(Equal(context.Canceled))

			rec := <-delivered
			Expect(rec.MessageID).To(Equal("<record>"))
			Expect(rec.Status).To(Equal(persistence.OutboxPublishing))
		})

		It("restarts after a persistence failure", func() {
			stage("<record>")

			logger := &logging.BufferedLogger{}
			publisher.Logger = logger

			fail := true
			dataStore.ClaimOutboxRecordsFunc = func(
				ctx context.Context,
				n int,
				lease time.Duration,
			) ([]persistence.OutboxRecord, error) {
				if fail {
					fail = false
					return nil, errors.New("<error>")
				}

				return dataStore.DataStore.ClaimOutboxRecords(ctx, n, lease)
			}

			publisher.Transport = TransportFunc(
				func(context.Context, persistence.OutboxRecord) error {
					cancel()
					return nil
				},
			)

			err := publisher.Run(ctx)
			Expect(err).To(Equal(context.Canceled))

			Expect(logger.Messages()).To(ContainElement(
				logging.BufferedLogMessage{
					Message: "<error>",
				},
			))
		})
	})
})
