package integration_test

import (
	"context"
	"errors"
	"time"

	"github.com/kiroku-io/kiroku/aggregate"
	. "github.com/kiroku-io/kiroku/fixtures"
	. "github.com/kiroku-io/kiroku/integration"
	"github.com/kiroku-io/kiroku/outbox"
	"github.com/kiroku-io/kiroku/persistence"
	"github.com/kiroku-io/kiroku/repository"
	. "github.com/onsi/ginkgo"
	. "github.com/onsi/gomega"
)

var _ = Describe("type Processor", func() {
	var (
		ctx       context.Context
		cancel    context.CancelFunc
		processor *Processor
		rec       persistence.OutboxRecord
	)

	BeforeEach(func() {
		ctx, cancel = context.WithTimeout(context.Background(), 5*time.Second)

		processor = &Processor{
			Marshaler: Marshaler,
		}

		rec = NewOutboxRecord(
			"<record>",
			AccountOpenedNotice{
				ID:        "<notice>",
				AccountID: "<account>",
				Owner:     "<owner>",
			},
			time.Now(),
		)
	})

	AfterEach(func() {
		cancel()
	})

	Describe("func Process()", func() {
		It("routes the event to the registered handler", func() {
			var handled []aggregate.IntegrationEvent
			processor.Register(
				"account-opened-notice",
				func(_ context.Context, e aggregate.IntegrationEvent) error {
					handled = append(handled, e)
					return nil
				},
			)

			err := processor.Process(ctx, rec)
			Expect(err).ShouldNot(HaveOccurred())

			Expect(handled).To(HaveLen(1))

			e := handled[0].(AccountOpenedNotice)
			Expect(e.AccountID).To(Equal("<account>"))
		})

		It("skips events with no registered handler", func() {
			err := processor.Process(ctx, rec)
			Expect(err).ShouldNot(HaveOccurred())
		})

		It("returns an error if the handler fails", func() {
			processor.Register(
				"account-opened-notice",
				func(context.Context, aggregate.IntegrationEvent) error {
					return errors.New("<error>")
				},
			)

			err := processor.Process(ctx, rec)
			Expect(err).To(MatchError("<error>"))
		})

		It("returns an error if the event can not be decoded", func() {
			processor.Register(
				"account-opened-notice",
				func(context.Context, aggregate.IntegrationEvent) error {
					return nil
				},
			)

			rec.MediaType = "<unsupported>"

			err := processor.Process(ctx, rec)
			Expect(err).To(HaveOccurred())
			Expect(err.Error()).To(ContainSubstring("can not be decoded"))
		})
	})

	Describe("func Publish()", func() {
		It("delivers events staged by a repository and claimed by a publisher", func() {
			dataStore := NewDataStoreStub()
			defer dataStore.Close()

			repo := &repository.EventSourced{
				DataStore: dataStore,
				Marshaler: Marshaler,
				New: func(id string) aggregate.Root {
					return NewAccount(id)
				},
			}

			_, err := repo.Execute(ctx, OpenAccount{
				AccountID: "<account>",
				Owner:     "<owner>",
			})
			Expect(err).ShouldNot(HaveOccurred())

			handled := make(chan aggregate.IntegrationEvent, 1)
			processor.Register(
				"account-opened-notice",
				func(_ context.Context, e aggregate.IntegrationEvent) error {
					handled <- e
					cancel()
					return nil
				},
			)

			publisher := &outbox.Publisher{
				DataStore: dataStore,
				Transport: processor,
			}

			err = publisher.Run(ctx)
			Expect(err).To(Equal(context.Canceled))

			e := (<-handled).(AccountOpenedNotice)
			Expect(e.AccountID).To(Equal("<account>"))
			Expect(e.Owner).To(Equal("<owner>"))
		})
	})
})
