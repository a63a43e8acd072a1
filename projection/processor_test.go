package projection_test

import (
	"context"
	"errors"
	"time"

	"github.com/kiroku-io/kiroku/aggregate"
	. "github.com/kiroku-io/kiroku/fixtures"
	"github.com/kiroku-io/kiroku/id"
	"github.com/kiroku-io/kiroku/persistence"
	. "github.com/kiroku-io/kiroku/projection"
	. "github.com/onsi/ginkgo"
	. "github.com/onsi/gomega"
)

var _ = Describe("type Processor", func() {
	var (
		ctx       context.Context
		cancel    context.CancelFunc
		processor *Processor
		env       persistence.EventEnvelope
	)

	BeforeEach(func() {
		ctx, cancel = context.WithTimeout(context.Background(), 5*time.Second)

		processor = &Processor{
			Marshaler: Marshaler,
		}

		env = NewEnvelope(
			"",
			AccountOpened{
				ID:        id.NewEventID(),
				AccountID: "<account>",
				Owner:     "<owner>",
			},
			1,
			1,
		)
	})

	AfterEach(func() {
		cancel()
	})

	Describe("func Process()", func() {
		It("routes the event to the registered handler", func() {
			var handled []aggregate.DomainEvent
			processor.Register(
				"account-opened",
				func(_ context.Context, e aggregate.DomainEvent) error {
					handled = append(handled, e)
					return nil
				},
			)

			err := processor.Process(ctx, env)
			Expect(err).ShouldNot(HaveOccurred())

			Expect(handled).To(HaveLen(1))

			e := handled[0].(AccountOpened)
			Expect(e.AccountID).To(Equal("<account>"))
			Expect(e.Owner).To(Equal("<owner>"))
		})

		It("skips events with no registered handler", func() {
			err := processor.Process(ctx, env)
			Expect(err).ShouldNot(HaveOccurred())
		})

		It("uses the most recent registration for an event type", func() {
			processor.Register(
				"account-opened",
				func(context.Context, aggregate.DomainEvent) error {
					return errors.New("<stale handler called>")
				},
			)

			called := false
			processor.Register(
				"account-opened",
				func(context.Context, aggregate.DomainEvent) error {
					called = true
					return nil
				},
			)

			err := processor.Process(ctx, env)
			Expect(err).ShouldNot(HaveOccurred())
			Expect(called).To(BeTrue())
		})

		It("returns an error if the handler fails", func() {
			processor.Register(
				"account-opened",
				func(context.Context, aggregate.DomainEvent) error {
					return errors.New("<error>")
				},
			)

			err := processor.Process(ctx, env)
			Expect(err).To(MatchError("<error>"))
		})

		It("returns an error if the event can not be decoded", func() {
			processor.Register(
				"account-opened",
				func(context.Context, aggregate.DomainEvent) error {
					return nil
				},
			)

			env.MediaType = "<unsupported>"

			err := processor.Process(ctx, env)
			Expect(err).To(HaveOccurred())
			Expect(err.Error()).To(ContainSubstring("can not be decoded"))
		})
	})
})
