package message_test

import (
	"time"

	. "github.com/kiroku-io/kiroku/message"
	. "github.com/onsi/ginkgo"
	. "github.com/onsi/gomega"
)

type stubMessage struct {
	Value string
}

func (stubMessage) MessageName() string { return "Stub" }

var _ = Describe("type Packer", func() {
	var (
		now    time.Time
		seq    int
		packer *Packer
	)

	BeforeEach(func() {
		now = time.Date(2024, time.March, 1, 10, 30, 0, 0, time.UTC)
		seq = 0

		packer = &Packer{
			GenerateID: func() string {
				seq++
				return string(rune('0' + seq))
			},
			Now: func() time.Time {
				return now
			},
		}
	})

	Describe("func Pack()", func() {
		It("returns an envelope for a root message", func() {
			env := packer.Pack(stubMessage{"<value>"})

			Expect(env).To(Equal(
				&Envelope{
					MetaData: MetaData{
						MessageID:     "1",
						CausationID:   "1",
						CorrelationID: "1",
						CreatedAt:     now,
					},
					Message: stubMessage{"<value>"},
				},
			))
		})

		It("generates UUIDs by default", func() {
			packer.GenerateID = nil

			a := packer.Pack(stubMessage{})
			b := packer.Pack(stubMessage{})

			Expect(a.MessageID).NotTo(BeEmpty())
			Expect(a.MessageID).NotTo(Equal(b.MessageID))
		})
	})

	Describe("func PackWithID()", func() {
		It("uses the pre-assigned message ID", func() {
			env := packer.PackWithID("<id>", stubMessage{"<value>"})

			Expect(env).To(Equal(
				&Envelope{
					MetaData: MetaData{
						MessageID:     "<id>",
						CausationID:   "<id>",
						CorrelationID: "<id>",
						CreatedAt:     now,
					},
					Message: stubMessage{"<value>"},
				},
			))
		})
	})

	Describe("func PackChild()", func() {
		It("inherits the cause's correlation ID", func() {
			cause := packer.Pack(stubMessage{"<cause>"})
			env := packer.PackChild(cause, stubMessage{"<effect>"})

			Expect(env.MessageID).To(Equal("2"))
			Expect(env.CausationID).To(Equal(cause.MessageID))
			Expect(env.CorrelationID).To(Equal(cause.CorrelationID))
		})
	})
})
