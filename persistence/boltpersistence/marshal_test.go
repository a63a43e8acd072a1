package boltpersistence

import (
	"time"

	. "github.com/onsi/ginkgo"
	. "github.com/onsi/gomega"
	"google.golang.org/protobuf/encoding/protowire"
)

var _ = Describe("func marshalTime()", func() {
	It("represents the zero time as an empty string", func() {
		Expect(marshalTime(time.Time{})).To(BeEmpty())
		Expect(unmarshalTime("").IsZero()).To(BeTrue())
	})

	It("round-trips with nanosecond precision", func() {
		t := time.Date(2024, 5, 1, 12, 0, 0, 123456789, time.UTC)
		Expect(unmarshalTime(marshalTime(t))).To(BeTemporally("==", t))
	})
})

var _ = Describe("func unmarshalFields()", func() {
	It("panics if the data is corrupt", func() {
		Expect(func() {
			unmarshalFields(
				[]byte{0xff},
				func(_ protowire.Number, _ protowire.Type, _ []byte, _ uint64) {},
			)
		}).To(Panic())
	})
})
