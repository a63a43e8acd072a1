// Package serializer constructs the marshalers used to encode aggregate
// state, domain events and integration events for persistence.
//
// Payloads are encoded reference-style: each packet carries a media-type that
// names the encoding and the portable name of the type within it, so
// persisted data remains decodable as application types are refactored.
package serializer

import (
	"reflect"

	"github.com/dogmatiq/marshalkit"
	"github.com/dogmatiq/marshalkit/codec"
	"github.com/dogmatiq/marshalkit/codec/json"
	"github.com/dogmatiq/marshalkit/codec/protobuf"
)

// New returns a marshaler that can encode and decode values of the given
// types.
//
// Types that implement proto.Message are encoded using the native protocol
// buffers wire format; all other types are encoded as JSON.
func New(types ...reflect.Type) (marshalkit.Marshaler, error) {
	return codec.NewMarshaler(
		types,
		[]codec.Codec{
			protobuf.DefaultNativeCodec,
			&json.Codec{},
		},
	)
}

// MustNew returns a marshaler that can encode and decode values of the given
// types, or panics if it is unable to do so.
func MustNew(types ...reflect.Type) marshalkit.Marshaler {
	m, err := New(types...)
	if err != nil {
		panic(err)
	}

	return m
}
