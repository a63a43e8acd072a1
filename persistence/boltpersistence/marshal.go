package boltpersistence

import (
	"time"

	"github.com/kiroku-io/kiroku/aggregate"
	"github.com/kiroku-io/kiroku/internal/x/bboltx"
	"github.com/kiroku-io/kiroku/persistence"
	"google.golang.org/protobuf/encoding/protowire"
)

// Records are stored using the protocol buffers wire format, assembled
// field-by-field so that no generated code is required. Field numbers are
// part of the storage format and must not be reused.

// Times are stored as RFC3339Nano strings; the zero time is stored as an
// empty string.

func marshalTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}

	return t.Format(time.RFC3339Nano)
}

func unmarshalTime(s string) time.Time {
	if s == "" {
		return time.Time{}
	}

	t, err := time.Parse(time.RFC3339Nano, s)
	bboltx.Must(err)

	return t
}

func appendString(data []byte, num protowire.Number, s string) []byte {
	if s == "" {
		return data
	}

	data = protowire.AppendTag(data, num, protowire.BytesType)
	return protowire.AppendString(data, s)
}

func appendBytes(data []byte, num protowire.Number, v []byte) []byte {
	if len(v) == 0 {
		return data
	}

	data = protowire.AppendTag(data, num, protowire.BytesType)
	return protowire.AppendBytes(data, v)
}

func appendUint(data []byte, num protowire.Number, v uint64) []byte {
	if v == 0 {
		return data
	}

	data = protowire.AppendTag(data, num, protowire.VarintType)
	return protowire.AppendVarint(data, v)
}

// unmarshalFields walks the wire-format fields in data, calling fn with each
// field number and its raw value.
//
// String and bytes fields are passed with typ == protowire.BytesType; varint
// fields with typ == protowire.VarintType.
func unmarshalFields(
	data []byte,
	fn func(num protowire.Number, typ protowire.Type, s []byte, v uint64),
) {
	for len(data) > 0 {
		num, typ, n := protowire.ConsumeTag(data)
		bboltx.Must(protowire.ParseError(n))
		data = data[n:]

		switch typ {
		case protowire.BytesType:
			s, n := protowire.ConsumeBytes(data)
			bboltx.Must(protowire.ParseError(n))
			data = data[n:]

			fn(num, typ, s, 0)

		case protowire.VarintType:
			v, n := protowire.ConsumeVarint(data)
			bboltx.Must(protowire.ParseError(n))
			data = data[n:]

			fn(num, typ, nil, v)

		default:
			n := protowire.ConsumeFieldValue(num, typ, data)
			bboltx.Must(protowire.ParseError(n))
			data = data[n:]
		}
	}
}

func marshalAggregateMetaData(md persistence.AggregateMetaData) []byte {
	var data []byte

	data = appendString(data, 1, md.AggregateType)
	data = appendUint(data, 2, uint64(md.Revision))
	if md.InstanceExists {
		data = appendUint(data, 3, 1)
	}

	return data
}

func unmarshalAggregateMetaData(id string, data []byte) persistence.AggregateMetaData {
	md := persistence.AggregateMetaData{
		AggregateID: id,
	}

	unmarshalFields(
		data,
		func(num protowire.Number, _ protowire.Type, s []byte, v uint64) {
			switch num {
			case 1:
				md.AggregateType = string(s)
			case 2:
				md.Revision = aggregate.Version(v)
			case 3:
				md.InstanceExists = v != 0
			}
		},
	)

	return md
}

func marshalEventEnvelope(env persistence.EventEnvelope) []byte {
	var data []byte

	data = appendString(data, 1, env.EventID)
	data = appendString(data, 2, env.AggregateID)
	data = appendString(data, 3, env.AggregateType)
	data = appendString(data, 4, env.EventType)
	data = appendUint(data, 5, uint64(env.Version))
	data = appendUint(data, 6, uint64(env.SequenceNumber))
	data = appendString(data, 7, env.CausationID)
	data = appendString(data, 8, env.CorrelationID)
	data = appendString(data, 9, marshalTime(env.CreatedAt))
	data = appendString(data, 10, env.MediaType)
	data = appendBytes(data, 11, env.Data)

	return data
}

func unmarshalEventEnvelope(data []byte) persistence.EventEnvelope {
	var env persistence.EventEnvelope

	unmarshalFields(
		data,
		func(num protowire.Number, _ protowire.Type, s []byte, v uint64) {
			switch num {
			case 1:
				env.EventID = string(s)
			case 2:
				env.AggregateID = string(s)
			case 3:
				env.AggregateType = string(s)
			case 4:
				env.EventType = string(s)
			case 5:
				env.Version = aggregate.Version(v)
			case 6:
				env.SequenceNumber = aggregate.SequenceNumber(v)
			case 7:
				env.CausationID = string(s)
			case 8:
				env.CorrelationID = string(s)
			case 9:
				env.CreatedAt = unmarshalTime(string(s))
			case 10:
				env.MediaType = string(s)
			case 11:
				env.Data = append([]byte(nil), s...)
			}
		},
	)

	return env
}

func marshalSnapshot(ss persistence.Snapshot) []byte {
	var data []byte

	data = appendString(data, 1, ss.AggregateType)
	data = appendUint(data, 2, uint64(ss.Version))
	data = appendUint(data, 3, uint64(ss.SequenceNumber))
	data = appendString(data, 4, ss.MediaType)
	data = appendBytes(data, 5, ss.Data)

	return data
}

func unmarshalSnapshot(id string, data []byte) persistence.Snapshot {
	ss := persistence.Snapshot{
		AggregateID: id,
	}

	unmarshalFields(
		data,
		func(num protowire.Number, _ protowire.Type, s []byte, v uint64) {
			switch num {
			case 1:
				ss.AggregateType = string(s)
			case 2:
				ss.Version = aggregate.Version(v)
			case 3:
				ss.SequenceNumber = aggregate.SequenceNumber(v)
			case 4:
				ss.MediaType = string(s)
			case 5:
				ss.Data = append([]byte(nil), s...)
			}
		},
	)

	return ss
}

func marshalOutboxRecord(rec persistence.OutboxRecord) []byte {
	var data []byte

	data = appendString(data, 1, rec.AggregateID)
	data = appendString(data, 2, rec.AggregateType)
	data = appendString(data, 3, rec.EventType)
	data = appendString(data, 4, rec.CausationID)
	data = appendString(data, 5, rec.CorrelationID)
	data = appendString(data, 6, marshalTime(rec.CreatedAt))
	data = appendString(data, 7, rec.MediaType)
	data = appendBytes(data, 8, rec.Data)
	data = appendString(data, 9, string(rec.Status))
	data = appendUint(data, 10, uint64(rec.AttemptCount))
	data = appendString(data, 11, marshalTime(rec.NextAttemptAt))
	data = appendString(data, 12, marshalTime(rec.LeaseExpiresAt))
	data = appendUint(data, 13, rec.Revision)

	return data
}

func unmarshalOutboxRecord(id string, data []byte) persistence.OutboxRecord {
	rec := persistence.OutboxRecord{
		MessageID: id,
	}

	unmarshalFields(
		data,
		func(num protowire.Number, _ protowire.Type, s []byte, v uint64) {
			switch num {
			case 1:
				rec.AggregateID = string(s)
			case 2:
				rec.AggregateType = string(s)
			case 3:
				rec.EventType = string(s)
			case 4:
				rec.CausationID = string(s)
			case 5:
				rec.CorrelationID = string(s)
			case 6:
				rec.CreatedAt = unmarshalTime(string(s))
			case 7:
				rec.MediaType = string(s)
			case 8:
				rec.Data = append([]byte(nil), s...)
			case 9:
				rec.Status = persistence.OutboxStatus(s)
			case 10:
				rec.AttemptCount = uint(v)
			case 11:
				rec.NextAttemptAt = unmarshalTime(string(s))
			case 12:
				rec.LeaseExpiresAt = unmarshalTime(string(s))
			case 13:
				rec.Revision = v
			}
		},
	)

	return rec
}
