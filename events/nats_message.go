package events

import "github.com/tinylib/msgp/msgp"

// natsEventMessage is the MessagePack-serializable wire form of an Event.
//
// The encode/decode methods are written against the msgp runtime directly
// (rather than generated) because the record is small and flat.
type natsEventMessage struct {
	ID          string `msg:"id"`
	ScanType    string `msg:"scan_type"`
	Table       string `msg:"ks_cf"`
	Node        string `msg:"node"`
	Period      string `msg:"period_type"`
	Severity    string `msg:"severity"`
	Message     string `msg:"message"`
	TimestampUS int64  `msg:"timestamp_us"`
	DurationNS  int64  `msg:"duration_ns"`
}

const natsEventMessageFields = 9

// MarshalMsg appends the MessagePack encoding of the message to b.
func (m *natsEventMessage) MarshalMsg(b []byte) ([]byte, error) {
	o := msgp.Require(b, m.Msgsize())

	o = msgp.AppendMapHeader(o, natsEventMessageFields)
	o = msgp.AppendString(o, "id")
	o = msgp.AppendString(o, m.ID)
	o = msgp.AppendString(o, "scan_type")
	o = msgp.AppendString(o, m.ScanType)
	o = msgp.AppendString(o, "ks_cf")
	o = msgp.AppendString(o, m.Table)
	o = msgp.AppendString(o, "node")
	o = msgp.AppendString(o, m.Node)
	o = msgp.AppendString(o, "period_type")
	o = msgp.AppendString(o, m.Period)
	o = msgp.AppendString(o, "severity")
	o = msgp.AppendString(o, m.Severity)
	o = msgp.AppendString(o, "message")
	o = msgp.AppendString(o, m.Message)
	o = msgp.AppendString(o, "timestamp_us")
	o = msgp.AppendInt64(o, m.TimestampUS)
	o = msgp.AppendString(o, "duration_ns")
	o = msgp.AppendInt64(o, m.DurationNS)

	return o, nil
}

// UnmarshalMsg decodes the message from b, returning any leftover bytes.
func (m *natsEventMessage) UnmarshalMsg(b []byte) ([]byte, error) {
	size, b, err := msgp.ReadMapHeaderBytes(b)
	if err != nil {
		return b, err
	}

	for range size {
		var key []byte
		key, b, err = msgp.ReadMapKeyZC(b)
		if err != nil {
			return b, err
		}

		switch msgp.UnsafeString(key) {
		case "id":
			m.ID, b, err = msgp.ReadStringBytes(b)
		case "scan_type":
			m.ScanType, b, err = msgp.ReadStringBytes(b)
		case "ks_cf":
			m.Table, b, err = msgp.ReadStringBytes(b)
		case "node":
			m.Node, b, err = msgp.ReadStringBytes(b)
		case "period_type":
			m.Period, b, err = msgp.ReadStringBytes(b)
		case "severity":
			m.Severity, b, err = msgp.ReadStringBytes(b)
		case "message":
			m.Message, b, err = msgp.ReadStringBytes(b)
		case "timestamp_us":
			m.TimestampUS, b, err = msgp.ReadInt64Bytes(b)
		case "duration_ns":
			m.DurationNS, b, err = msgp.ReadInt64Bytes(b)
		default:
			b, err = msgp.Skip(b)
		}
		if err != nil {
			return b, err
		}
	}

	return b, nil
}

// Msgsize returns an upper bound on the encoded size of the message.
func (m *natsEventMessage) Msgsize() int {
	size := msgp.MapHeaderSize
	for _, s := range []string{
		"id", m.ID,
		"scan_type", m.ScanType,
		"ks_cf", m.Table,
		"node", m.Node,
		"period_type", m.Period,
		"severity", m.Severity,
		"message", m.Message,
		"timestamp_us",
		"duration_ns",
	} {
		size += msgp.StringPrefixSize + len(s)
	}
	size += 2 * msgp.Int64Size

	return size
}
