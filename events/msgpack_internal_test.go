package events

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tinylib/msgp/msgp"

	"github.com/dawmd/scylla-cluster-tests/types"
)

func TestEventWireRoundTrip(t *testing.T) {
	ev := Event{
		ID:        uuid.New(),
		ScanType:  "partition",
		Table:     "ks.tbl",
		Node:      "node-3",
		Period:    PeriodEnd,
		Severity:  types.SeverityError,
		Message:   "scan failed: boom",
		Timestamp: time.Now().Truncate(time.Microsecond),
		Duration:  1500 * time.Millisecond,
	}

	msg := newNATSEventMessage(ev)

	data, err := msg.MarshalMsg(nil)
	require.NoError(t, err)
	assert.LessOrEqual(t, len(data), msg.Msgsize())

	var decoded natsEventMessage
	leftover, err := decoded.UnmarshalMsg(data)
	require.NoError(t, err)
	assert.Empty(t, leftover)

	got, err := decoded.toEvent()
	require.NoError(t, err)
	assert.Equal(t, ev.ID, got.ID)
	assert.Equal(t, ev.Severity, got.Severity)
	assert.Equal(t, ev.Duration, got.Duration)
	assert.True(t, ev.Timestamp.Equal(got.Timestamp))
}

func TestEventWireUnknownFieldsSkipped(t *testing.T) {
	// A future producer may add fields; decoding must skip them.
	id := uuid.NewString()

	data := msgp.AppendMapHeader(nil, 3)
	data = msgp.AppendString(data, "id")
	data = msgp.AppendString(data, id)
	data = msgp.AppendString(data, "future_field")
	data = msgp.AppendInt64(data, 7)
	data = msgp.AppendString(data, "severity")
	data = msgp.AppendString(data, "NORMAL")

	var decoded natsEventMessage
	leftover, err := decoded.UnmarshalMsg(data)
	require.NoError(t, err)
	assert.Empty(t, leftover)
	assert.Equal(t, id, decoded.ID)
	assert.Equal(t, "NORMAL", decoded.Severity)
}

func TestEventWireRejectsBadID(t *testing.T) {
	msg := natsEventMessage{ID: "not-a-uuid"}

	_, err := msg.toEvent()
	assert.Error(t, err)
}
