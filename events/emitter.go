package events

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/dawmd/scylla-cluster-tests/internal/logging"
	"github.com/dawmd/scylla-cluster-tests/internal/metrics"
	"github.com/dawmd/scylla-cluster-tests/types"
)

// Emitter wraps scan attempts in begin/end event pairs.
//
// Begin is synchronous and always produces a NORMAL event. End fires at
// most once per handle; the severity is supplied by the caller from the
// attempt's outcome classification. Sink append failures are logged and
// never propagate, so event emission cannot fail a scan attempt.
type Emitter struct {
	sink    Sink
	logger  types.Logger
	metrics types.MetricsCollector
	now     func() time.Time
}

// EmitterOption configures an Emitter.
type EmitterOption func(*Emitter)

// WithLogger sets the structured logger.
func WithLogger(logger types.Logger) EmitterOption {
	return func(e *Emitter) {
		e.logger = logger
	}
}

// WithMetrics sets the metrics collector.
func WithMetrics(collector types.MetricsCollector) EmitterOption {
	return func(e *Emitter) {
		e.metrics = collector
	}
}

// WithClock overrides the time source. Intended for tests.
func WithClock(now func() time.Time) EmitterOption {
	return func(e *Emitter) {
		e.now = now
	}
}

// NewEmitter creates an emitter appending to the given sink.
//
// Parameters:
//   - sink: The append-only event sink (nil falls back to a MemorySink)
//   - opts: Optional configuration options
//
// Returns:
//   - *Emitter: The emitter
func NewEmitter(sink Sink, opts ...EmitterOption) *Emitter {
	if sink == nil {
		sink = NewMemorySink()
	}

	e := &Emitter{
		sink:    sink,
		logger:  logging.NewNopLogger(),
		metrics: metrics.NewNopMetrics(),
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(e)
	}

	return e
}

// Sink returns the emitter's sink.
func (e *Emitter) Sink() Sink {
	return e.sink
}

// Handle links a begin event to its pending end event.
type Handle struct {
	begin   Event
	started time.Time
	ended   atomic.Bool
}

// Begin emits the begin event for op and returns the handle the end
// event is emitted through.
func (e *Emitter) Begin(ctx context.Context, op Operation) *Handle {
	now := e.now()
	ev := Event{
		ID:        uuid.New(),
		ScanType:  op.ScanType,
		Table:     op.Table,
		Node:      op.Node,
		Period:    PeriodBegin,
		Severity:  types.SeverityNormal,
		Timestamp: now,
	}
	e.append(ctx, ev)

	return &Handle{begin: ev, started: now}
}

// End emits the end event for the handle with the classified severity.
//
// End fires at most once per handle; subsequent calls are no-ops and
// return the zero Event.
func (e *Emitter) End(ctx context.Context, h *Handle, severity types.Severity, message string) Event {
	if !h.ended.CompareAndSwap(false, true) {
		return Event{}
	}

	now := e.now()
	ev := Event{
		ID:        h.begin.ID,
		ScanType:  h.begin.ScanType,
		Table:     h.begin.Table,
		Node:      h.begin.Node,
		Period:    PeriodEnd,
		Severity:  severity,
		Message:   message,
		Timestamp: now,
		Duration:  now.Sub(h.started),
	}
	e.append(ctx, ev)

	return ev
}

// BeginEvent returns the begin event of the handle.
func (h *Handle) BeginEvent() Event {
	return h.begin
}

func (e *Emitter) append(ctx context.Context, ev Event) {
	if err := e.sink.Append(ctx, ev); err != nil {
		e.logger.Error("appending event to sink failed",
			"event_id", ev.ID,
			"period_type", ev.Period,
			"error", err,
		)

		return
	}

	e.metrics.IncEventEmitted(ev.Severity)
}
