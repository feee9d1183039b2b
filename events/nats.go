package events

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/nats-io/nats.go/jetstream"

	"github.com/dawmd/scylla-cluster-tests/types"
)

// NATSSinkConfig configures the NATS JetStream event sink.
type NATSSinkConfig struct {
	// StreamName is the JetStream stream name for storing events.
	// Default: "sct-events"
	StreamName string

	// SubjectPrefix is the prefix for subjects. Events are published to
	// "{SubjectPrefix}.{period}.{severity}" (e.g. "sct.events.end.WARNING").
	// Default: "sct.events"
	SubjectPrefix string

	// MaxAge is the maximum age of events in the stream.
	// Default: 24 hours
	MaxAge time.Duration

	// MaxMsgs is the maximum number of events in the stream.
	// Default: 1,000,000
	MaxMsgs int64

	// Replicas is the number of stream replicas.
	// Default: 1 (use 3 for production clusters)
	Replicas int

	// PublishTimeout is the timeout for publishing events.
	// Default: 5 seconds
	PublishTimeout time.Duration

	// PollInterval is the interval WaitForCount polls the stream state.
	// Default: 50ms
	PollInterval time.Duration
}

// DefaultNATSSinkConfig returns the default configuration.
func DefaultNATSSinkConfig() NATSSinkConfig {
	return NATSSinkConfig{
		StreamName:     "sct-events",
		SubjectPrefix:  "sct.events",
		MaxAge:         24 * time.Hour,
		MaxMsgs:        1_000_000,
		Replicas:       1,
		PublishTimeout: 5 * time.Second,
		PollInterval:   50 * time.Millisecond,
	}
}

// NATSSink is a durable event log on NATS JetStream.
//
// Unlike MemorySink, events persisted to JetStream survive process
// crashes, so the scan history remains queryable across worker restarts.
type NATSSink struct {
	js     jetstream.JetStream
	stream jetstream.Stream
	config NATSSinkConfig
	closed bool
	mu     sync.RWMutex
}

// Compile-time assertion that NATSSink implements Sink.
var _ Sink = (*NATSSink)(nil)

// NATSSinkOption configures a NATSSink.
type NATSSinkOption func(*NATSSinkConfig)

// WithStreamName sets the JetStream stream name.
func WithStreamName(name string) NATSSinkOption {
	return func(c *NATSSinkConfig) {
		c.StreamName = name
	}
}

// WithSubjectPrefix sets the subject prefix for event messages.
func WithSubjectPrefix(prefix string) NATSSinkOption {
	return func(c *NATSSinkConfig) {
		c.SubjectPrefix = prefix
	}
}

// WithMaxAge sets the maximum age of events in the stream.
func WithMaxAge(d time.Duration) NATSSinkOption {
	return func(c *NATSSinkConfig) {
		c.MaxAge = d
	}
}

// WithMaxMsgs sets the maximum number of events in the stream.
func WithMaxMsgs(n int64) NATSSinkOption {
	return func(c *NATSSinkConfig) {
		c.MaxMsgs = n
	}
}

// WithReplicas sets the number of stream replicas.
func WithReplicas(n int) NATSSinkOption {
	return func(c *NATSSinkConfig) {
		c.Replicas = n
	}
}

// WithPublishTimeout sets the timeout for publishing events.
func WithPublishTimeout(d time.Duration) NATSSinkOption {
	return func(c *NATSSinkConfig) {
		c.PublishTimeout = d
	}
}

// WithPollInterval sets the WaitForCount polling interval.
func WithPollInterval(d time.Duration) NATSSinkOption {
	return func(c *NATSSinkConfig) {
		c.PollInterval = d
	}
}

// NewNATSSink creates a durable event sink on JetStream.
//
// This creates or updates the underlying stream. The caller is
// responsible for creating the JetStream context from their NATS
// connection.
//
// Parameters:
//   - js: A JetStream context (created via jetstream.New(conn))
//   - opts: Optional configuration options
//
// Returns:
//   - *NATSSink: The sink
//   - error: Error if stream creation fails
//
// Example:
//
//	nc, _ := nats.Connect("nats://localhost:4222")
//	js, _ := jetstream.New(nc)
//	sink, _ := events.NewNATSSink(js)
func NewNATSSink(js jetstream.JetStream, opts ...NATSSinkOption) (*NATSSink, error) {
	if js == nil {
		return nil, errors.New("sct: JetStream context is nil")
	}

	config := DefaultNATSSinkConfig()
	for _, opt := range opts {
		opt(&config)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	streamConfig := jetstream.StreamConfig{
		Name:        config.StreamName,
		Description: "Full-scan worker event log",
		Subjects:    []string{config.SubjectPrefix + ".>"},
		Retention:   jetstream.LimitsPolicy,
		MaxAge:      config.MaxAge,
		MaxMsgs:     config.MaxMsgs,
		Replicas:    config.Replicas,
		Storage:     jetstream.FileStorage,
		Discard:     jetstream.DiscardOld,
	}

	stream, err := js.CreateOrUpdateStream(ctx, streamConfig)
	if err != nil {
		return nil, fmt.Errorf("sct: failed to create/update event stream: %w", err)
	}

	return &NATSSink{
		js:     js,
		stream: stream,
		config: config,
	}, nil
}

// Append publishes the event to the stream.
//
// The message is published with subject "{prefix}.{period}.{severity}"
// and encoded with MessagePack.
func (s *NATSSink) Append(ctx context.Context, ev Event) error {
	s.mu.RLock()
	if s.closed {
		s.mu.RUnlock()

		return errors.New("sct: event sink is closed")
	}
	s.mu.RUnlock()

	msg := newNATSEventMessage(ev)
	data, err := msg.MarshalMsg(nil)
	if err != nil {
		return fmt.Errorf("sct: failed to marshal event: %w", err)
	}

	subject := fmt.Sprintf("%s.%s.%s", s.config.SubjectPrefix, ev.Period, ev.Severity)

	pubCtx, cancel := context.WithTimeout(ctx, s.config.PublishTimeout)
	defer cancel()

	if _, err := s.js.Publish(pubCtx, subject, data); err != nil {
		return fmt.Errorf("sct: failed to publish event: %w", err)
	}

	return nil
}

// Records reads back all events currently in the stream, in append order.
func (s *NATSSink) Records(ctx context.Context) ([]Event, error) {
	info, err := s.stream.Info(ctx)
	if err != nil {
		return nil, fmt.Errorf("sct: failed to read stream info: %w", err)
	}
	total := int(info.State.Msgs)
	if total == 0 {
		return nil, nil
	}

	cons, err := s.stream.CreateOrUpdateConsumer(ctx, jetstream.ConsumerConfig{
		DeliverPolicy:     jetstream.DeliverAllPolicy,
		AckPolicy:         jetstream.AckNonePolicy,
		InactiveThreshold: time.Minute,
	})
	if err != nil {
		return nil, fmt.Errorf("sct: failed to create reader consumer: %w", err)
	}

	batch, err := cons.FetchNoWait(total)
	if err != nil {
		return nil, fmt.Errorf("sct: failed to fetch events: %w", err)
	}

	records := make([]Event, 0, total)
	for msg := range batch.Messages() {
		var decoded natsEventMessage
		if _, err := decoded.UnmarshalMsg(msg.Data()); err != nil {
			return nil, fmt.Errorf("sct: failed to decode event: %w", err)
		}
		ev, err := decoded.toEvent()
		if err != nil {
			return nil, err
		}
		records = append(records, ev)
	}
	if err := batch.Error(); err != nil {
		return nil, fmt.Errorf("sct: failed to drain events: %w", err)
	}

	return records, nil
}

// WaitForCount blocks until the stream holds at least n events or ctx
// is done. The stream state is polled at the configured interval.
func (s *NATSSink) WaitForCount(ctx context.Context, n int) error {
	ticker := time.NewTicker(s.config.PollInterval)
	defer ticker.Stop()

	for {
		info, err := s.stream.Info(ctx)
		if err != nil {
			return fmt.Errorf("sct: failed to read stream info: %w", err)
		}
		if int(info.State.Msgs) >= n {
			return nil
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
}

// Close marks the sink as closed.
//
// After Close is called, Append returns an error. The underlying stream
// is left intact so other consumers can still read it.
func (s *NATSSink) Close() {
	s.mu.Lock()
	s.closed = true
	s.mu.Unlock()
}

// newNATSEventMessage converts an Event to its wire form.
func newNATSEventMessage(ev Event) natsEventMessage {
	return natsEventMessage{
		ID:          ev.ID.String(),
		ScanType:    ev.ScanType,
		Table:       ev.Table,
		Node:        ev.Node,
		Period:      string(ev.Period),
		Severity:    string(ev.Severity),
		Message:     ev.Message,
		TimestampUS: ev.Timestamp.UnixMicro(),
		DurationNS:  int64(ev.Duration),
	}
}

// toEvent converts the wire form back to an Event.
func (m *natsEventMessage) toEvent() (Event, error) {
	id, err := uuid.Parse(m.ID)
	if err != nil {
		return Event{}, fmt.Errorf("sct: invalid event id %q: %w", m.ID, err)
	}

	return Event{
		ID:        id,
		ScanType:  m.ScanType,
		Table:     m.Table,
		Node:      m.Node,
		Period:    Period(m.Period),
		Severity:  types.Severity(m.Severity),
		Message:   m.Message,
		Timestamp: time.UnixMicro(m.TimestampUS),
		Duration:  time.Duration(m.DurationNS),
	}, nil
}
