package events

import (
	"context"
	"sync"
)

// Sink is a durable, append-only, queryable event log.
//
// Consumers synchronize on eventual emission with WaitForCount instead
// of polling the producer. Implementations must be safe for concurrent
// use.
type Sink interface {
	// Append adds one event to the log.
	Append(ctx context.Context, ev Event) error

	// Records returns all events appended so far, in append order.
	Records(ctx context.Context) ([]Event, error)

	// WaitForCount blocks until at least n events are present or ctx
	// is done. Callers bound the wait with a context deadline.
	WaitForCount(ctx context.Context, n int) error
}

// MemorySink is an in-memory Sink.
//
// Appends are broadcast to waiters through a channel that is swapped on
// every append, so WaitForCount never polls.
type MemorySink struct {
	mu      sync.Mutex
	records []Event
	changed chan struct{}
}

// Compile-time assertion that MemorySink implements Sink.
var _ Sink = (*MemorySink)(nil)

// NewMemorySink creates an empty in-memory sink.
func NewMemorySink() *MemorySink {
	return &MemorySink{
		changed: make(chan struct{}),
	}
}

// Append adds the event and wakes all waiters.
func (s *MemorySink) Append(_ context.Context, ev Event) error {
	s.mu.Lock()
	s.records = append(s.records, ev)
	close(s.changed)
	s.changed = make(chan struct{})
	s.mu.Unlock()

	return nil
}

// Records returns a copy of all appended events in order.
func (s *MemorySink) Records(_ context.Context) ([]Event, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]Event, len(s.records))
	copy(out, s.records)

	return out, nil
}

// Len returns the current number of records.
func (s *MemorySink) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	return len(s.records)
}

// WaitForCount blocks until at least n events are present or ctx is done.
func (s *MemorySink) WaitForCount(ctx context.Context, n int) error {
	for {
		s.mu.Lock()
		if len(s.records) >= n {
			s.mu.Unlock()
			return nil
		}
		ch := s.changed
		s.mu.Unlock()

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ch:
		}
	}
}
