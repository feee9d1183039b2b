package events

import (
	"context"
	"fmt"
	"os"
	"sync"
)

// FileSink appends events as textual log lines to a file, one event per
// line, while keeping an in-memory copy for Records and WaitForCount.
//
// The line format is Event.String: it carries the "Severity.<NAME>" and
// "period_type=<begin|end>" tokens, so the file can be consumed with
// plain text tooling.
type FileSink struct {
	mu      sync.Mutex
	file    *os.File
	records []Event
	changed chan struct{}
	closed  bool
}

// Compile-time assertion that FileSink implements Sink.
var _ Sink = (*FileSink)(nil)

// NewFileSink opens (or creates) the log file at path in append mode.
//
// Parameters:
//   - path: The event log file path
//
// Returns:
//   - *FileSink: The sink
//   - error: Error if the file cannot be opened
func NewFileSink(path string) (*FileSink, error) {
	file, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, fmt.Errorf("sct: open event log: %w", err)
	}

	return &FileSink{
		file:    file,
		changed: make(chan struct{}),
	}, nil
}

// Append writes the event as one line and wakes all waiters.
func (s *FileSink) Append(_ context.Context, ev Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return fmt.Errorf("sct: event log is closed")
	}

	if _, err := s.file.WriteString(ev.String() + "\n"); err != nil {
		return fmt.Errorf("sct: write event log: %w", err)
	}

	s.records = append(s.records, ev)
	close(s.changed)
	s.changed = make(chan struct{})

	return nil
}

// Records returns a copy of all appended events in order.
func (s *FileSink) Records(_ context.Context) ([]Event, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]Event, len(s.records))
	copy(out, s.records)

	return out, nil
}

// WaitForCount blocks until at least n events are present or ctx is done.
func (s *FileSink) WaitForCount(ctx context.Context, n int) error {
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

// Close flushes and closes the underlying file.
//
// Close is safe to call multiple times.
func (s *FileSink) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil
	}
	s.closed = true

	return s.file.Close()
}
