// Package logging provides internal logging utilities for the scan worker.
package logging

import "github.com/dawmd/scylla-cluster-tests/types"

// NopLogger discards everything logged to it.
//
// It is the default when no logger is configured, so the rest of the
// module never needs nil checks before logging.
type NopLogger struct{}

var _ types.Logger = (*NopLogger)(nil)

// NewNopLogger returns a logger that drops all messages.
func NewNopLogger() *NopLogger {
	return &NopLogger{}
}

func (l *NopLogger) Debug(_ string, _ ...any) {}
func (l *NopLogger) Info(_ string, _ ...any)  {}
func (l *NopLogger) Warn(_ string, _ ...any)  {}
func (l *NopLogger) Error(_ string, _ ...any) {}

// Fatal discards the message without exiting, unlike a real logger.
func (l *NopLogger) Fatal(_ string, _ ...any) {}
