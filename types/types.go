// Package types provides shared types and errors for the full-scan worker.
//
// This is a "leaf" package with no imports from other packages in this
// module, allowing it to be imported by any package without causing
// import cycles.
package types

import (
	"errors"
	"time"
)

// Mode selects the shape of a scan operation.
type Mode string

// Supported scan modes.
const (
	// ModeTable reads an entire table synchronously.
	ModeTable Mode = "table"
	// ModePartition reads a single partition with asynchronous paging.
	ModePartition Mode = "partition"
	// ModeAggregate runs a cluster-side aggregate (COUNT) over a table.
	ModeAggregate Mode = "aggregate"
)

// String returns the string representation of the Mode.
func (m Mode) String() string {
	return string(m)
}

// Valid reports whether the mode is one of the supported scan modes.
func (m Mode) Valid() bool {
	switch m {
	case ModeTable, ModePartition, ModeAggregate:
		return true
	}

	return false
}

// Severity classifies an emitted event.
//
// WARNING marks tolerated or expected failures (transient scan timeouts,
// failures attributable to an active disruption). ERROR marks unexpected,
// actionable failures.
type Severity string

// Severity levels, ordered by increasing urgency.
const (
	SeverityNormal   Severity = "NORMAL"
	SeverityWarning  Severity = "WARNING"
	SeverityError    Severity = "ERROR"
	SeverityCritical Severity = "CRITICAL"
)

// String returns the string representation of the Severity.
func (s Severity) String() string {
	return string(s)
}

// Sentinel errors for common failure scenarios.
var (
	// ErrOperationTimedOut indicates the driver reported a server-side or
	// client-side timeout for a query. Matched via errors.Is; the concrete
	// error usually is a *TimedOutError carrying the cause.
	ErrOperationTimedOut = errors.New("sct: operation timed out")

	// ErrNoTables indicates the cluster reported no non-system tables to
	// scan when a random target table was requested.
	ErrNoTables = errors.New("sct: no non-system tables available")

	// ErrNoPartitionKeys indicates the partition key provider returned an
	// empty key set for the target table.
	ErrNoPartitionKeys = errors.New("sct: no partition keys available")

	// ErrRunnerClosed indicates an operation was attempted on a closed runner.
	ErrRunnerClosed = errors.New("sct: runner is closed")
)

// TimedOutError wraps a driver-level timeout with its elapsed time and cause.
//
// It matches ErrOperationTimedOut via errors.Is, so callers can classify
// without depending on the driver package.
type TimedOutError struct {
	// Op describes the operation that timed out (e.g. "execute", "page fetch").
	Op string

	// Elapsed is how long the operation ran before the timeout surfaced.
	Elapsed time.Duration

	// Cause is the underlying driver error, if any.
	Cause error
}

// Error implements the error interface.
func (e *TimedOutError) Error() string {
	msg := "sct: " + e.Op + " timed out"
	if e.Cause != nil {
		msg += ": " + e.Cause.Error()
	}

	return msg
}

// Unwrap returns the underlying cause for errors.Is/As compatibility.
func (e *TimedOutError) Unwrap() error {
	return e.Cause
}

// Is reports a match for ErrOperationTimedOut.
func (e *TimedOutError) Is(target error) bool {
	return target == ErrOperationTimedOut
}

// ScanError wraps a generic (non-timeout) failure from a scan attempt.
type ScanError struct {
	// Mode is the scan mode that failed.
	Mode Mode

	// Table is the "keyspace.table" target of the scan.
	Table string

	// Cause is the underlying error.
	Cause error
}

// Error implements the error interface.
func (e *ScanError) Error() string {
	return "sct: " + e.Mode.String() + " scan of " + e.Table + " failed: " + e.Cause.Error()
}

// Unwrap returns the underlying cause for errors.Is/As compatibility.
func (e *ScanError) Unwrap() error {
	return e.Cause
}

// Logger defines the logging interface used throughout the module.
//
// The interface is compatible with zap.SugaredLogger's key-value style.
// Implementations must be safe for concurrent use.
type Logger interface {
	// Debug logs a debug message with optional key-value pairs.
	Debug(msg string, keysAndValues ...any)

	// Info logs an informational message with optional key-value pairs.
	Info(msg string, keysAndValues ...any)

	// Warn logs a warning message with optional key-value pairs.
	Warn(msg string, keysAndValues ...any)

	// Error logs an error message with optional key-value pairs.
	Error(msg string, keysAndValues ...any)

	// Fatal logs a fatal message with optional key-value pairs.
	Fatal(msg string, keysAndValues ...any)
}
