// Package events provides severity-tagged begin/end scan events, the
// emitter that pairs them, and append-only sinks the records land in.
package events

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/dawmd/scylla-cluster-tests/types"
)

// Period marks which half of a begin/end pair an event is.
type Period string

// Event periods.
const (
	PeriodBegin Period = "begin"
	PeriodEnd   Period = "end"
)

// Operation describes one scan attempt for event emission.
type Operation struct {
	// ScanType is the scan mode ("table", "partition", "aggregate").
	ScanType string

	// Table is the "keyspace.table" target.
	Table string

	// Node is the name of the target node.
	Node string
}

// Event is a single structured record in the event log.
//
// A begin event and its end event share the same ID.
type Event struct {
	// ID links the begin and end events of one scan attempt.
	ID uuid.UUID

	// ScanType is the scan mode of the attempt.
	ScanType string

	// Table is the "keyspace.table" target.
	Table string

	// Node is the name of the target node.
	Node string

	// Period is begin or end.
	Period Period

	// Severity is NORMAL for begin events; end events carry the
	// severity classified from the attempt's outcome.
	Severity types.Severity

	// Message is free text describing the outcome (end events).
	Message string

	// Timestamp is when the event was created.
	Timestamp time.Time

	// Duration is the attempt duration. Set on end events only.
	Duration time.Duration
}

// Pair is the begin/end event pair of one scan attempt.
type Pair struct {
	Begin Event
	End   Event
}

// String renders the event in the textual log-line format.
//
// The line always contains the "Severity.<NAME>" and
// "period_type=<begin|end>" tokens consumers grep for.
func (e Event) String() string {
	var b strings.Builder

	fmt.Fprintf(&b, "%s %s Severity.%s period_type=%s event_id=%s",
		e.Timestamp.UTC().Format("2006-01-02 15:04:05.000"),
		eventKind(e.ScanType),
		e.Severity,
		e.Period,
		e.ID,
	)
	if e.Node != "" {
		fmt.Fprintf(&b, " node=%s", e.Node)
	}
	if e.Table != "" {
		fmt.Fprintf(&b, " ks_cf=%s", e.Table)
	}
	if e.Period == PeriodEnd {
		fmt.Fprintf(&b, " duration=%s", e.Duration)
	}
	if e.Message != "" {
		fmt.Fprintf(&b, " message=%s", e.Message)
	}

	return b.String()
}

// eventKind maps a scan mode to the event class name used in log lines.
func eventKind(scanType string) string {
	switch types.Mode(scanType) {
	case types.ModeTable:
		return "FullScanEvent"
	case types.ModePartition:
		return "FullPartitionScanEvent"
	case types.ModeAggregate:
		return "FullScanAggregateEvent"
	}

	return "ScanEvent"
}
