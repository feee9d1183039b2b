package sct

import (
	"fmt"
	"time"

	"github.com/dawmd/scylla-cluster-tests/cluster"
	"github.com/dawmd/scylla-cluster-tests/types"
)

// outcomeKind tags the result variant of one scan attempt.
type outcomeKind int

const (
	outcomeSuccess outcomeKind = iota
	outcomeTimedOut
	outcomeFailed
)

// outcome is the result of one scan attempt, consumed once by the
// severity classification and then discarded.
type outcome struct {
	kind outcomeKind

	// rows is the number of rows consumed (success only).
	rows int

	// err is the failure cause (timeout and failure variants).
	err error

	// connInfo is the driver representation of the connection that
	// served the query (aggregate success only), so operators can see
	// which backend path served the aggregate.
	connInfo string
}

func successOutcome(rows int) outcome {
	return outcome{kind: outcomeSuccess, rows: rows}
}

func timedOutOutcome(err error) outcome {
	return outcome{kind: outcomeTimedOut, err: err}
}

func failedOutcome(err error) outcome {
	return outcome{kind: outcomeFailed, err: err}
}

// classify derives the end-event severity and message from the attempt
// outcome.
//
// Policy:
//   - clean completion → NORMAL
//   - driver timeout → WARNING for table/partition scans; for aggregate
//     scans WARNING only when the configured timeout bound is generous,
//     ERROR otherwise. An active disruption never downgrades a timeout.
//   - generic failure → WARNING when the target node is under an active
//     disruption (failure attributable to intentional fault injection),
//     ERROR otherwise.
func (r *Runner) classify(out outcome, node *cluster.Node, elapsed time.Duration) (types.Severity, string) {
	mode := r.params.Mode

	switch out.kind {
	case outcomeSuccess:
		if mode == types.ModeAggregate {
			return types.SeverityNormal,
				fmt.Sprintf("aggregate completed in %s via %s", elapsed.Round(time.Millisecond), out.connInfo)
		}

		return types.SeverityNormal,
			fmt.Sprintf("scanned %d rows in %s", out.rows, elapsed.Round(time.Millisecond))

	case outcomeTimedOut:
		severity := types.SeverityWarning
		if mode == types.ModeAggregate && !r.generousAggregateBound() {
			severity = types.SeverityError
		}

		return severity, fmt.Sprintf("scan timed out after %s: %v", elapsed.Round(time.Millisecond), out.err)

	default:
		if node != nil && node.IsDisrupted() {
			return types.SeverityWarning,
				fmt.Sprintf("scan failed: %v (disruption active on node %s)", out.err, node.Name())
		}

		return types.SeverityError, fmt.Sprintf("scan failed: %v", out.err)
	}
}

// generousAggregateBound reports whether the configured aggregate
// timeout is at or above the generous boundary.
func (r *Runner) generousAggregateBound() bool {
	return r.config.GenerousAggregateTimeout > 0 &&
		r.params.AggregateTimeout >= r.config.GenerousAggregateTimeout
}
