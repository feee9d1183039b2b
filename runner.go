package sct

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"sync/atomic"
	"time"

	"github.com/dawmd/scylla-cluster-tests/adapter/cql"
	"github.com/dawmd/scylla-cluster-tests/cluster"
	"github.com/dawmd/scylla-cluster-tests/events"
	"github.com/dawmd/scylla-cluster-tests/types"
)

// Runner executes full-scan attempts against one cluster.
//
// Each RunOnce call performs exactly one scan attempt and emits exactly
// one begin/end event pair; all driver-level failures are caught,
// classified, and converted into the end event's severity rather than
// propagated. Run wraps RunOnce in the thin interval/duration loop.
type Runner struct {
	cluster cluster.Cluster
	params  ScanParams
	config  *RunnerConfig
	emitter *events.Emitter
	keys    cluster.PartitionKeyProvider
	stopped atomic.Bool
}

// NewRunner creates a scan runner for the given cluster and parameters.
//
// Parameters:
//   - c: The target cluster handle
//   - params: The scan parameters (validated here, immutable afterwards)
//   - opts: Optional configuration options
//
// Returns:
//   - *Runner: The runner
//   - error: Error if c is nil or params are invalid
func NewRunner(c cluster.Cluster, params ScanParams, opts ...Option) (*Runner, error) {
	if c == nil {
		return nil, fmt.Errorf("sct: cluster cannot be nil")
	}
	if err := params.Validate(); err != nil {
		return nil, err
	}

	config := DefaultRunnerConfig()
	for _, opt := range opts {
		opt(config)
	}

	emitter := config.Emitter
	if emitter == nil {
		emitter = events.NewEmitter(events.NewMemorySink(),
			events.WithLogger(config.Logger),
			events.WithMetrics(config.Metrics),
		)
	}

	keys := config.Keys
	if keys == nil {
		keys = cluster.NewSchemaPartitionKeyProvider(c)
	}

	return &Runner{
		cluster: c,
		params:  params,
		config:  config,
		emitter: emitter,
		keys:    keys,
	}, nil
}

// Emitter returns the runner's event emitter.
func (r *Runner) Emitter() *events.Emitter {
	return r.emitter
}

// RunOnce performs one scan attempt to completion and returns the
// emitted begin/end event pair.
//
// RunOnce never returns an error: the outcome classification is fully
// observable through the end event's severity and message.
func (r *Runner) RunOnce(ctx context.Context) events.Pair {
	mode := r.params.Mode
	r.config.Metrics.IncScanTotal(mode)

	table, tableErr := r.resolveTable(ctx)
	if tableErr != nil {
		// The attempt still emits a full begin/end pair; the
		// resolution failure classifies like any generic failure.
		table = r.params.KeyspaceTable
	}
	node := r.pickNode()

	op := events.Operation{ScanType: mode.String(), Table: table}
	if node != nil {
		op.Node = node.Name()
	}

	r.config.Logger.Info("scan attempt starting",
		"mode", mode,
		"ks_cf", table,
		"node", op.Node,
	)

	start := time.Now()
	handle := r.emitter.Begin(ctx, op)

	var out outcome
	if tableErr != nil {
		out = failedOutcome(tableErr)
	} else {
		out = r.scan(ctx, table)
	}
	elapsed := time.Since(start)

	r.observe(mode, out, elapsed)
	severity, message := r.classify(out, node, elapsed)
	end := r.emitter.End(ctx, handle, severity, message)

	r.config.Logger.Info("scan attempt finished",
		"mode", mode,
		"ks_cf", table,
		"severity", severity,
		"duration", elapsed,
	)

	return events.Pair{Begin: handle.BeginEvent(), End: end}
}

// Run repeats RunOnce until the context is cancelled, the configured
// duration elapses, or Stop is called. The termination conditions are
// checked between attempts only; an in-flight attempt always runs to
// natural completion.
func (r *Runner) Run(ctx context.Context) error {
	if r.stopped.Load() {
		return types.ErrRunnerClosed
	}

	var deadline <-chan time.Time
	if r.params.Duration > 0 {
		timer := time.NewTimer(r.params.Duration)
		defer timer.Stop()
		deadline = timer.C
	}

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-deadline:
			return nil
		default:
		}
		if r.stopped.Load() {
			return nil
		}

		r.RunOnce(ctx)

		if r.params.Interval > 0 {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-deadline:
				return nil
			case <-time.After(r.params.Interval):
			}
		}
	}
}

// Stop requests cooperative termination of the Run loop. The flag is
// honored between attempts, never mid-query.
func (r *Runner) Stop() {
	r.stopped.Store(true)
}

// scan dispatches one attempt by mode and converts the result or error
// into an outcome.
func (r *Runner) scan(ctx context.Context, table string) outcome {
	conn, err := r.cluster.Connection(ctx)
	if err != nil {
		return r.outcomeFromError(err)
	}
	defer conn.Close()

	switch r.params.Mode {
	case types.ModePartition:
		return r.scanPartition(ctx, conn, table)
	case types.ModeAggregate:
		return r.scanAggregate(ctx, conn, table)
	default:
		return r.scanTable(ctx, conn, table)
	}
}

// scanTable executes a full-table read synchronously.
func (r *Runner) scanTable(ctx context.Context, conn cql.Connection, table string) outcome {
	rows, err := conn.Execute(ctx, "SELECT * FROM "+table)
	if err != nil {
		return r.outcomeFromError(err)
	}
	if r.params.ValidateData {
		if err := validateRows(rows); err != nil {
			return failedOutcome(err)
		}
	}

	return successOutcome(len(rows))
}

// scanAggregate executes a synchronous aggregate over the whole table,
// bounded server-side by the configured aggregate timeout.
func (r *Runner) scanAggregate(ctx context.Context, conn cql.Connection, table string) outcome {
	stmt := "SELECT COUNT(*) FROM " + table
	if r.params.AggregateTimeout > 0 {
		stmt += fmt.Sprintf(" USING TIMEOUT %dms", r.params.AggregateTimeout.Milliseconds())
	}

	rows, err := conn.Execute(ctx, stmt)
	if err != nil {
		return r.outcomeFromError(err)
	}

	out := successOutcome(len(rows))
	out.connInfo = fmt.Sprintf("%T", conn)

	return out
}

// scanPartition fetches the partition key set, picks one key, and drains
// an asynchronous paged read filtered to that partition.
func (r *Runner) scanPartition(ctx context.Context, conn cql.Connection, table string) outcome {
	keys, err := r.keys.PartitionKeys(ctx, table)
	if err != nil {
		return r.outcomeFromError(err)
	}
	if len(keys.Values) == 0 {
		return failedOutcome(types.ErrNoPartitionKeys)
	}
	key := keys.Values[rand.IntN(len(keys.Values))]

	stmt := fmt.Sprintf("SELECT * FROM %s WHERE %s = ?", table, keys.Column)

	// The delivery goroutine parks between pages waiting for
	// FetchNextPage; cancelling the attempt context releases it when the
	// drain stops early (validation failure).
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	done := make(chan error, 1)
	rows := 0

	future := conn.ExecuteAsync(ctx, stmt, r.params.PageSize, key)
	future.AddCallbacks(
		func(page cql.Page) {
			rows += len(page.Rows())
			if r.params.ValidateData {
				if err := validateRows(page.Rows()); err != nil {
					done <- err
					return
				}
			}
			if page.HasMorePages() {
				page.FetchNextPage()
				return
			}
			done <- nil
		},
		func(err error) {
			done <- err
		},
	)

	// Block until the drain resolves; in-flight queries are never
	// cancelled, the driver's own timeout bounds the wait.
	if err := <-done; err != nil {
		return r.outcomeFromError(err)
	}

	return successOutcome(rows)
}

// outcomeFromError sorts an error into the timeout or generic variant.
func (r *Runner) outcomeFromError(err error) outcome {
	if errors.Is(err, types.ErrOperationTimedOut) {
		return timedOutOutcome(err)
	}

	return failedOutcome(err)
}

// resolveTable returns the scan target, picking a random non-system
// table when requested.
func (r *Runner) resolveTable(ctx context.Context) (string, error) {
	if r.params.KeyspaceTable != RandomTable {
		return r.params.KeyspaceTable, nil
	}

	tables, err := r.cluster.Tables(ctx)
	if err != nil {
		return "", err
	}
	if len(tables) == 0 {
		return "", types.ErrNoTables
	}

	return tables[rand.IntN(len(tables))], nil
}

// pickNode selects the attempt's target node for disruption checks.
func (r *Runner) pickNode() *cluster.Node {
	nodes := r.cluster.Nodes()
	if len(nodes) == 0 {
		return nil
	}

	return nodes[rand.IntN(len(nodes))]
}

// observe records the attempt's metrics.
func (r *Runner) observe(mode types.Mode, out outcome, elapsed time.Duration) {
	r.config.Metrics.ObserveScanDuration(mode, elapsed.Seconds())

	switch out.kind {
	case outcomeSuccess:
		r.config.Metrics.ObserveScanRows(mode, out.rows)
	case outcomeTimedOut:
		r.config.Metrics.IncScanTimeout(mode)
	case outcomeFailed:
		r.config.Metrics.IncScanError(mode)
	}
}

// validateRows checks consumed rows for obviously broken content.
func validateRows(rows []cql.Row) error {
	for i, row := range rows {
		if len(row) == 0 {
			return fmt.Errorf("sct: data validation failed: empty row at index %d", i)
		}
	}

	return nil
}
