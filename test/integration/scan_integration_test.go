package integration_test

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	sct "github.com/dawmd/scylla-cluster-tests"
	"github.com/dawmd/scylla-cluster-tests/cluster"
	"github.com/dawmd/scylla-cluster-tests/events"
	"github.com/dawmd/scylla-cluster-tests/types"
)

// newTestCluster creates a cluster handle over the shared container.
func newTestCluster(t *testing.T) *cluster.CQLCluster {
	t.Helper()

	clu, err := cluster.NewCQLCluster(
		sharedScylla.ConnectionFactory(),
		[]*cluster.Node{cluster.NewNode("node-1")},
	)
	require.NoError(t, err)

	return clu
}

// seedRows inserts partitions*rowsPer rows into the given table.
func seedRows(t *testing.T, table string, partitions, rowsPer int) {
	t.Helper()

	session := getSharedSession(t)
	stmt := fmt.Sprintf("INSERT INTO %s (pk, ck, payload) VALUES (?, ?, ?)", table)

	for pk := range partitions {
		for ck := range rowsPer {
			require.NoError(t, session.Query(stmt, pk, ck, "payload").Exec())
		}
	}
}

// requireCleanPair waits for the begin/end pair on the runner's sink and
// checks both events are NORMAL and share an operation ID.
func requireCleanPair(t *testing.T, runner *sct.Runner, pair events.Pair) {
	t.Helper()

	assert.Equal(t, pair.Begin.ID, pair.End.ID)
	assert.Equal(t, events.PeriodBegin, pair.Begin.Period)
	assert.Equal(t, events.PeriodEnd, pair.End.Period)
	assert.Equal(t, types.SeverityNormal, pair.Begin.Severity)
	assert.Equal(t, types.SeverityNormal, pair.End.Severity)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	require.NoError(t, runner.Emitter().Sink().WaitForCount(ctx, 2))
}

func TestFullTableScan(t *testing.T) {
	table := createTestTable(t, "full_scan", scanTableSchema)
	seedRows(t, table, 5, 20)

	runner, err := sct.NewRunner(newTestCluster(t), sct.ScanParams{
		Mode:          types.ModeTable,
		KeyspaceTable: sharedScylla.Keyspace + "." + table,
		ValidateData:  true,
	})
	require.NoError(t, err)

	pair := runner.RunOnce(context.Background())

	requireCleanPair(t, runner, pair)
	assert.Contains(t, pair.End.Message, "scanned 100 rows")
}

func TestPartitionScan(t *testing.T) {
	table := createTestTable(t, "partition_scan", scanTableSchema)
	seedRows(t, table, 3, 50)

	runner, err := sct.NewRunner(newTestCluster(t), sct.ScanParams{
		Mode:          types.ModePartition,
		KeyspaceTable: sharedScylla.Keyspace + "." + table,
		ValidateData:  true,
	})
	require.NoError(t, err)

	pair := runner.RunOnce(context.Background())

	requireCleanPair(t, runner, pair)
	assert.Contains(t, pair.End.Message, "scanned 50 rows")
}

func TestAggregateScan(t *testing.T) {
	table := createTestTable(t, "aggregate_scan", scanTableSchema)
	seedRows(t, table, 4, 10)

	runner, err := sct.NewRunner(newTestCluster(t), sct.ScanParams{
		Mode:             types.ModeAggregate,
		KeyspaceTable:    sharedScylla.Keyspace + "." + table,
		AggregateTimeout: 5 * time.Minute,
	})
	require.NoError(t, err)

	pair := runner.RunOnce(context.Background())

	requireCleanPair(t, runner, pair)
	assert.Contains(t, pair.End.Message, "aggregate completed")
	// The clean-completion message names the connection implementation
	// that served the aggregate.
	assert.Contains(t, pair.End.Message, "Connection")
}

func TestRandomTableScan(t *testing.T) {
	table := createTestTable(t, "random_scan", scanTableSchema)
	seedRows(t, table, 2, 10)

	clu := newTestCluster(t)

	tables, err := clu.Tables(context.Background())
	require.NoError(t, err)
	assert.Contains(t, tables, sharedScylla.Keyspace+"."+table)

	runner, err := sct.NewRunner(clu, sct.ScanParams{
		Mode:          types.ModeTable,
		KeyspaceTable: sct.RandomTable,
	})
	require.NoError(t, err)

	pair := runner.RunOnce(context.Background())

	// Whatever table the random pick lands on, the scan must complete
	// cleanly against a healthy cluster.
	requireCleanPair(t, runner, pair)
	assert.NotEmpty(t, pair.End.Table)
	assert.NotEqual(t, sct.RandomTable, pair.End.Table)
}

func TestScanLoopEmitsOrderedPairs(t *testing.T) {
	table := createTestTable(t, "scan_loop", scanTableSchema)
	seedRows(t, table, 2, 5)

	runner, err := sct.NewRunner(newTestCluster(t), sct.ScanParams{
		Mode:          types.ModeTable,
		KeyspaceTable: sharedScylla.Keyspace + "." + table,
		Duration:      3 * time.Second,
		Interval:      500 * time.Millisecond,
	})
	require.NoError(t, err)

	require.NoError(t, runner.Run(context.Background()))

	records, err := runner.Emitter().Sink().Records(context.Background())
	require.NoError(t, err)
	require.NotEmpty(t, records)
	require.Zero(t, len(records)%2, "events must come in begin/end pairs")

	for i := 0; i < len(records); i += 2 {
		begin, end := records[i], records[i+1]
		assert.Equal(t, events.PeriodBegin, begin.Period)
		assert.Equal(t, events.PeriodEnd, end.Period)
		assert.Equal(t, begin.ID, end.ID)
	}
}
