package cluster_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dawmd/scylla-cluster-tests/adapter/cql"
	"github.com/dawmd/scylla-cluster-tests/cluster"
	"github.com/dawmd/scylla-cluster-tests/test/testutil"
	"github.com/dawmd/scylla-cluster-tests/types"
)

// keyProviderCluster builds a cluster whose connection serves the schema
// metadata and key sample queries from canned rows.
func keyProviderCluster(t *testing.T, conn *testutil.MockConnection) *cluster.CQLCluster {
	t.Helper()

	factory := func(_ context.Context) (cql.Connection, error) {
		return conn, nil
	}

	clu, err := cluster.NewCQLCluster(factory, []*cluster.Node{cluster.NewNode("node-1")})
	require.NoError(t, err)

	return clu
}

func TestPartitionKeysPicksFirstKeyColumn(t *testing.T) {
	conn := testutil.NewMockConnection()
	conn.SetRowsFor("SELECT column_name", []cql.Row{
		{"column_name": "ck", "kind": "clustering", "position": 0},
		{"column_name": "pk2", "kind": "partition_key", "position": 1},
		{"column_name": "pk1", "kind": "partition_key", "position": 0},
	})
	conn.SetRowsFor("SELECT DISTINCT pk1", []cql.Row{
		{"pk1": 10},
		{"pk1": 20},
	})

	provider := cluster.NewSchemaPartitionKeyProvider(keyProviderCluster(t, conn))

	keys, err := provider.PartitionKeys(context.Background(), "ks.tbl")
	require.NoError(t, err)
	assert.Equal(t, "pk1", keys.Column)
	assert.Equal(t, []any{10, 20}, keys.Values)
}

func TestPartitionKeysRespectsLimit(t *testing.T) {
	conn := testutil.NewMockConnection()
	conn.SetRowsFor("SELECT column_name", []cql.Row{
		{"column_name": "pk", "kind": "partition_key", "position": 0},
	})
	conn.SetRowsFor("SELECT DISTINCT pk FROM ks.tbl LIMIT 5", []cql.Row{
		{"pk": 1},
	})

	provider := cluster.NewSchemaPartitionKeyProvider(
		keyProviderCluster(t, conn),
		cluster.WithKeyLimit(5),
	)

	keys, err := provider.PartitionKeys(context.Background(), "ks.tbl")
	require.NoError(t, err)
	assert.Equal(t, []any{1}, keys.Values)
}

func TestPartitionKeysEmptyTable(t *testing.T) {
	conn := testutil.NewMockConnection()
	conn.SetRowsFor("SELECT column_name", []cql.Row{
		{"column_name": "pk", "kind": "partition_key", "position": 0},
	})
	// No DISTINCT rule: the mock's default empty row set applies.

	provider := cluster.NewSchemaPartitionKeyProvider(keyProviderCluster(t, conn))

	_, err := provider.PartitionKeys(context.Background(), "ks.tbl")
	assert.ErrorIs(t, err, types.ErrNoPartitionKeys)
}

func TestPartitionKeysNoKeyColumn(t *testing.T) {
	conn := testutil.NewMockConnection()
	conn.SetRowsFor("SELECT column_name", []cql.Row{
		{"column_name": "ck", "kind": "clustering", "position": 0},
	})

	provider := cluster.NewSchemaPartitionKeyProvider(keyProviderCluster(t, conn))

	_, err := provider.PartitionKeys(context.Background(), "ks.tbl")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no partition key column")
}

func TestPartitionKeysMalformedTarget(t *testing.T) {
	provider := cluster.NewSchemaPartitionKeyProvider(
		keyProviderCluster(t, testutil.NewMockConnection()),
	)

	_, err := provider.PartitionKeys(context.Background(), "no-dot-here")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "malformed table identifier")
}
