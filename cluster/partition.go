package cluster

import (
	"context"
	"fmt"
	"strings"

	"github.com/dawmd/scylla-cluster-tests/types"
)

// PartitionKeys is the key set for partition-mode scans: the partition
// key column of a table and a sample of its distinct values.
type PartitionKeys struct {
	// Column is the name of the (first) partition key column.
	Column string

	// Values holds distinct partition key values, in server order.
	Values []any
}

// PartitionKeyProvider supplies the partition key set for a table.
type PartitionKeyProvider interface {
	// PartitionKeys returns the partition key column and a sample of
	// its values for the "keyspace.table" target.
	PartitionKeys(ctx context.Context, ksCf string) (PartitionKeys, error)
}

// SchemaPartitionKeyProvider discovers the partition key column from
// system_schema.columns and samples distinct values with SELECT DISTINCT.
type SchemaPartitionKeyProvider struct {
	cluster Cluster
	limit   int
}

// Compile-time assertion that SchemaPartitionKeyProvider implements
// PartitionKeyProvider.
var _ PartitionKeyProvider = (*SchemaPartitionKeyProvider)(nil)

// ProviderOption configures a SchemaPartitionKeyProvider.
type ProviderOption func(*SchemaPartitionKeyProvider)

// WithKeyLimit caps how many distinct partition keys are sampled.
// Default: 100.
func WithKeyLimit(n int) ProviderOption {
	return func(p *SchemaPartitionKeyProvider) {
		p.limit = n
	}
}

// NewSchemaPartitionKeyProvider creates a provider reading key metadata
// and values through the given cluster's connections.
func NewSchemaPartitionKeyProvider(c Cluster, opts ...ProviderOption) *SchemaPartitionKeyProvider {
	p := &SchemaPartitionKeyProvider{
		cluster: c,
		limit:   100,
	}
	for _, opt := range opts {
		opt(p)
	}

	return p
}

// PartitionKeys returns the first partition key column of ksCf and up to
// the configured limit of its distinct values.
func (p *SchemaPartitionKeyProvider) PartitionKeys(ctx context.Context, ksCf string) (PartitionKeys, error) {
	ks, table, ok := strings.Cut(ksCf, ".")
	if !ok {
		return PartitionKeys{}, fmt.Errorf("sct: malformed table identifier %q", ksCf)
	}

	conn, err := p.cluster.Connection(ctx)
	if err != nil {
		return PartitionKeys{}, err
	}
	defer conn.Close()

	rows, err := conn.Execute(ctx,
		"SELECT column_name, kind, position FROM system_schema.columns WHERE keyspace_name = ? AND table_name = ?",
		ks, table,
	)
	if err != nil {
		return PartitionKeys{}, fmt.Errorf("sct: read key columns for %s: %w", ksCf, err)
	}

	column := ""
	bestPos := -1
	for _, row := range rows {
		kind, _ := row["kind"].(string)
		if kind != "partition_key" {
			continue
		}
		pos := columnPosition(row["position"])
		if bestPos == -1 || pos < bestPos {
			name, _ := row["column_name"].(string)
			column = name
			bestPos = pos
		}
	}
	if column == "" {
		return PartitionKeys{}, fmt.Errorf("sct: no partition key column found for %s", ksCf)
	}

	stmt := fmt.Sprintf("SELECT DISTINCT %s FROM %s.%s LIMIT %d", column, ks, table, p.limit)
	keyRows, err := conn.Execute(ctx, stmt)
	if err != nil {
		return PartitionKeys{}, fmt.Errorf("sct: sample partition keys for %s: %w", ksCf, err)
	}
	if len(keyRows) == 0 {
		return PartitionKeys{}, types.ErrNoPartitionKeys
	}

	values := make([]any, 0, len(keyRows))
	for _, row := range keyRows {
		values = append(values, row[column])
	}

	return PartitionKeys{Column: column, Values: values}, nil
}

// columnPosition normalizes the schema position column across driver
// integer representations.
func columnPosition(v any) int {
	switch n := v.(type) {
	case int:
		return n
	case int32:
		return int(n)
	case int64:
		return int(n)
	}

	return 0
}
