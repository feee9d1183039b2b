// Package cluster provides the cluster handle consumed by the scan runner:
// patient connections, non-system table discovery, and per-node disruption
// status.
package cluster

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync/atomic"
	"time"

	"github.com/dawmd/scylla-cluster-tests/adapter/cql"
	"github.com/dawmd/scylla-cluster-tests/internal/logging"
	"github.com/dawmd/scylla-cluster-tests/types"
)

// Cluster is the handle to a set of reachable database nodes.
//
// Implementations must be safe for concurrent use: the scan runner reads
// node disruption state while nemesis routines mutate it.
type Cluster interface {
	// Connection returns a patient connection to the cluster.
	//
	// "Patient" means the implementation retries with backoff rather
	// than failing fast on transient connect errors.
	Connection(ctx context.Context) (cql.Connection, error)

	// Tables returns the ordered list of non-system "keyspace.table" pairs.
	Tables(ctx context.Context) ([]string, error)

	// Nodes returns the cluster's nodes.
	Nodes() []*Node
}

// Node is a single database node with an externally mutated disruption flag.
//
// A disruption (nemesis) routine running against the node sets the flag;
// the scan runner reads it lock-free when classifying failures. A flag
// flip racing the read only affects severity, never correctness.
type Node struct {
	name      string
	disrupted atomic.Bool
}

// NewNode creates a node with the given name.
func NewNode(name string) *Node {
	return &Node{name: name}
}

// Name returns the node's name.
func (n *Node) Name() string {
	return n.name
}

// IsDisrupted reports whether a disruptive fault-injection process is
// currently active on the node.
func (n *Node) IsDisrupted() bool {
	return n.disrupted.Load()
}

// SetDisrupted marks the node as under (or no longer under) disruption.
func (n *Node) SetDisrupted(v bool) {
	n.disrupted.Store(v)
}

// ConnectionFactory creates a single connection attempt to the cluster.
type ConnectionFactory func(ctx context.Context) (cql.Connection, error)

// CQLCluster is the concrete Cluster implementation over a connection
// factory. Table discovery reads system_schema.tables through a regular
// connection, so CQLCluster works with any cql.Connection implementation.
type CQLCluster struct {
	factory       ConnectionFactory
	nodes         []*Node
	logger        types.Logger
	maxAttempts   int
	retryDelay    time.Duration
	maxRetryDelay time.Duration
}

// Compile-time assertion that CQLCluster implements Cluster.
var _ Cluster = (*CQLCluster)(nil)

// Option configures a CQLCluster.
type Option func(*CQLCluster)

// WithLogger sets the structured logger.
func WithLogger(logger types.Logger) Option {
	return func(c *CQLCluster) {
		c.logger = logger
	}
}

// WithMaxConnectAttempts sets how many times Connection retries the
// factory before giving up. Default: 5.
func WithMaxConnectAttempts(n int) Option {
	return func(c *CQLCluster) {
		c.maxAttempts = n
	}
}

// WithConnectRetryDelay sets the initial delay between connect attempts.
// The delay grows exponentially up to the maximum. Default: 500ms.
func WithConnectRetryDelay(d time.Duration) Option {
	return func(c *CQLCluster) {
		c.retryDelay = d
	}
}

// WithMaxConnectRetryDelay sets the maximum delay between connect
// attempts. Default: 10s.
func WithMaxConnectRetryDelay(d time.Duration) Option {
	return func(c *CQLCluster) {
		c.maxRetryDelay = d
	}
}

// NewCQLCluster creates a cluster handle over the given connection factory
// and node set.
//
// Parameters:
//   - factory: Creates one connection attempt
//   - nodes: The cluster's nodes (at least one)
//   - opts: Optional configuration options
//
// Returns:
//   - *CQLCluster: The cluster handle
//   - error: Error if factory is nil or nodes is empty
func NewCQLCluster(factory ConnectionFactory, nodes []*Node, opts ...Option) (*CQLCluster, error) {
	if factory == nil {
		return nil, fmt.Errorf("sct: connection factory cannot be nil")
	}
	if len(nodes) == 0 {
		return nil, fmt.Errorf("sct: cluster needs at least one node")
	}

	c := &CQLCluster{
		factory:       factory,
		nodes:         nodes,
		logger:        logging.NewNopLogger(),
		maxAttempts:   5,
		retryDelay:    500 * time.Millisecond,
		maxRetryDelay: 10 * time.Second,
	}
	for _, opt := range opts {
		opt(c)
	}

	return c, nil
}

// Connection returns a patient connection, retrying the factory with
// exponential backoff on transient failures.
func (c *CQLCluster) Connection(ctx context.Context) (cql.Connection, error) {
	var lastErr error

	for attempt := 1; attempt <= c.maxAttempts; attempt++ {
		conn, err := c.factory(ctx)
		if err == nil {
			return conn, nil
		}
		lastErr = err

		c.logger.Warn("connect attempt failed",
			"attempt", attempt,
			"max_attempts", c.maxAttempts,
			"error", err,
		)

		if attempt == c.maxAttempts {
			break
		}

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(connectBackoff(attempt, c.retryDelay, c.maxRetryDelay)):
		}
	}

	return nil, fmt.Errorf("sct: connect failed after %d attempts: %w", c.maxAttempts, lastErr)
}

// Tables returns the sorted list of non-system "keyspace.table" pairs
// from the cluster's schema.
func (c *CQLCluster) Tables(ctx context.Context) ([]string, error) {
	conn, err := c.Connection(ctx)
	if err != nil {
		return nil, err
	}
	defer conn.Close()

	rows, err := conn.Execute(ctx, "SELECT keyspace_name, table_name FROM system_schema.tables")
	if err != nil {
		return nil, fmt.Errorf("sct: list tables: %w", err)
	}

	var tables []string
	for _, row := range rows {
		ks, _ := row["keyspace_name"].(string)
		table, _ := row["table_name"].(string)
		if ks == "" || table == "" || isSystemKeyspace(ks) {
			continue
		}
		tables = append(tables, ks+"."+table)
	}
	sort.Strings(tables)

	return tables, nil
}

// Nodes returns the cluster's nodes.
func (c *CQLCluster) Nodes() []*Node {
	return c.nodes
}

// isSystemKeyspace filters out Scylla/Cassandra internal keyspaces.
func isSystemKeyspace(ks string) bool {
	return strings.HasPrefix(ks, "system") || ks == "audit" || ks == "alternator_usertable"
}

// connectBackoff calculates the delay before the next connect attempt
// with exponential increase capped at maxRetryDelay.
func connectBackoff(attempt int, retryDelay, maxRetryDelay time.Duration) time.Duration {
	delay := retryDelay

	for i := 1; i < attempt && delay < maxRetryDelay; i++ {
		delay *= 2
	}

	if delay > maxRetryDelay {
		delay = maxRetryDelay
	}

	return delay
}
