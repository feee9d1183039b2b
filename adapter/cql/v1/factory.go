package v1

import (
	"context"
	"fmt"
	"time"

	"github.com/gocql/gocql"

	"github.com/dawmd/scylla-cluster-tests/adapter/cql"
)

// FactoryConfig holds the session settings applied by Factory.
type FactoryConfig struct {
	Keyspace       string
	Consistency    gocql.Consistency
	ConnectTimeout time.Duration
	QueryTimeout   time.Duration
	PageSize       int
}

// FactoryOption configures a FactoryConfig.
type FactoryOption func(*FactoryConfig)

// WithKeyspace sets the session's default keyspace.
func WithKeyspace(keyspace string) FactoryOption {
	return func(c *FactoryConfig) {
		c.Keyspace = keyspace
	}
}

// WithConsistency sets the session's default consistency level
// (default: gocql.Quorum).
func WithConsistency(consistency gocql.Consistency) FactoryOption {
	return func(c *FactoryConfig) {
		c.Consistency = consistency
	}
}

// WithConnectTimeout sets the cluster connect timeout (default: 10s).
func WithConnectTimeout(d time.Duration) FactoryOption {
	return func(c *FactoryConfig) {
		c.ConnectTimeout = d
	}
}

// WithQueryTimeout sets the per-query timeout (default: gocql's).
func WithQueryTimeout(d time.Duration) FactoryOption {
	return func(c *FactoryConfig) {
		c.QueryTimeout = d
	}
}

// WithFactoryPageSize sets the page size of connections the factory
// produces (default: DefaultPageSize).
func WithFactoryPageSize(n int) FactoryOption {
	return func(c *FactoryConfig) {
		c.PageSize = n
	}
}

// Factory returns a connection factory that dials the given hosts with
// password authentication and wraps the session as a cql.Connection.
//
// The returned function matches cluster.ConnectionFactory, so it plugs
// straight into cluster.NewCQLCluster. Each invocation creates a fresh
// session; callers own closing it via Connection.Close.
//
// Parameters:
//   - hosts: Contact points
//   - user: CQL username (empty disables authentication)
//   - password: CQL password
//   - opts: Optional session settings
//
// Returns:
//   - func: The connection factory
func Factory(hosts []string, user, password string, opts ...FactoryOption) func(context.Context) (cql.Connection, error) {
	config := &FactoryConfig{
		Consistency:    gocql.Quorum,
		ConnectTimeout: 10 * time.Second,
		PageSize:       DefaultPageSize,
	}
	for _, opt := range opts {
		opt(config)
	}

	return func(ctx context.Context) (cql.Connection, error) {
		clusterConfig := gocql.NewCluster(hosts...)
		clusterConfig.Consistency = config.Consistency
		clusterConfig.ConnectTimeout = config.ConnectTimeout
		if config.Keyspace != "" {
			clusterConfig.Keyspace = config.Keyspace
		}
		if config.QueryTimeout > 0 {
			clusterConfig.Timeout = config.QueryTimeout
		}
		if user != "" {
			clusterConfig.Authenticator = gocql.PasswordAuthenticator{
				Username: user,
				Password: password,
			}
		}

		session, err := clusterConfig.CreateSession()
		if err != nil {
			return nil, fmt.Errorf("create session: %w", err)
		}
		if err := ctx.Err(); err != nil {
			session.Close()
			return nil, err
		}

		return NewConnection(session, WithPageSize(config.PageSize)), nil
	}
}
