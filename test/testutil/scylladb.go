package testutil

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/gocql/gocql"
	"github.com/testcontainers/testcontainers-go/modules/scylladb"

	v1 "github.com/dawmd/scylla-cluster-tests/adapter/cql/v1"
	"github.com/dawmd/scylla-cluster-tests/cluster"
)

// ScyllaDBContainer wraps a ScyllaDB test container.
type ScyllaDBContainer struct {
	Container *scylladb.Container
	Host      string
	Keyspace  string
	Session   *gocql.Session
}

// ScyllaDBOptions configures the ScyllaDB container.
type ScyllaDBOptions struct {
	// Image is the ScyllaDB image to use. Defaults to "scylladb/scylla:6.2".
	Image string
	// Keyspace is the keyspace to create. Defaults to "sct_test".
	Keyspace string
	// Memory is the memory limit for ScyllaDB. Defaults to "512M".
	Memory string
	// SMP is the number of CPU cores for ScyllaDB. Defaults to 1.
	SMP int
}

// DefaultScyllaDBOptions returns default options for ScyllaDB container.
func DefaultScyllaDBOptions() ScyllaDBOptions {
	return ScyllaDBOptions{
		Image:    "scylladb/scylla:6.2",
		Keyspace: "sct_test",
		Memory:   "512M",
		SMP:      1,
	}
}

// StartScyllaDBCluster starts a ScyllaDB container without a testing
// context, for use from TestMain. The caller owns termination via
// Terminate.
//
// Uses --reactor-backend=epoll to avoid Linux AIO requirements.
//
// Parameters:
//   - ctx: Context for container operations
//   - opts: Optional configuration (nil uses defaults)
//
// Returns:
//   - *ScyllaDBContainer: Container with connection details and session
//   - error: Error if container fails to start
//
// Note: ScyllaDB requires Linux AIO (aio-max-nr kernel limit). If your system's
// /proc/sys/fs/aio-nr equals /proc/sys/fs/aio-max-nr, ScyllaDB will fail to start.
// To check: cat /proc/sys/fs/aio-nr /proc/sys/fs/aio-max-nr
// To fix: sudo sysctl -w fs.aio-max-nr=1048576
func StartScyllaDBCluster(ctx context.Context, opts *ScyllaDBOptions) (*ScyllaDBContainer, error) {
	if opts == nil {
		defaultOpts := DefaultScyllaDBOptions()
		opts = &defaultOpts
	}

	// Start ScyllaDB container with resource-efficient settings
	// --developer-mode=1: Relax production checks
	// --overprovisioned=1: Optimize for overprovisioned environment
	// --reactor-backend=epoll: Reduces AIO requirements
	container, err := scylladb.Run(ctx, opts.Image,
		scylladb.WithShardAwareness(),
		scylladb.WithCustomCommands(
			fmt.Sprintf("--memory=%s", opts.Memory),
			fmt.Sprintf("--smp=%d", opts.SMP),
			"--developer-mode=1",
			"--overprovisioned=1",
			"--reactor-backend=epoll",
		),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to start ScyllaDB container: %w", err)
	}

	host, err := container.NonShardAwareConnectionHost(ctx)
	if err != nil {
		_ = container.Terminate(context.Background())
		return nil, fmt.Errorf("failed to get connection host: %w", err)
	}

	clusterConfig := gocql.NewCluster(host)
	clusterConfig.Consistency = gocql.Quorum
	clusterConfig.Timeout = 30 * time.Second
	clusterConfig.ConnectTimeout = 30 * time.Second

	// Connect to system keyspace first to create the test keyspace.
	clusterConfig.Keyspace = "system"
	session, err := clusterConfig.CreateSession()
	if err != nil {
		_ = container.Terminate(context.Background())
		return nil, fmt.Errorf("failed to create session: %w", err)
	}

	createKeyspaceQuery := fmt.Sprintf(`
		CREATE KEYSPACE IF NOT EXISTS %s
		WITH replication = {'class': 'SimpleStrategy', 'replication_factor': 1}
	`, opts.Keyspace)

	if err := session.Query(createKeyspaceQuery).Exec(); err != nil {
		session.Close()
		_ = container.Terminate(context.Background())
		return nil, fmt.Errorf("failed to create keyspace: %w", err)
	}

	session.Close()

	// Reconnect to the test keyspace.
	clusterConfig.Keyspace = opts.Keyspace
	session, err = clusterConfig.CreateSession()
	if err != nil {
		_ = container.Terminate(context.Background())
		return nil, fmt.Errorf("failed to create session for keyspace %s: %w", opts.Keyspace, err)
	}

	return &ScyllaDBContainer{
		Container: container,
		Host:      host,
		Keyspace:  opts.Keyspace,
		Session:   session,
	}, nil
}

// StartScyllaDB starts a ScyllaDB container for a single test.
//
// The session and container are automatically cleaned up when the test
// completes.
//
// Parameters:
//   - ctx: Context for container operations
//   - t: Testing context for cleanup registration
//   - opts: Optional configuration (nil uses defaults)
//
// Returns:
//   - *ScyllaDBContainer: Container with connection details and session
//   - error: Error if container fails to start
func StartScyllaDB(ctx context.Context, t *testing.T, opts *ScyllaDBOptions) (*ScyllaDBContainer, error) {
	t.Helper()

	container, err := StartScyllaDBCluster(ctx, opts)
	if err != nil {
		return nil, err
	}

	t.Cleanup(func() {
		container.Terminate(context.Background())
	})

	return container, nil
}

// Terminate closes the session and stops the container.
func (c *ScyllaDBContainer) Terminate(ctx context.Context) {
	if c.Session != nil {
		c.Session.Close()
	}
	if c.Container != nil {
		_ = c.Container.Terminate(ctx)
	}
}

// ConnectionFactory returns a cluster.ConnectionFactory dialing the
// container, suitable for cluster.NewCQLCluster.
func (c *ScyllaDBContainer) ConnectionFactory() cluster.ConnectionFactory {
	return v1.Factory([]string{c.Host}, "", "",
		v1.WithKeyspace(c.Keyspace),
		v1.WithConnectTimeout(30*time.Second),
		v1.WithQueryTimeout(30*time.Second),
	)
}

// CreateTable creates a table in the given session.
//
// Parameters:
//   - session: gocql session
//   - cql: CQL CREATE TABLE statement
//
// Returns:
//   - error: Error if table creation fails
func CreateTable(session *gocql.Session, cql string) error {
	return session.Query(cql).Exec()
}
