package integration_test

import (
	"context"
	"flag"
	"fmt"
	"os"
	"testing"
	"time"

	"github.com/gocql/gocql"

	"github.com/dawmd/scylla-cluster-tests/test/testutil"
)

// sharedScylla holds the shared ScyllaDB container for all integration tests.
var sharedScylla *testutil.ScyllaDBContainer

// TestMain sets up shared test infrastructure for all integration tests.
// This avoids the overhead of starting a container for each individual test.
func TestMain(m *testing.M) {
	flag.Parse()

	if testing.Short() {
		return
	}

	// Check if we should skip container setup (for unit tests or CI without Docker)
	if os.Getenv("SKIP_INTEGRATION_TESTS") == "1" {
		fmt.Println("Skipping integration tests (SKIP_INTEGRATION_TESTS=1)")

		return
	}

	fmt.Println("Starting shared ScyllaDB container for integration tests...")

	ctx := context.Background()
	container, err := testutil.StartScyllaDBCluster(ctx, nil)
	if err != nil {
		fmt.Printf("Failed to start ScyllaDB container: %v\n", err)

		return
	}

	sharedScylla = container
	fmt.Println("Shared ScyllaDB container ready!")

	code := m.Run()

	fmt.Println("Cleaning up shared ScyllaDB container...")
	container.Terminate(ctx)

	os.Exit(code)
}

// getSharedSession returns the shared gocql session for tests.
// Each test should create its own tables using unique names to avoid
// conflicts. Do not call session.Close() in tests; the session is shared
// and closed by TestMain's teardown.
func getSharedSession(t *testing.T) *gocql.Session {
	t.Helper()

	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}

	if sharedScylla == nil {
		t.Skip("shared ScyllaDB container not available (run with -short=false and Docker)")
	}

	return sharedScylla.Session
}

// createTestTable creates a table with a unique name in the shared keyspace.
func createTestTable(t *testing.T, nameSuffix, schema string) string {
	t.Helper()

	session := getSharedSession(t)

	tableName := fmt.Sprintf("test_%s_%d", nameSuffix, time.Now().UnixNano())
	query := fmt.Sprintf(schema, tableName)

	if err := session.Query(query).Exec(); err != nil {
		t.Fatalf("failed to create table %s: %v", tableName, err)
	}

	t.Cleanup(func() {
		_ = session.Query(fmt.Sprintf("DROP TABLE IF EXISTS %s", tableName)).Exec()
	})

	return tableName
}

// scanTableSchema is the table schema template with a %s placeholder for
// the table name.
const scanTableSchema = `
	CREATE TABLE IF NOT EXISTS %s (
		pk INT,
		ck INT,
		payload TEXT,
		PRIMARY KEY (pk, ck)
	)
`
