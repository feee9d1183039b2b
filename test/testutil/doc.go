// Package testutil provides test utilities and mock implementations for scan testing.
//
// This package provides mock implementations of the scan worker's interfaces
// for unit testing, as well as helper functions for integration tests.
//
// # Mock Implementations
//
//   - [MockConnection]: Mock implementation of cql.Connection
//   - [MockCluster]: Mock implementation of cluster.Cluster
//   - [MockKeyProvider]: Mock implementation of cluster.PartitionKeyProvider
//   - [TestMetricsCollector]: Recording implementation of types.MetricsCollector
//
// # Usage
//
// Create a mock cluster for runner testing:
//
//	conn := testutil.NewMockConnection()
//	conn.SetRows([]cql.Row{{"id": 1}})
//
//	clu := &testutil.MockCluster{
//	    Conn:     conn,
//	    NodeList: []*cluster.Node{cluster.NewNode("node-1")},
//	}
//
//	runner, _ := sct.NewRunner(clu, params)
//
// # Integration Test Helpers
//
//   - StartEmbeddedNATS: Starts an embedded NATS server for event sink testing
//   - StartScyllaDB: Starts a ScyllaDB test container (requires Docker)
package testutil
