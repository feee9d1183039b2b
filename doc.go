// Package sct provides a background full-scan worker for ScyllaDB and
// Cassandra clusters under fault-injection testing.
//
// A Runner repeatedly executes one of three scan shapes against a live
// cluster and reports every attempt as a begin/end event pair with a
// classified severity, so that scans running concurrently with
// disruptive operations (node restarts, network faults) produce a
// reviewable event trail instead of raising errors.
//
// # Scan Modes
//
//   - Table: synchronous full-table read (SELECT * FROM ks.table)
//   - Partition: asynchronous paged read of one randomly chosen partition
//   - Aggregate: server-side COUNT(*) bounded by USING TIMEOUT
//
// # Basic Usage
//
//	factory := v1.Factory([]string{"10.0.0.1"}, "scylla", "secret")
//	clu, err := cluster.NewCQLCluster(factory,
//	    []*cluster.Node{cluster.NewNode("node-1")},
//	)
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	runner, err := sct.NewRunner(clu, sct.ScanParams{
//	    Mode:          types.ModeTable,
//	    KeyspaceTable: sct.RandomTable,
//	    Interval:      time.Minute,
//	    Duration:      time.Hour,
//	})
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	err = runner.Run(ctx)
//
// # Severity Classification
//
// Every attempt ends with exactly one of three severities:
//
//   - NORMAL: the scan completed cleanly
//   - WARNING: the scan timed out, or it failed while its target node
//     was under an active disruption
//   - ERROR: the scan failed with no disruption to attribute it to, or
//     an aggregate timed out under a timeout bound tight enough that
//     completion was expected
//
// An active disruption never downgrades a timeout: timeouts classify on
// their own rules regardless of node state.
//
// Disruption flags live on cluster.Node handles. They can be flipped
// directly, or driven from an external fault-injection signal through
// the nemesis package's NATS KV watcher.
//
// # Events
//
// Begin/end pairs flow through an events.Emitter into a pluggable
// events.Sink. Three sinks ship with the package: an in-memory sink for
// tests, a line-oriented file sink, and a NATS JetStream sink for
// durable cross-process event streams. Sinks support waiting for a
// record count, which is how tests synchronize on emission:
//
//	sink := runner.Emitter().Sink()
//	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
//	defer cancel()
//	err := sink.WaitForCount(ctx, 2)
//
// # Errors
//
// Runner attempts never escape as errors; the sentinel and wrapper
// types in the types package surface through event messages and the
// lower-level cluster and adapter APIs:
//
//	if errors.Is(err, types.ErrOperationTimedOut) {
//	    // driver-level timeout
//	}
package sct
