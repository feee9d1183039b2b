// Package nemesis provides disruption state monitoring for scan severity classification.
//
// Fault-injection tooling (a "nemesis") broadcasts which database nodes it is
// currently disrupting through a NATS Key-Value store. Watchers in this package
// pick up that signal and flip the disruption flags on [cluster.Node] values,
// which the scan runner consults when classifying generic scan failures.
//
// # Overview
//
// The package provides implementations of the [Watcher] and [Operator]
// interfaces:
//   - [Watcher]: Monitors external signals and emits [Update] events when a
//     node's disruption state changes.
//   - [Operator]: Allows setting disruption states programmatically.
//
// # NATS Watcher
//
// [NATS] watches a NATS KV bucket for disruption configuration:
//
//	nc, _ := nats.Connect("nats://localhost:4222")
//	js, _ := jetstream.New(nc)
//	kv, _ := js.KeyValue(ctx, "sct-config")
//
//	nodes := []*cluster.Node{cluster.NewNode("node-1"), cluster.NewNode("node-2")}
//	watcher, _ := nemesis.NewNATS(kv, nodes,
//	    nemesis.WithKey("nemesis.disruption"),  // custom key
//	)
//	updates := watcher.Watch(ctx)
//
// # Disruption Configuration Format
//
// The NATS KV value is a JSON object naming the nodes under disruption:
//
//	{
//	    "nodes": ["node-2"],
//	    "reason": "TerminateAndReplaceNode"
//	}
//
// While a node is listed, scan failures that target it are reported with
// WARNING severity instead of ERROR. Timeouts keep their usual severity
// regardless of disruption state.
//
// # Lifecycle
//
// Disruption state requires explicit nemesis actions:
//   - Start disruption: PUT the configuration to NATS KV
//   - End disruption: DELETE the key (or PUT with an empty node list)
//
// There is no automatic expiry. This is intentional to prevent failures from
// being misclassified while a disruption is still winding down.
//
// # Local Watcher
//
// [Local] provides an in-memory implementation for testing. It implements both
// [Watcher] and [Operator]:
//
//	local := nemesis.NewLocal(nodes)
//	_ = local.SetDisrupted(ctx, "node-2", true, "restart")  // Simulate disruption
//
//	// Later...
//	_ = local.SetDisrupted(ctx, "node-2", false, "")  // Clear disruption
package nemesis
