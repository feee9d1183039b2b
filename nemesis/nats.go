package nemesis

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"time"

	"github.com/nats-io/nats.go/jetstream"

	"github.com/dawmd/scylla-cluster-tests/cluster"
)

// NATS monitors a NATS KV bucket for disruption configuration.
//
// It watches a configurable key and flips node disruption flags when the
// state of any node changes, emitting an Update per affected node. This
// lets external nemesis tooling steer scan failure classification without
// a direct connection to the scan process.
//
// Watch() should be called once per instance. Subsequent calls return the
// same channel. The channel is closed when Close() is called or the context
// is cancelled.
type NATS struct {
	kv     jetstream.KeyValue
	config WatcherConfig
	nodes  []*cluster.Node

	reason string
	mu     sync.RWMutex

	// Lifecycle
	updates      chan Update
	done         chan struct{}
	closed       bool
	watchStarted bool
	closeOnce    sync.Once
}

var _ Watcher = (*NATS)(nil)

// NewNATS creates a new NATS KV disruption watcher.
//
// The watcher will begin monitoring the KV bucket for disruption
// configuration when Watch() is called.
//
// Parameters:
//   - kv: A NATS JetStream KeyValue store
//   - nodes: The cluster nodes whose disruption flags this watcher controls
//   - opts: Optional configuration options
//
// Returns:
//   - *NATS: A new watcher instance
//   - error: Error if kv is nil or the node list is empty
//
// Example:
//
//	nc, _ := nats.Connect("nats://localhost:4222")
//	js, _ := jetstream.New(nc)
//	kv, _ := js.KeyValue(ctx, "sct-config")
//
//	watcher, _ := nemesis.NewNATS(kv, clu.Nodes(),
//	    nemesis.WithKey("nemesis.disruption"),
//	    nemesis.WithPollInterval(10*time.Second),
//	)
func NewNATS(kv jetstream.KeyValue, nodes []*cluster.Node, opts ...WatcherOption) (*NATS, error) {
	if kv == nil {
		return nil, errors.New("sct/nemesis: KeyValue store is nil")
	}
	if len(nodes) == 0 {
		return nil, errors.New("sct/nemesis: node list is empty")
	}

	config := DefaultWatcherConfig()
	for _, opt := range opts {
		opt(&config)
	}

	return &NATS{
		kv:      kv,
		config:  config,
		nodes:   nodes,
		updates: make(chan Update, 10),
		done:    make(chan struct{}),
	}, nil
}

// Watch returns a channel that receives disruption updates.
//
// The watcher spawns a background goroutine that monitors the NATS KV key.
// When the disruption configuration changes, it emits an Update for each
// affected node.
//
// The channel is closed when Close() is called or the context is cancelled.
// Multiple calls to Watch return the same channel; only the first call's
// context controls the watch lifecycle.
//
// Parameters:
//   - ctx: Context for cancellation (only used on first call)
//
// Returns:
//   - <-chan Update: Channel of disruption changes
func (n *NATS) Watch(ctx context.Context) <-chan Update {
	n.mu.Lock()
	if n.watchStarted {
		n.mu.Unlock()

		return n.updates
	}
	n.watchStarted = true
	n.mu.Unlock()

	go n.watchLoop(ctx)

	return n.updates
}

// Close stops the watcher and releases resources.
//
// This method is safe to call multiple times.
func (n *NATS) Close() error {
	n.mu.Lock()
	defer n.mu.Unlock()

	if n.closed {
		return nil
	}

	n.closed = true
	close(n.done)

	return nil
}

// IsDisrupted returns whether the named node is currently disrupted.
//
// This provides a synchronous way to check disruption status without
// waiting for channel updates.
//
// Parameters:
//   - name: The node to check
//
// Returns:
//   - bool: true if the node is being disrupted
func (n *NATS) IsDisrupted(name string) bool {
	node := n.findNode(name)

	return node != nil && node.IsDisrupted()
}

// Config returns the watcher configuration.
//
// This method is primarily useful for testing to verify configuration options.
//
// Returns:
//   - WatcherConfig: The current watcher configuration
func (n *NATS) Config() WatcherConfig {
	return n.config
}

// Reason returns the current disruption reason, if any.
//
// This returns the cached reason from the last processed KV entry.
// It does not perform a live KV fetch.
//
// Returns:
//   - string: The disruption reason, or empty if nothing is disrupted
func (n *NATS) Reason() string {
	n.mu.RLock()
	defer n.mu.RUnlock()

	return n.reason
}

// watchLoop is the main watch loop that monitors the NATS KV key.
func (n *NATS) watchLoop(ctx context.Context) {
	defer n.closeOnce.Do(func() { close(n.updates) })

	// Initial fetch
	n.fetchAndEmit(ctx)

	// Start watching
	watcher, err := n.kv.Watch(ctx, n.config.Key)
	if err != nil {
		// Fall back to polling if watch fails
		n.pollLoop(ctx)
		return
	}
	defer func() { _ = watcher.Stop() }()

	for {
		select {
		case <-ctx.Done():
			return
		case <-n.done:
			return
		case entry, ok := <-watcher.Updates():
			if !ok {
				// Watcher channel closed, fall back to polling
				n.pollLoop(ctx)
				return
			}
			if entry == nil {
				// Initial nil entry, skip
				continue
			}
			n.processEntry(entry)
		}
	}
}

// pollLoop is a fallback polling loop when watch fails.
func (n *NATS) pollLoop(ctx context.Context) {
	ticker := time.NewTicker(n.config.PollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-n.done:
			return
		case <-ticker.C:
			n.fetchAndEmit(ctx)
		}
	}
}

// fetchAndEmit fetches the current KV value and emits updates if changed.
func (n *NATS) fetchAndEmit(ctx context.Context) {
	fetchCtx, cancel := context.WithTimeout(ctx, n.config.InitialFetchTimeout)
	defer cancel()

	entry, err := n.kv.Get(fetchCtx, n.config.Key)
	if err != nil {
		// Key doesn't exist or error - treat as no disruption
		n.handleNoDisruption()
		return
	}

	n.processEntry(entry)
}

// processEntry parses a KV entry and emits disruption updates.
func (n *NATS) processEntry(entry jetstream.KeyValueEntry) {
	// Handle deletion
	if entry.Operation() == jetstream.KeyValueDelete || entry.Operation() == jetstream.KeyValuePurge {
		n.handleNoDisruption()
		return
	}

	var config DisruptionConfig
	if err := json.Unmarshal(entry.Value(), &config); err != nil {
		// Invalid JSON - treat as no disruption
		n.handleNoDisruption()
		return
	}

	// Cache the disruption reason
	n.mu.Lock()
	n.reason = config.Reason
	n.mu.Unlock()

	for _, node := range n.nodes {
		n.updateNodeState(node, config.ContainsNode(node.Name()))
	}
}

// handleNoDisruption clears all disruption states and the reason.
func (n *NATS) handleNoDisruption() {
	n.mu.Lock()
	n.reason = ""
	n.mu.Unlock()

	for _, node := range n.nodes {
		n.updateNodeState(node, false)
	}
}

// updateNodeState updates a node's disruption flag and emits an update if changed.
func (n *NATS) updateNodeState(node *cluster.Node, disrupted bool) {
	n.mu.Lock()
	defer n.mu.Unlock()

	// Only emit if state changed
	if node.IsDisrupted() == disrupted {
		return
	}

	node.SetDisrupted(disrupted)

	// Emit update (non-blocking)
	select {
	case n.updates <- Update{Node: node.Name(), Disrupted: disrupted}:
	default:
		// Channel full, skip update (older updates are stale anyway)
	}
}

func (n *NATS) findNode(name string) *cluster.Node {
	for _, node := range n.nodes {
		if node.Name() == name {
			return node
		}
	}
	return nil
}
