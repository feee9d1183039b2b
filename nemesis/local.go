package nemesis

import (
	"context"
	"sync"

	"github.com/dawmd/scylla-cluster-tests/cluster"
)

// Local provides an in-memory disruption watcher and operator for testing.
//
// Unlike NATS, this implementation allows programmatic control of
// disruption states, making it ideal for unit tests and demos.
// It implements both Watcher (for observing) and Operator (for
// controlling disruption states).
type Local struct {
	nodes  []*cluster.Node
	reason string
	mu     sync.RWMutex

	updates       chan Update
	done          chan struct{}
	closed        bool
	updatesClosed bool
}

var (
	_ Watcher  = (*Local)(nil)
	_ Operator = (*Local)(nil)
)

// NewLocal creates a new in-memory disruption watcher/operator.
//
// Parameters:
//   - nodes: The cluster nodes whose disruption flags this instance controls
//
// Returns:
//   - *Local: A new local nemesis instance
func NewLocal(nodes []*cluster.Node) *Local {
	return &Local{
		nodes:   nodes,
		updates: make(chan Update, 10),
		done:    make(chan struct{}),
	}
}

// Watch returns a channel that receives disruption updates.
//
// Updates are emitted when SetDisrupted is called. The channel is closed
// when Close() is called or the context is cancelled.
//
// Multiple calls to Watch return the same channel; only the first call's
// context controls the watch lifecycle.
//
// Parameters:
//   - ctx: Context for cancellation (only used on first call)
//
// Returns:
//   - <-chan Update: Channel of disruption changes
func (l *Local) Watch(ctx context.Context) <-chan Update {
	go l.waitForClose(ctx)
	return l.updates
}

// SetDisrupted sets the disruption state for a node.
//
// This method flips the node's disruption flag and emits an Update if the
// state changes. Unknown node names are ignored.
//
// Parameters:
//   - ctx: Context for cancellation. For the local in-memory implementation,
//     this parameter is accepted for interface compliance but not used.
//   - name: The node to update
//   - disrupted: true to mark the node as disrupted, false to clear
//   - reason: Human-readable reason (only used when disrupted=true)
//
// Returns:
//   - error: Always nil for local implementation
func (l *Local) SetDisrupted(_ context.Context, name string, disrupted bool, reason string) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.closed || l.updatesClosed {
		return nil
	}

	node := l.findNode(name)
	if node == nil {
		return nil
	}

	// Only emit if state changed
	if node.IsDisrupted() == disrupted {
		return nil
	}

	node.SetDisrupted(disrupted)
	if disrupted {
		l.reason = reason
	} else if !l.anyDisrupted() {
		// Clear reason only when no nodes are disrupted
		l.reason = ""
	}

	// Emit update (non-blocking)
	select {
	case l.updates <- Update{Node: name, Disrupted: disrupted}:
	default:
		// Channel full, skip update
	}

	return nil
}

// IsDisrupted returns whether the named node is currently disrupted.
//
// Parameters:
//   - name: The node to check
//
// Returns:
//   - bool: true if the node is being disrupted
func (l *Local) IsDisrupted(name string) bool {
	l.mu.RLock()
	defer l.mu.RUnlock()

	node := l.findNode(name)

	return node != nil && node.IsDisrupted()
}

// Reason returns the current disruption reason, if any.
//
// Returns:
//   - string: The disruption reason, or empty string if nothing is disrupted
func (l *Local) Reason() string {
	l.mu.RLock()
	defer l.mu.RUnlock()

	return l.reason
}

// Close stops the watcher and releases resources.
func (l *Local) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.closed {
		return nil
	}

	l.closed = true
	close(l.done)

	return nil
}

func (l *Local) findNode(name string) *cluster.Node {
	for _, node := range l.nodes {
		if node.Name() == name {
			return node
		}
	}
	return nil
}

func (l *Local) anyDisrupted() bool {
	for _, node := range l.nodes {
		if node.IsDisrupted() {
			return true
		}
	}
	return false
}

// waitForClose waits for context cancellation or close signal.
func (l *Local) waitForClose(ctx context.Context) {
	select {
	case <-ctx.Done():
	case <-l.done:
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	if !l.updatesClosed {
		l.updatesClosed = true
		close(l.updates)
	}
}
