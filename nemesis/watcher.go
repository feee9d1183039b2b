package nemesis

import "context"

// Update describes a change in a node's disruption state.
type Update struct {
	// Node is the name of the node whose state changed.
	Node string

	// Disrupted is the new disruption state.
	Disrupted bool
}

// Watcher monitors external disruption signals and emits Update events
// when a node's disruption state changes.
//
// Watchers also flip the disruption flag on the cluster nodes they were
// constructed with, so the scan runner observes state changes without
// consuming the update channel.
type Watcher interface {
	// Watch returns a channel that receives disruption updates.
	// The channel is closed when Close() is called or the context is cancelled.
	Watch(ctx context.Context) <-chan Update

	// Close stops the watcher and releases resources.
	Close() error
}

// Operator allows setting disruption states programmatically.
//
// This is primarily used in tests and demos to simulate nemesis activity
// without an external signal source.
type Operator interface {
	// SetDisrupted marks a node as disrupted or healthy.
	SetDisrupted(ctx context.Context, node string, disrupted bool, reason string) error
}
