package nemesis

import "time"

// DisruptionConfig represents the disruption state stored in NATS KV.
//
// This is the JSON structure that nemesis tooling PUTs to the KV store
// while it is actively disrupting nodes.
type DisruptionConfig struct {
	// Nodes lists the names of nodes currently under disruption.
	Nodes []string `json:"nodes"`

	// Reason is a human-readable explanation for the disruption.
	// Example: "RollingRestart", "TerminateAndReplaceNode"
	Reason string `json:"reason,omitempty"`
}

// ContainsNode returns true if the given node is in the disruption list.
//
// Parameters:
//   - name: The node name to check
//
// Returns:
//   - bool: true if the node is being disrupted
func (d *DisruptionConfig) ContainsNode(name string) bool {
	for _, n := range d.Nodes {
		if n == name {
			return true
		}
	}
	return false
}

// WatcherConfig holds configuration for disruption watchers.
type WatcherConfig struct {
	// Key is the NATS KV key to watch for disruption configuration.
	// Default: "sct.nemesis.disruption"
	Key string

	// PollInterval is the fallback polling interval if watch fails.
	// Default: 5 seconds
	PollInterval time.Duration

	// InitialFetchTimeout is the timeout for the initial KV fetch.
	// Default: 10 seconds
	InitialFetchTimeout time.Duration
}

// DefaultWatcherConfig returns a WatcherConfig with sensible defaults.
//
// Returns:
//   - WatcherConfig: Default configuration
func DefaultWatcherConfig() WatcherConfig {
	return WatcherConfig{
		Key:                 "sct.nemesis.disruption",
		PollInterval:        5 * time.Second,
		InitialFetchTimeout: 10 * time.Second,
	}
}

// WatcherOption configures a disruption watcher.
type WatcherOption func(*WatcherConfig)

// WithKey sets the NATS KV key to watch.
//
// Parameters:
//   - key: The key name (e.g., "longevity.nemesis.disruption")
//
// Returns:
//   - WatcherOption: Configuration option
func WithKey(key string) WatcherOption {
	return func(c *WatcherConfig) {
		c.Key = key
	}
}

// WithPollInterval sets the fallback polling interval.
//
// If the NATS watch fails or disconnects, the watcher falls back to
// polling at this interval.
//
// Parameters:
//   - d: Polling interval duration
//
// Returns:
//   - WatcherOption: Configuration option
func WithPollInterval(d time.Duration) WatcherOption {
	return func(c *WatcherConfig) {
		c.PollInterval = d
	}
}

// WithInitialFetchTimeout sets the timeout for the initial KV fetch.
//
// Parameters:
//   - d: Timeout duration
//
// Returns:
//   - WatcherOption: Configuration option
func WithInitialFetchTimeout(d time.Duration) WatcherOption {
	return func(c *WatcherConfig) {
		c.InitialFetchTimeout = d
	}
}
