package sct

import (
	"time"

	"github.com/dawmd/scylla-cluster-tests/cluster"
	"github.com/dawmd/scylla-cluster-tests/events"
	"github.com/dawmd/scylla-cluster-tests/internal/logging"
	"github.com/dawmd/scylla-cluster-tests/internal/metrics"
	"github.com/dawmd/scylla-cluster-tests/types"
)

// DefaultGenerousAggregateTimeout is the boundary above which a
// configured aggregate timeout is considered "generous": an aggregate
// query timing out under a generous bound is an expected slow-aggregate
// condition (WARNING), not an actionable failure.
//
// The precise value is an operator tuning choice; override it with
// WithGenerousAggregateTimeout.
const DefaultGenerousAggregateTimeout = 30 * time.Minute

// RunnerConfig holds configuration for scan runners.
type RunnerConfig struct {
	Logger                   types.Logger
	Metrics                  types.MetricsCollector
	Emitter                  *events.Emitter
	Keys                     cluster.PartitionKeyProvider
	GenerousAggregateTimeout time.Duration
}

// DefaultRunnerConfig returns a RunnerConfig with sensible defaults.
//
// Defaults:
//   - Logger: no-op logger
//   - Metrics: no-op collector
//   - Emitter: nil (NewRunner creates one over an in-memory sink)
//   - Keys: nil (NewRunner creates a SchemaPartitionKeyProvider)
//   - GenerousAggregateTimeout: DefaultGenerousAggregateTimeout
func DefaultRunnerConfig() *RunnerConfig {
	return &RunnerConfig{
		Logger:                   logging.NewNopLogger(),
		Metrics:                  metrics.NewNopMetrics(),
		GenerousAggregateTimeout: DefaultGenerousAggregateTimeout,
	}
}

// Option configures a RunnerConfig.
type Option func(*RunnerConfig)

// WithLogger sets the structured logger.
//
// If not set, a no-op logger is used that discards all messages.
// The logger interface is compatible with zap.SugaredLogger.
func WithLogger(logger types.Logger) Option {
	return func(c *RunnerConfig) {
		c.Logger = logger
	}
}

// WithMetrics sets the metrics collector.
//
// If not set, a no-op collector is used that discards all metrics.
// Use contrib/metrics/vm.New() for VictoriaMetrics integration.
func WithMetrics(collector types.MetricsCollector) Option {
	return func(c *RunnerConfig) {
		c.Metrics = collector
	}
}

// WithEmitter sets the event emitter the runner emits begin/end pairs
// through. If not set, an emitter over an in-memory sink is created.
func WithEmitter(emitter *events.Emitter) Option {
	return func(c *RunnerConfig) {
		c.Emitter = emitter
	}
}

// WithPartitionKeyProvider sets the partition key provider used by
// partition-mode scans. If not set, a SchemaPartitionKeyProvider over
// the runner's cluster is created.
func WithPartitionKeyProvider(provider cluster.PartitionKeyProvider) Option {
	return func(c *RunnerConfig) {
		c.Keys = provider
	}
}

// WithGenerousAggregateTimeout sets the boundary above which an
// aggregate timeout bound counts as generous (see
// DefaultGenerousAggregateTimeout).
func WithGenerousAggregateTimeout(d time.Duration) Option {
	return func(c *RunnerConfig) {
		c.GenerousAggregateTimeout = d
	}
}
