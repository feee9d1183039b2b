package vm

import (
	"fmt"
	"io"
	"net/http"

	"github.com/VictoriaMetrics/metrics"

	"github.com/dawmd/scylla-cluster-tests/types"
)

// Option configures a Collector.
type Option func(*Collector)

// WithPrefix sets the metric name prefix.
//
// Default: "sct"
//
// Parameters:
//   - prefix: The prefix to use for all metric names
//
// Returns:
//   - Option: A configuration option
func WithPrefix(prefix string) Option {
	return func(c *Collector) {
		c.prefix = prefix
	}
}

// WithMetricsSet sets the metrics set to use.
//
// If provided, the collector will register metrics with this set instead of
// creating a new one. The caller is responsible for exposing this set
// (e.g., via metrics.WritePrometheus or a custom handler).
//
// Parameters:
//   - set: The metrics set to use
//
// Returns:
//   - Option: A configuration option
func WithMetricsSet(set *metrics.Set) Option {
	return func(c *Collector) {
		c.set = set
	}
}

// Collector implements types.MetricsCollector using VictoriaMetrics.
//
// All metrics are pre-created at initialization time for optimal performance.
// Thread-safe for concurrent use.
type Collector struct {
	set    *metrics.Set
	prefix string

	// Per-mode scan metrics
	scanTotal    map[types.Mode]*metrics.Counter
	scanTimeouts map[types.Mode]*metrics.Counter
	scanErrors   map[types.Mode]*metrics.Counter
	scanDuration map[types.Mode]*metrics.Histogram
	scanRows     map[types.Mode]*metrics.Histogram

	// Per-severity event metrics
	eventsEmitted map[types.Severity]*metrics.Counter
}

// Compile-time assertion that Collector implements types.MetricsCollector.
var _ types.MetricsCollector = (*Collector)(nil)

// scanModes are the modes metrics are pre-created for.
var scanModes = []types.Mode{types.ModeTable, types.ModePartition, types.ModeAggregate}

// severities are the severities metrics are pre-created for.
var severities = []types.Severity{
	types.SeverityNormal,
	types.SeverityWarning,
	types.SeverityError,
	types.SeverityCritical,
}

// New creates a new VictoriaMetrics-based metrics collector.
//
// The collector creates its own metrics.Set and registers it globally.
// All metrics are pre-created at initialization for optimal performance.
//
// Parameters:
//   - opts: Configuration options (e.g., WithPrefix)
//
// Returns:
//   - *Collector: A new metrics collector ready for use
//
// Example:
//
//	collector := vm.New(vm.WithPrefix("myapp"))
//	runner, _ := sct.NewRunner(clu, params,
//	    sct.WithMetrics(collector),
//	)
func New(opts ...Option) *Collector {
	c := &Collector{
		prefix: "sct",
	}

	for _, opt := range opts {
		opt(c)
	}

	// If no set is provided, create a new one and register it globally.
	// If a set is provided, we assume the caller manages it.
	if c.set == nil {
		c.set = metrics.NewSet()
		metrics.RegisterSet(c.set)
	}

	c.initMetrics()

	return c
}

// initMetrics pre-creates all metrics with the configured prefix.
func (c *Collector) initMetrics() {
	p := c.prefix

	c.scanTotal = make(map[types.Mode]*metrics.Counter, len(scanModes))
	c.scanTimeouts = make(map[types.Mode]*metrics.Counter, len(scanModes))
	c.scanErrors = make(map[types.Mode]*metrics.Counter, len(scanModes))
	c.scanDuration = make(map[types.Mode]*metrics.Histogram, len(scanModes))
	c.scanRows = make(map[types.Mode]*metrics.Histogram, len(scanModes))

	for _, mode := range scanModes {
		c.scanTotal[mode] = c.set.NewCounter(fmt.Sprintf(`%s_scan_total{mode="%s"}`, p, mode))
		c.scanTimeouts[mode] = c.set.NewCounter(fmt.Sprintf(`%s_scan_timeouts_total{mode="%s"}`, p, mode))
		c.scanErrors[mode] = c.set.NewCounter(fmt.Sprintf(`%s_scan_errors_total{mode="%s"}`, p, mode))
		c.scanDuration[mode] = c.set.NewHistogram(fmt.Sprintf(`%s_scan_duration_seconds{mode="%s"}`, p, mode))
		c.scanRows[mode] = c.set.NewHistogram(fmt.Sprintf(`%s_scan_rows{mode="%s"}`, p, mode))
	}

	c.eventsEmitted = make(map[types.Severity]*metrics.Counter, len(severities))
	for _, severity := range severities {
		c.eventsEmitted[severity] = c.set.NewCounter(fmt.Sprintf(`%s_events_emitted_total{severity="%s"}`, p, severity))
	}
}

func (c *Collector) Set() *metrics.Set {
	return c.set
}

// Handler returns an HTTP handler that exposes metrics in Prometheus format.
//
// Example:
//
//	http.HandleFunc("/metrics", collector.Handler)
func (c *Collector) Handler(w http.ResponseWriter, _ *http.Request) {
	c.set.WritePrometheus(w)
}

// WritePrometheus writes all metrics in Prometheus format to the given writer.
//
// Parameters:
//   - w: The writer to write metrics to
func (c *Collector) WritePrometheus(w io.Writer) {
	c.set.WritePrometheus(w)
}

// IncScanTotal increments the scan attempt counter for a mode.
func (c *Collector) IncScanTotal(mode types.Mode) {
	if counter, ok := c.scanTotal[mode]; ok {
		counter.Inc()
	}
}

// IncScanTimeout increments the scan timeout counter for a mode.
func (c *Collector) IncScanTimeout(mode types.Mode) {
	if counter, ok := c.scanTimeouts[mode]; ok {
		counter.Inc()
	}
}

// IncScanError increments the generic scan failure counter for a mode.
func (c *Collector) IncScanError(mode types.Mode) {
	if counter, ok := c.scanErrors[mode]; ok {
		counter.Inc()
	}
}

// ObserveScanDuration records a scan attempt duration in seconds.
func (c *Collector) ObserveScanDuration(mode types.Mode, seconds float64) {
	if histogram, ok := c.scanDuration[mode]; ok {
		histogram.Update(seconds)
	}
}

// ObserveScanRows records the number of rows consumed by a clean scan.
func (c *Collector) ObserveScanRows(mode types.Mode, rows int) {
	if histogram, ok := c.scanRows[mode]; ok {
		histogram.Update(float64(rows))
	}
}

// IncEventEmitted increments the emitted event counter for a severity.
func (c *Collector) IncEventEmitted(severity types.Severity) {
	if counter, ok := c.eventsEmitted[severity]; ok {
		counter.Inc()
	}
}
