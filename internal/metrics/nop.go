// Package metrics provides internal metrics utilities for the scan worker.
package metrics

import "github.com/dawmd/scylla-cluster-tests/types"

// NopMetrics is a no-op metrics collector that discards all metrics.
//
// This is used as the default metrics collector when no collector is
// configured, avoiding nil checks throughout the codebase.
type NopMetrics struct{}

// Compile-time assertion that NopMetrics implements types.MetricsCollector.
var _ types.MetricsCollector = (*NopMetrics)(nil)

// NewNopMetrics creates a new no-op metrics collector.
//
// Returns:
//   - *NopMetrics: A collector that discards all metrics
func NewNopMetrics() *NopMetrics {
	return &NopMetrics{}
}

// IncScanTotal discards the metric.
func (m *NopMetrics) IncScanTotal(_ types.Mode) {}

// IncScanTimeout discards the metric.
func (m *NopMetrics) IncScanTimeout(_ types.Mode) {}

// IncScanError discards the metric.
func (m *NopMetrics) IncScanError(_ types.Mode) {}

// ObserveScanDuration discards the metric.
func (m *NopMetrics) ObserveScanDuration(_ types.Mode, _ float64) {}

// ObserveScanRows discards the metric.
func (m *NopMetrics) ObserveScanRows(_ types.Mode, _ int) {}

// IncEventEmitted discards the metric.
func (m *NopMetrics) IncEventEmitted(_ types.Severity) {}
