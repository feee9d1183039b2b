package testutil

import (
	"sync"

	"github.com/dawmd/scylla-cluster-tests/types"
)

// TestMetricsCollector is a test implementation of types.MetricsCollector
// that tracks method calls for assertion in tests.
type TestMetricsCollector struct {
	mu sync.RWMutex

	ScanTotal    map[types.Mode]int64
	ScanTimeouts map[types.Mode]int64
	ScanErrors   map[types.Mode]int64
	ScanDuration map[types.Mode][]float64
	ScanRows     map[types.Mode][]int

	EventsEmitted map[types.Severity]int64
}

// Compile-time assertion that TestMetricsCollector implements
// types.MetricsCollector.
var _ types.MetricsCollector = (*TestMetricsCollector)(nil)

// NewTestMetricsCollector creates a new test metrics collector.
func NewTestMetricsCollector() *TestMetricsCollector {
	return &TestMetricsCollector{
		ScanTotal:     make(map[types.Mode]int64),
		ScanTimeouts:  make(map[types.Mode]int64),
		ScanErrors:    make(map[types.Mode]int64),
		ScanDuration:  make(map[types.Mode][]float64),
		ScanRows:      make(map[types.Mode][]int),
		EventsEmitted: make(map[types.Severity]int64),
	}
}

func (m *TestMetricsCollector) IncScanTotal(mode types.Mode) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.ScanTotal[mode]++
}

func (m *TestMetricsCollector) IncScanTimeout(mode types.Mode) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.ScanTimeouts[mode]++
}

func (m *TestMetricsCollector) IncScanError(mode types.Mode) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.ScanErrors[mode]++
}

func (m *TestMetricsCollector) ObserveScanDuration(mode types.Mode, seconds float64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.ScanDuration[mode] = append(m.ScanDuration[mode], seconds)
}

func (m *TestMetricsCollector) ObserveScanRows(mode types.Mode, rows int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.ScanRows[mode] = append(m.ScanRows[mode], rows)
}

func (m *TestMetricsCollector) IncEventEmitted(severity types.Severity) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.EventsEmitted[severity]++
}

// GetScanTotal returns the scan attempt count for a mode.
func (m *TestMetricsCollector) GetScanTotal(mode types.Mode) int64 {
	m.mu.RLock()
	defer m.mu.RUnlock()

	return m.ScanTotal[mode]
}

// GetScanTimeouts returns the timeout count for a mode.
func (m *TestMetricsCollector) GetScanTimeouts(mode types.Mode) int64 {
	m.mu.RLock()
	defer m.mu.RUnlock()

	return m.ScanTimeouts[mode]
}

// GetScanErrors returns the generic failure count for a mode.
func (m *TestMetricsCollector) GetScanErrors(mode types.Mode) int64 {
	m.mu.RLock()
	defer m.mu.RUnlock()

	return m.ScanErrors[mode]
}

// GetEventsEmitted returns the emitted event count for a severity.
func (m *TestMetricsCollector) GetEventsEmitted(severity types.Severity) int64 {
	m.mu.RLock()
	defer m.mu.RUnlock()

	return m.EventsEmitted[severity]
}

// Reset clears all collected metrics.
func (m *TestMetricsCollector) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.ScanTotal = make(map[types.Mode]int64)
	m.ScanTimeouts = make(map[types.Mode]int64)
	m.ScanErrors = make(map[types.Mode]int64)
	m.ScanDuration = make(map[types.Mode][]float64)
	m.ScanRows = make(map[types.Mode][]int)
	m.EventsEmitted = make(map[types.Severity]int64)
}
