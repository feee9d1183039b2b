package vm_test

import (
	"bytes"
	"testing"

	"github.com/VictoriaMetrics/metrics"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dawmd/scylla-cluster-tests/contrib/metrics/vm"
	"github.com/dawmd/scylla-cluster-tests/types"
)

// newTestCollector builds a collector over a private set so tests do not
// collide on the global registry.
func newTestCollector(prefix string) *vm.Collector {
	return vm.New(vm.WithPrefix(prefix), vm.WithMetricsSet(metrics.NewSet()))
}

func TestCollectorCounters(t *testing.T) {
	collector := newTestCollector("test_counters")

	collector.IncScanTotal(types.ModeTable)
	collector.IncScanTotal(types.ModeTable)
	collector.IncScanTimeout(types.ModePartition)
	collector.IncScanError(types.ModeAggregate)
	collector.IncEventEmitted(types.SeverityNormal)

	var buf bytes.Buffer
	collector.WritePrometheus(&buf)
	output := buf.String()

	assert.Contains(t, output, `test_counters_scan_total{mode="table"} 2`)
	assert.Contains(t, output, `test_counters_scan_timeouts_total{mode="partition"} 1`)
	assert.Contains(t, output, `test_counters_scan_errors_total{mode="aggregate"} 1`)
	assert.Contains(t, output, `test_counters_events_emitted_total{severity="NORMAL"} 1`)
}

func TestCollectorHistograms(t *testing.T) {
	collector := newTestCollector("test_histograms")

	collector.ObserveScanDuration(types.ModeTable, 1.5)
	collector.ObserveScanRows(types.ModeTable, 100)

	var buf bytes.Buffer
	collector.WritePrometheus(&buf)
	output := buf.String()

	assert.Contains(t, output, "test_histograms_scan_duration_seconds")
	assert.Contains(t, output, "test_histograms_scan_rows")
}

func TestCollectorUnknownLabels(t *testing.T) {
	collector := newTestCollector("test_unknown")

	// Unknown modes and severities are discarded, not registered lazily.
	collector.IncScanTotal(types.Mode("bogus"))
	collector.IncEventEmitted(types.Severity("BOGUS"))

	var buf bytes.Buffer
	collector.WritePrometheus(&buf)
	assert.NotContains(t, buf.String(), "bogus")
	assert.NotContains(t, buf.String(), "BOGUS")
}

func TestCollectorSetAccessor(t *testing.T) {
	set := metrics.NewSet()
	collector := vm.New(vm.WithPrefix("test_set"), vm.WithMetricsSet(set))

	require.Same(t, set, collector.Set())
}
