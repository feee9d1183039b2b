package types

// MetricsCollector defines methods for collecting scan worker metrics.
//
// All scan-scoped methods accept a Mode parameter for labeling.
// Implementations should be thread-safe as methods may be called concurrently.
//
// Example usage with VictoriaMetrics (via contrib/metrics/vm):
//
//	collector := vm.New(vm.WithPrefix("sct"))
//	runner, _ := sct.NewRunner(cluster, params,
//	    sct.WithMetrics(collector),
//	)
//
//	// Expose metrics via HTTP
//	http.HandleFunc("/metrics", collector.Handler)
type MetricsCollector interface {
	// IncScanTotal increments the total scan attempts counter for a mode.
	IncScanTotal(mode Mode)

	// IncScanTimeout increments the driver-timeout counter for a mode.
	IncScanTimeout(mode Mode)

	// IncScanError increments the generic-failure counter for a mode.
	IncScanError(mode Mode)

	// ObserveScanDuration records a scan attempt duration in seconds.
	ObserveScanDuration(mode Mode, seconds float64)

	// ObserveScanRows records the number of rows consumed by a clean scan.
	ObserveScanRows(mode Mode, rows int)

	// IncEventEmitted increments the emitted-event counter for a severity.
	IncEventEmitted(severity Severity)
}
