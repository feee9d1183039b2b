// Package vm provides a VictoriaMetrics-based implementation of the MetricsCollector interface.
//
// This package uses github.com/VictoriaMetrics/metrics for lightweight,
// high-performance Prometheus-compatible metrics collection.
//
// # Basic Usage
//
// Create a collector with default prefix "sct":
//
//	collector := vm.New()
//	runner, _ := sct.NewRunner(clu, params,
//	    sct.WithMetrics(collector),
//	)
//
// # Custom Prefix
//
// Use WithPrefix to customize the metric name prefix:
//
//	collector := vm.New(vm.WithPrefix("myapp"))
//
// This produces metrics like:
//   - myapp_scan_total{mode="table"}
//   - myapp_scan_duration_seconds{mode="aggregate"}
//
// # Exposing Metrics
//
// Use the Handler method to expose metrics via HTTP:
//
//	http.HandleFunc("/metrics", collector.Handler)
//	http.ListenAndServe(":8080", nil)
//
// Or use WritePrometheus to write metrics to a custom writer:
//
//	collector.WritePrometheus(w)
//
// # Metrics Provided
//
// Scan attempts (labeled by mode: table, partition, aggregate):
//   - {prefix}_scan_total{mode} - Counter of scan attempts
//   - {prefix}_scan_timeouts_total{mode} - Counter of timed-out scans
//   - {prefix}_scan_errors_total{mode} - Counter of failed scans
//   - {prefix}_scan_duration_seconds{mode} - Histogram of attempt durations
//   - {prefix}_scan_rows{mode} - Histogram of rows consumed per clean scan
//
// Events (labeled by severity: NORMAL, WARNING, ERROR, CRITICAL):
//   - {prefix}_events_emitted_total{severity} - Counter of emitted events
//
// # Performance Notes
//
// This implementation pre-creates all metrics at initialization time
// using the NewXXX pattern (instead of GetOrCreateXXX) for optimal
// performance in hot paths, as recommended by the VictoriaMetrics documentation.
//
// The metrics are registered with a dedicated Set that is registered
// globally, allowing standard Prometheus scraping.
package vm
