// Package types contains the shared vocabulary of the scan worker:
// scan modes, event severities, sentinel errors, and the Logger and
// MetricsCollector interfaces implemented by pluggable collaborators.
//
// Keeping these in a dependency-free leaf package lets the root package,
// the cluster handle, the event emitter, and driver adapters share them
// without import cycles.
package types
