// Package observe provides logging, tracing and metrics for backend requests
// and connection health.
//
// Logging is structured key/value output on top of github.com/go-kit/log.
// Tracing and metrics use OpenTelemetry; exporters are chosen by name in
// Config and built by the exporters subpackage.
//
// The package does no I/O of its own beyond exporter setup. Middleware wraps
// a transport.Transport so every request is traced, counted and logged, and
// Metrics.RecordTransition counts connection state changes.
package observe
