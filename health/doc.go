// Package health reports component health for hosts that embed a client.
//
// A Checker reports a Result with a Status of Healthy, Degraded or
// Unhealthy. The connection monitor is a Checker, so a host can expose
// backend reachability next to its own checks:
//
//	agg := health.NewAggregator()
//	agg.Register("backend", client.Monitor())
//
//	mux := http.NewServeMux()
//	health.RegisterHandlers(mux, agg) // /healthz, /readyz, /health
//
// Aggregator.Run executes every check concurrently and reports them in
// registration order together with the worst status.
package health
