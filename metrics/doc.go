// Package metrics exposes receiver counters and gauges as Prometheus
// collectors.
//
// A [Collector] owns its own registry so several receivers can run in one
// process and tests can inspect values without touching global state. Every
// recording method is safe to call on a nil *Collector, which turns metrics
// off without guarding each call site.
package metrics
