// Package prometheus exposes authcore counters as a client_golang Collector.
//
// [NewCollector] reads [authcore.Engine.MetricsSnapshot] on every scrape.
// Counter names are authcore_*_total; the one histogram is
// authcore_login_latency_seconds. Register the collector on a registry and
// serve it with promhttp.
//
// # What this package must NOT do
//
//   - Register on the global Prometheus registry by itself.
//   - Mutate engine state.
package prometheus
