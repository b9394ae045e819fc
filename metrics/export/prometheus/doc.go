// Package prometheus adapts engine metrics to a client_golang Collector.
//
// Counters are exported as authkeep_*_total; the authenticate latency histogram as
// authkeep_authenticate_latency_seconds. Nothing is registered globally: callers
// pass their own Registerer to [Register].
package prometheus
