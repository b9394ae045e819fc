// Package otel publishes engine metrics as OpenTelemetry asynchronous instruments.
//
// Counters map to Int64ObservableCounter. The latency histogram is flattened into
// one cumulative gauge per bucket plus _count and _sum gauges.
package otel
