// Package internaldefs lists the exported metric names shared by the Prometheus and
// OpenTelemetry exporters.
package internaldefs
