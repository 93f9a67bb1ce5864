// Package telemetry provides structured logging, Prometheus metrics and
// OpenTelemetry tracing for the FlySight Viewer analysis core.
package telemetry
