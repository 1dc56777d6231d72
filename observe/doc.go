// Package observe provides the service's logging, tracing and metrics.
//
// Logging is a small structured JSON logger that redacts sensitive field keys
// (passwords, secrets, API keys, tokens). Tracing and metrics are
// OpenTelemetry providers configured through Config with stdout, OTLP or
// Prometheus exporters. Middleware wraps named operations (secret
// resolution, database connect) with a span, metrics and a log line.
package observe
