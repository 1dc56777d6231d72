// Package exporters builds the OpenTelemetry span exporters and metric
// readers selected by name in observe.Config.
package exporters

import (
	"context"
	"fmt"
	"io"
	"os"

	promclient "github.com/prometheus/client_golang/prometheus"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetricgrpc"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	"go.opentelemetry.io/otel/exporters/prometheus"
	"go.opentelemetry.io/otel/exporters/stdout/stdoutmetric"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
)

const (
	envOTLPEndpoint        = "OTEL_EXPORTER_OTLP_ENDPOINT"
	envOTLPTracesEndpoint  = "OTEL_EXPORTER_OTLP_TRACES_ENDPOINT"
	envOTLPMetricsEndpoint = "OTEL_EXPORTER_OTLP_METRICS_ENDPOINT"
)

type spanExporterFunc func(ctx context.Context) (sdktrace.SpanExporter, error)

var spanExporters = map[string]spanExporterFunc{
	"stdout": func(context.Context) (sdktrace.SpanExporter, error) {
		return stdouttrace.New(stdouttrace.WithWriter(os.Stdout))
	},
	"otlp": func(ctx context.Context) (sdktrace.SpanExporter, error) {
		if err := requireOTLPEndpoint(envOTLPTracesEndpoint); err != nil {
			return nil, err
		}
		return otlptracegrpc.New(ctx)
	},
	"none": discardSpans,
	"":     discardSpans,
}

func discardSpans(context.Context) (sdktrace.SpanExporter, error) {
	return stdouttrace.New(stdouttrace.WithWriter(io.Discard))
}

// NewTracingExporter returns the span exporter registered under name:
// "stdout", "otlp", or "none"/"" for a discarding exporter.
func NewTracingExporter(ctx context.Context, name string) (sdktrace.SpanExporter, error) {
	build, ok := spanExporters[name]
	if !ok {
		return nil, fmt.Errorf("exporters: unknown tracing exporter %q", name)
	}
	return build(ctx)
}

// NewMetricsReader returns the metric reader registered under name:
// "stdout", "otlp", "prometheus", or "none"/"" for a discarding reader.
// The prometheus reader registers its collector with reg, or with the
// default registry when reg is nil.
func NewMetricsReader(ctx context.Context, name string, reg promclient.Registerer) (sdkmetric.Reader, error) {
	var (
		exp sdkmetric.Exporter
		err error
	)
	switch name {
	case "prometheus":
		var opts []prometheus.Option
		if reg != nil {
			opts = append(opts, prometheus.WithRegisterer(reg))
		}
		reader, err := prometheus.New(opts...)
		if err != nil {
			return nil, fmt.Errorf("exporters: prometheus: %w", err)
		}
		return reader, nil
	case "otlp":
		if err := requireOTLPEndpoint(envOTLPMetricsEndpoint); err != nil {
			return nil, err
		}
		exp, err = otlpmetricgrpc.New(ctx)
	case "stdout":
		exp, err = stdoutmetric.New(stdoutmetric.WithWriter(os.Stdout))
	case "none", "":
		exp, err = stdoutmetric.New(stdoutmetric.WithWriter(io.Discard))
	default:
		return nil, fmt.Errorf("exporters: unknown metrics exporter %q", name)
	}
	if err != nil {
		return nil, fmt.Errorf("exporters: %s metrics: %w", name, err)
	}
	return sdkmetric.NewPeriodicReader(exp), nil
}

// requireOTLPEndpoint fails unless the shared or the signal-specific OTLP
// endpoint variable is set.
func requireOTLPEndpoint(signalVar string) error {
	if os.Getenv(envOTLPEndpoint) != "" || os.Getenv(signalVar) != "" {
		return nil
	}
	return fmt.Errorf("exporters: OTLP endpoint not configured: set %s or %s", envOTLPEndpoint, signalVar)
}
