package observe

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	promclient "github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/metric/noop"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
	"go.opentelemetry.io/otel/trace"
	tracenoop "go.opentelemetry.io/otel/trace/noop"

	"github.com/jonwraymond/employeesvc/observe/exporters"
)

// Observer hands out the process's telemetry primitives.
//
// Implementations are safe for concurrent use. Shutdown flushes the SDK
// providers, honors the context deadline and joins every provider error.
type Observer interface {
	Tracer() trace.Tracer

	// TracerProvider is handed to instrumentation that creates its own
	// tracers, such as the HTTP middleware.
	TracerProvider() trace.TracerProvider

	Meter() metric.Meter
	Logger() Logger

	// MetricsHandler serves the Prometheus scrape endpoint. It is nil unless
	// the prometheus metrics exporter is configured.
	MetricsHandler() http.Handler

	Shutdown(ctx context.Context) error
}

// Logger is the structured logger every component accepts. Implementations
// are safe for concurrent use and never panic.
type Logger interface {
	Debug(ctx context.Context, msg string, fields ...Field)
	Info(ctx context.Context, msg string, fields ...Field)
	Warn(ctx context.Context, msg string, fields ...Field)
	Error(ctx context.Context, msg string, fields ...Field)
	With(fields ...Field) Logger
}

// Field is one key/value pair of a log entry.
type Field struct {
	Key   string
	Value any
}

type observer struct {
	tp      trace.TracerProvider
	tracer  trace.Tracer
	meter   metric.Meter
	logger  Logger
	scrape  http.Handler
	closers []func(context.Context) error
}

// NewObserver validates cfg and builds the providers for each enabled signal.
// Enabled SDK providers are also installed as the otel globals. Disabled
// signals get no-op implementations.
func NewObserver(ctx context.Context, cfg Config) (Observer, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	res, err := resource.New(ctx, resource.WithAttributes(
		semconv.ServiceName(cfg.ServiceName),
		semconv.ServiceVersion(cfg.Version),
	))
	if err != nil {
		return nil, fmt.Errorf("observe: resource: %w", err)
	}

	o := &observer{
		tp:     tracenoop.NewTracerProvider(),
		meter:  noop.NewMeterProvider().Meter(cfg.ServiceName),
		logger: NopLogger(),
	}

	if cfg.Tracing.Enabled {
		tp, err := newTracerProvider(ctx, cfg.Tracing, res)
		if err != nil {
			return nil, fmt.Errorf("observe: tracing: %w", err)
		}
		otel.SetTracerProvider(tp)
		o.tp = tp
		o.closers = append(o.closers, tp.Shutdown)
	}
	o.tracer = o.tp.Tracer(cfg.ServiceName)

	if cfg.Metrics.Enabled {
		var reg *promclient.Registry
		if cfg.Metrics.Exporter == "prometheus" {
			reg = promclient.NewRegistry()
			o.scrape = promhttp.HandlerFor(reg, promhttp.HandlerOpts{Registry: reg})
		}
		reader, err := exporters.NewMetricsReader(ctx, cfg.Metrics.Exporter, reg)
		if err != nil {
			_ = o.Shutdown(ctx)
			return nil, fmt.Errorf("observe: metrics: %w", err)
		}
		mp := sdkmetric.NewMeterProvider(sdkmetric.WithResource(res), sdkmetric.WithReader(reader))
		otel.SetMeterProvider(mp)
		o.meter = mp.Meter(cfg.ServiceName)
		o.closers = append(o.closers, mp.Shutdown)
	}

	if cfg.Logging.Enabled {
		o.logger = NewLogger(cfg.Logging.Level).With(Field{Key: "service", Value: cfg.ServiceName})
	}
	return o, nil
}

func newTracerProvider(ctx context.Context, cfg TracingConfig, res *resource.Resource) (*sdktrace.TracerProvider, error) {
	exp, err := exporters.NewTracingExporter(ctx, cfg.Exporter)
	if err != nil {
		return nil, err
	}

	sampler := sdktrace.TraceIDRatioBased(cfg.SamplePct)
	switch {
	case cfg.SamplePct >= 1:
		sampler = sdktrace.AlwaysSample()
	case cfg.SamplePct <= 0:
		sampler = sdktrace.NeverSample()
	}

	return sdktrace.NewTracerProvider(
		sdktrace.WithResource(res),
		sdktrace.WithSampler(sdktrace.ParentBased(sampler)),
		sdktrace.WithBatcher(exp),
	), nil
}

func (o *observer) Tracer() trace.Tracer                 { return o.tracer }
func (o *observer) TracerProvider() trace.TracerProvider { return o.tp }
func (o *observer) Meter() metric.Meter                  { return o.meter }
func (o *observer) Logger() Logger                       { return o.logger }
func (o *observer) MetricsHandler() http.Handler         { return o.scrape }

func (o *observer) Shutdown(ctx context.Context) error {
	errs := make([]error, 0, len(o.closers))
	for _, shutdown := range o.closers {
		errs = append(errs, shutdown(ctx))
	}
	return errors.Join(errs...)
}
