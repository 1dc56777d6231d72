package observe

import (
	"context"
	"strconv"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/metric/noop"
)

// Metrics records operation and HTTP request metrics.
//
// Contract:
// - Concurrency: implementations must be safe for concurrent use.
// - Errors: implementations must not panic.
type Metrics interface {
	// RecordOperation records an operation with duration and error status.
	RecordOperation(ctx context.Context, op Operation, duration time.Duration, err error)

	// RecordRequest records a served HTTP request.
	RecordRequest(ctx context.Context, method, route string, status int, duration time.Duration)
}

type metricsImpl struct {
	opTotal     metric.Int64Counter
	opErrors    metric.Int64Counter
	opDuration  metric.Float64Histogram
	reqTotal    metric.Int64Counter
	reqDuration metric.Float64Histogram
}

// NewMetrics creates the service instruments on meter. A nil meter yields
// no-op instruments.
func NewMetrics(meter metric.Meter) (Metrics, error) {
	if meter == nil {
		meter = noop.NewMeterProvider().Meter("noop")
	}

	opTotal, err := meter.Int64Counter(
		"op.total",
		metric.WithDescription("Total number of operations"),
		metric.WithUnit("{call}"),
	)
	if err != nil {
		return nil, err
	}

	opErrors, err := meter.Int64Counter(
		"op.errors",
		metric.WithDescription("Total number of failed operations"),
		metric.WithUnit("{error}"),
	)
	if err != nil {
		return nil, err
	}

	opDuration, err := meter.Float64Histogram(
		"op.duration_ms",
		metric.WithDescription("Operation duration in milliseconds"),
		metric.WithUnit("ms"),
	)
	if err != nil {
		return nil, err
	}

	reqTotal, err := meter.Int64Counter(
		"http.server.requests",
		metric.WithDescription("Total number of HTTP requests served"),
		metric.WithUnit("{request}"),
	)
	if err != nil {
		return nil, err
	}

	reqDuration, err := meter.Float64Histogram(
		"http.server.duration_ms",
		metric.WithDescription("HTTP request duration in milliseconds"),
		metric.WithUnit("ms"),
	)
	if err != nil {
		return nil, err
	}

	return &metricsImpl{
		opTotal:     opTotal,
		opErrors:    opErrors,
		opDuration:  opDuration,
		reqTotal:    reqTotal,
		reqDuration: reqDuration,
	}, nil
}

func (m *metricsImpl) RecordOperation(ctx context.Context, op Operation, duration time.Duration, err error) {
	opt := metric.WithAttributes(op.attributes()...)

	m.opTotal.Add(ctx, 1, opt)
	if err != nil {
		m.opErrors.Add(ctx, 1, opt)
	}
	m.opDuration.Record(ctx, float64(duration.Milliseconds()), opt)
}

func (m *metricsImpl) RecordRequest(ctx context.Context, method, route string, status int, duration time.Duration) {
	opt := metric.WithAttributes(
		attribute.String("http.request.method", method),
		attribute.String("http.route", route),
		attribute.String("http.response.status_code", strconv.Itoa(status)),
	)
	m.reqTotal.Add(ctx, 1, opt)
	m.reqDuration.Record(ctx, float64(duration.Milliseconds()), opt)
}
