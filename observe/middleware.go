package observe

import (
	"context"
	"time"
)

// OpFunc is a unit of work run under Middleware.
type OpFunc func(ctx context.Context) error

// Middleware records a span, the op.* metrics and one log line for every
// operation it runs. The wrapped function sees the span's context, and its
// error is returned unchanged. A Middleware is safe for concurrent use.
type Middleware struct {
	tracer  Tracer
	metrics Metrics
	logger  Logger
}

func NewMiddleware(tracer Tracer, metrics Metrics, logger Logger) *Middleware {
	if logger == nil {
		logger = NopLogger()
	}
	return &Middleware{tracer: tracer, metrics: metrics, logger: logger}
}

// MiddlewareFromObserver builds a Middleware over obs's tracer, meter and
// logger.
func MiddlewareFromObserver(obs Observer) (*Middleware, error) {
	metrics, err := NewMetrics(obs.Meter())
	if err != nil {
		return nil, err
	}
	return NewMiddleware(NewTracer(obs.Tracer()), metrics, obs.Logger()), nil
}

// Metrics exposes the recorder so HTTP middleware can share the instruments.
func (m *Middleware) Metrics() Metrics { return m.metrics }

// Wrap returns fn instrumented as op. An op without a name fails with
// ErrMissingOperationName and fn is never called.
func (m *Middleware) Wrap(op Operation, fn OpFunc) OpFunc {
	return func(ctx context.Context) error {
		if err := op.Validate(); err != nil {
			return err
		}

		ctx, span := m.tracer.StartSpan(ctx, op)
		start := time.Now()
		err := fn(ctx)
		elapsed := time.Since(start)

		m.tracer.EndSpan(span, err)
		m.metrics.RecordOperation(ctx, op, elapsed, err)
		m.logCompletion(ctx, op, elapsed, err)
		return err
	}
}

// Run is Wrap(op, fn)(ctx).
func (m *Middleware) Run(ctx context.Context, op Operation, fn OpFunc) error {
	return m.Wrap(op, fn)(ctx)
}

func (m *Middleware) logCompletion(ctx context.Context, op Operation, elapsed time.Duration, err error) {
	fields := make([]Field, 0, 3+len(op.Attrs))
	fields = append(fields,
		Field{Key: "op", Value: op.SpanName()},
		Field{Key: "duration_ms", Value: float64(elapsed.Microseconds()) / 1000},
	)
	for k, v := range op.Attrs {
		fields = append(fields, Field{Key: k, Value: v})
	}

	if err == nil {
		m.logger.Info(ctx, "operation completed", fields...)
		return
	}
	m.logger.Error(ctx, "operation failed", append(fields, Field{Key: "error", Value: err.Error()})...)
}
