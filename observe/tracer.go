package observe

import (
	"context"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	tracenoop "go.opentelemetry.io/otel/trace/noop"
)

// Operation identifies a unit of work for telemetry, such as resolving a
// secret or connecting to the database.
type Operation struct {
	Component string            // e.g. "secret", "database" (optional)
	Name      string            // e.g. "resolve", "connect" (required)
	Attrs     map[string]string // extra low-cardinality attributes (optional)
}

// SpanName returns the span name: <component>.<name> or <name>.
func (o Operation) SpanName() string {
	if o.Component != "" {
		return o.Component + "." + o.Name
	}
	return o.Name
}

// Validate checks the operation has a name.
func (o Operation) Validate() error {
	if o.Name == "" {
		return ErrMissingOperationName
	}
	return nil
}

func (o Operation) attributes() []attribute.KeyValue {
	attrs := make([]attribute.KeyValue, 0, 2+len(o.Attrs))
	attrs = append(attrs, attribute.String("op.name", o.Name))
	if o.Component != "" {
		attrs = append(attrs, attribute.String("op.component", o.Component))
	}
	for k, v := range o.Attrs {
		attrs = append(attrs, attribute.String(k, v))
	}
	return attrs
}

// Tracer wraps OpenTelemetry tracing with operation span management.
//
// Contract:
// - Concurrency: implementations must be safe for concurrent use.
// - Errors: EndSpan must be best-effort and must not panic.
type Tracer interface {
	// StartSpan starts a new span for an operation.
	StartSpan(ctx context.Context, op Operation) (context.Context, trace.Span)

	// EndSpan ends the span, recording any error.
	EndSpan(span trace.Span, err error)
}

type tracerImpl struct {
	tracer trace.Tracer
}

// NewTracer creates a Tracer wrapping the given OpenTelemetry tracer.
func NewTracer(t trace.Tracer) Tracer {
	if t == nil {
		t = tracenoop.NewTracerProvider().Tracer("noop")
	}
	return &tracerImpl{tracer: t}
}

// StartSpan starts a new span with the operation's attributes.
func (t *tracerImpl) StartSpan(ctx context.Context, op Operation) (context.Context, trace.Span) {
	attrs := append(op.attributes(), attribute.Bool("op.error", false))
	return t.tracer.Start(ctx, op.SpanName(),
		trace.WithAttributes(attrs...),
		trace.WithSpanKind(trace.SpanKindInternal),
	)
}

// EndSpan ends the span and records the error status if present.
func (t *tracerImpl) EndSpan(span trace.Span, err error) {
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		span.SetAttributes(attribute.Bool("op.error", true))
		span.RecordError(err)
	} else {
		span.SetStatus(codes.Ok, "")
	}
	span.End()
}
