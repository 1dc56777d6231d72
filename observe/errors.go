package observe

import "errors"

var (
	ErrMissingServiceName     = errors.New("observe: service name is required")
	ErrInvalidSamplePct       = errors.New("observe: sample_pct out of range [0,1]")
	ErrInvalidTracingExporter = errors.New("observe: unsupported tracing exporter")
	ErrInvalidMetricsExporter = errors.New("observe: unsupported metrics exporter")
	ErrInvalidLogLevel        = errors.New("observe: unsupported log level")

	// ErrMissingOperationName is returned by Operation.Validate and by the
	// middleware before the wrapped call runs.
	ErrMissingOperationName = errors.New("observe: operation name is required")
)
