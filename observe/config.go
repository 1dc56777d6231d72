package observe

import (
	"fmt"
	"slices"
)

// Config selects which telemetry signals are on and where they go.
type Config struct {
	ServiceName string        `koanf:"service_name"`
	Version     string        `koanf:"version"`
	Tracing     TracingConfig `koanf:"tracing"`
	Metrics     MetricsConfig `koanf:"metrics"`
	Logging     LoggingConfig `koanf:"logging"`
}

// TracingConfig selects the span exporter and the head sampling ratio.
type TracingConfig struct {
	Enabled   bool    `koanf:"enabled"`
	Exporter  string  `koanf:"exporter"`
	SamplePct float64 `koanf:"sample_pct"`
}

// MetricsConfig selects the metric reader. "prometheus" also enables the
// scrape handler returned by Observer.MetricsHandler.
type MetricsConfig struct {
	Enabled  bool   `koanf:"enabled"`
	Exporter string `koanf:"exporter"`
}

type LoggingConfig struct {
	Enabled bool   `koanf:"enabled"`
	Level   string `koanf:"level"`
}

// Empty names select the default for each setting.
var (
	TracingExporters = []string{"", "none", "stdout", "otlp"}
	MetricsExporters = []string{"", "none", "stdout", "otlp", "prometheus"}
	LogLevels        = []string{"", "debug", "info", "warn", "error"}
)

// Validate reports the first invalid setting. Settings of disabled signals
// are not checked.
func (c *Config) Validate() error {
	if c.ServiceName == "" {
		return ErrMissingServiceName
	}
	if t := c.Tracing; t.Enabled {
		if !slices.Contains(TracingExporters, t.Exporter) {
			return fmt.Errorf("%w: %q", ErrInvalidTracingExporter, t.Exporter)
		}
		if t.SamplePct < 0 || t.SamplePct > 1 {
			return fmt.Errorf("%w: %g", ErrInvalidSamplePct, t.SamplePct)
		}
	}
	if m := c.Metrics; m.Enabled && !slices.Contains(MetricsExporters, m.Exporter) {
		return fmt.Errorf("%w: %q", ErrInvalidMetricsExporter, m.Exporter)
	}
	if l := c.Logging; l.Enabled && !slices.Contains(LogLevels, l.Level) {
		return fmt.Errorf("%w: %q", ErrInvalidLogLevel, l.Level)
	}
	return nil
}
