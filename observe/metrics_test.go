package observe

import (
	"context"
	"errors"
	"testing"
	"time"

	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
)

func newTestMetrics(t *testing.T) (Metrics, *sdkmetric.ManualReader) {
	t.Helper()
	reader := sdkmetric.NewManualReader()
	mp := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	m, err := NewMetrics(mp.Meter("test"))
	if err != nil {
		t.Fatalf("failed to create metrics: %v", err)
	}
	return m, reader
}

func collect(t *testing.T, reader *sdkmetric.ManualReader) metricdata.ResourceMetrics {
	t.Helper()
	var rm metricdata.ResourceMetrics
	if err := reader.Collect(context.Background(), &rm); err != nil {
		t.Fatalf("failed to collect metrics: %v", err)
	}
	return rm
}

func findMetric(rm metricdata.ResourceMetrics, name string) *metricdata.Metrics {
	for _, sm := range rm.ScopeMetrics {
		for i := range sm.Metrics {
			if sm.Metrics[i].Name == name {
				return &sm.Metrics[i]
			}
		}
	}
	return nil
}

func sumValue(t *testing.T, m *metricdata.Metrics) int64 {
	t.Helper()
	sum, ok := m.Data.(metricdata.Sum[int64])
	if !ok {
		t.Fatalf("expected Sum[int64], got %T", m.Data)
	}
	var total int64
	for _, dp := range sum.DataPoints {
		total += dp.Value
	}
	return total
}

func TestMetrics_RecordOperation(t *testing.T) {
	m, reader := newTestMetrics(t)
	op := Operation{Component: "secret", Name: "resolve"}

	m.RecordOperation(context.Background(), op, 10*time.Millisecond, nil)
	m.RecordOperation(context.Background(), op, 10*time.Millisecond, errors.New("boom"))

	rm := collect(t, reader)

	total := findMetric(rm, "op.total")
	if total == nil {
		t.Fatal("op.total metric not found")
	}
	if got := sumValue(t, total); got != 2 {
		t.Errorf("op.total = %d, want 2", got)
	}

	errs := findMetric(rm, "op.errors")
	if errs == nil {
		t.Fatal("op.errors metric not found")
	}
	if got := sumValue(t, errs); got != 1 {
		t.Errorf("op.errors = %d, want 1", got)
	}

	if findMetric(rm, "op.duration_ms") == nil {
		t.Error("op.duration_ms metric not found")
	}
}

func TestMetrics_RecordRequest(t *testing.T) {
	m, reader := newTestMetrics(t)

	m.RecordRequest(context.Background(), "GET", "/health", 200, time.Millisecond)

	rm := collect(t, reader)
	reqs := findMetric(rm, "http.server.requests")
	if reqs == nil {
		t.Fatal("http.server.requests metric not found")
	}
	if got := sumValue(t, reqs); got != 1 {
		t.Errorf("http.server.requests = %d, want 1", got)
	}
}

func TestNewMetrics_NilMeter(t *testing.T) {
	m, err := NewMetrics(nil)
	if err != nil {
		t.Fatalf("NewMetrics(nil) error = %v", err)
	}
	m.RecordOperation(context.Background(), Operation{Name: "noop"}, 0, nil)
}
