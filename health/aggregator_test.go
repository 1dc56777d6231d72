package health

import (
	"context"
	"errors"
	"testing"
	"time"
)

func staticChecker(name string, r Result) Checker {
	return NewCheckerFunc(name, func(context.Context) Result { return r })
}

func TestAggregator_RegisterOrder(t *testing.T) {
	agg := NewAggregator()
	agg.Register(staticChecker("database", Healthy("ok")))
	agg.Register(staticChecker("secrets", Healthy("ok")))
	agg.Register(staticChecker("database", Degraded("replaced")))

	names := agg.CheckerNames()
	if len(names) != 2 || names[0] != "database" || names[1] != "secrets" {
		t.Fatalf("CheckerNames() = %v", names)
	}

	r, err := agg.Check(context.Background(), "database")
	if err != nil {
		t.Fatalf("Check() error = %v", err)
	}
	if r.Status != StatusDegraded {
		t.Errorf("Status = %v, want the replacement checker's", r.Status)
	}
}

func TestAggregator_CheckNotFound(t *testing.T) {
	_, err := NewAggregator().Check(context.Background(), "missing")
	if !errors.Is(err, ErrCheckerNotFound) {
		t.Errorf("Check() error = %v, want ErrCheckerNotFound", err)
	}
}

func TestAggregator_CheckAll(t *testing.T) {
	tests := []struct {
		name    string
		results []Result
		want    Status
	}{
		{"empty", nil, StatusHealthy},
		{"all healthy", []Result{Healthy("a"), Healthy("b")}, StatusHealthy},
		{"one degraded", []Result{Healthy("a"), Degraded("b")}, StatusDegraded},
		{"one unhealthy", []Result{Degraded("a"), Unhealthy("b", nil)}, StatusUnhealthy},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			agg := NewAggregator()
			for i, r := range tt.results {
				agg.Register(staticChecker(string(rune('a'+i)), r))
			}

			report := agg.CheckAll(context.Background())
			if report.Status != tt.want {
				t.Errorf("Status = %v, want %v", report.Status, tt.want)
			}
			if len(report.Results) != len(tt.results) {
				t.Errorf("len(Results) = %d, want %d", len(report.Results), len(tt.results))
			}
			if report.Timestamp.IsZero() {
				t.Error("Timestamp not set")
			}
		})
	}
}

func TestAggregator_Timeout(t *testing.T) {
	agg := NewAggregator(AggregatorConfig{Timeout: 20 * time.Millisecond})
	agg.Register(NewCheckerFunc("stuck", func(ctx context.Context) Result {
		<-ctx.Done()
		time.Sleep(50 * time.Millisecond)
		return Healthy("late")
	}))

	report := agg.CheckAll(context.Background())
	r := report.Results["stuck"]
	if r.Status != StatusUnhealthy || !errors.Is(r.Error, ErrCheckTimeout) {
		t.Errorf("result = %+v, want timeout", r)
	}
	if report.Status != StatusUnhealthy {
		t.Errorf("Status = %v, want unhealthy", report.Status)
	}
}
