package health

import (
	"context"
	"runtime"
	"testing"
)

func fixedHeap(alloc uint64) func(*runtime.MemStats) {
	return func(s *runtime.MemStats) { s.HeapAlloc = alloc }
}

func TestHeapChecker(t *testing.T) {
	tests := []struct {
		name  string
		limit uint64
		alloc uint64
		want  Status
	}{
		{"no limit", 0, 1 << 30, StatusHealthy},
		{"normal", 100, 10, StatusHealthy},
		{"high", 100, 85, StatusDegraded},
		{"critical", 100, 99, StatusUnhealthy},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := NewHeapChecker(tt.limit)
			c.readStats = fixedHeap(tt.alloc)
			if got := c.Check(context.Background()).Status; got != tt.want {
				t.Errorf("Status = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestHeapChecker_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if got := NewHeapChecker(100).Check(ctx).Status; got != StatusUnhealthy {
		t.Errorf("Status = %v, want unhealthy", got)
	}
}
