package health

import (
	"context"
	"fmt"
	"runtime"
)

// HeapChecker reports Degraded once the live heap passes Warn of Limit and
// Unhealthy once it passes Critical of Limit.
type HeapChecker struct {
	Limit    uint64
	Warn     float64
	Critical float64

	readStats func(*runtime.MemStats)
}

// NewHeapChecker creates a heap checker for a byte limit with 80% and 95%
// thresholds.
func NewHeapChecker(limit uint64) *HeapChecker {
	return &HeapChecker{
		Limit:     limit,
		Warn:      0.8,
		Critical:  0.95,
		readStats: runtime.ReadMemStats,
	}
}

// Name returns "memory".
func (h *HeapChecker) Name() string { return "memory" }

// Check compares HeapAlloc to the limit.
func (h *HeapChecker) Check(ctx context.Context) Result {
	if err := ctx.Err(); err != nil {
		return Unhealthy("context cancelled", err)
	}

	var stats runtime.MemStats
	h.readStats(&stats)

	details := map[string]any{
		"heap_alloc": stats.HeapAlloc,
		"limit":      h.Limit,
		"num_gc":     stats.NumGC,
		"goroutines": runtime.NumGoroutine(),
	}
	if h.Limit == 0 {
		return Healthy("no heap limit configured").WithDetails(details)
	}

	ratio := float64(stats.HeapAlloc) / float64(h.Limit)
	details["usage_percent"] = ratio * 100

	switch {
	case ratio >= h.Critical:
		return Unhealthy(fmt.Sprintf("heap usage critical: %.1f%%", ratio*100), ErrCheckFailed).WithDetails(details)
	case ratio >= h.Warn:
		return Degraded(fmt.Sprintf("heap usage high: %.1f%%", ratio*100)).WithDetails(details)
	default:
		return Healthy(fmt.Sprintf("heap usage normal: %.1f%%", ratio*100)).WithDetails(details)
	}
}

var _ Checker = (*HeapChecker)(nil)
