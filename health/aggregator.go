package health

import (
	"context"
	"slices"
	"sync"
	"time"
)

const defaultCheckTimeout = 5 * time.Second

// AggregatorConfig tunes an Aggregator. Timeout bounds one Check or one
// CheckAll run; zero selects five seconds.
type AggregatorConfig struct {
	Timeout time.Duration
}

// Aggregator holds the registered checkers and runs them on demand. Nothing
// is cached: every call probes the components again.
type Aggregator struct {
	timeout time.Duration

	mu       sync.RWMutex
	names    []string
	checkers map[string]Checker
}

func NewAggregator(cfg ...AggregatorConfig) *Aggregator {
	a := &Aggregator{timeout: defaultCheckTimeout, checkers: map[string]Checker{}}
	if len(cfg) > 0 && cfg[0].Timeout > 0 {
		a.timeout = cfg[0].Timeout
	}
	return a
}

// Register adds c under c.Name(). A checker with the same name is replaced
// in place and keeps its position.
func (a *Aggregator) Register(c Checker) {
	a.mu.Lock()
	defer a.mu.Unlock()

	name := c.Name()
	if _, dup := a.checkers[name]; !dup {
		a.names = append(a.names, name)
	}
	a.checkers[name] = c
}

// CheckerNames lists registered checkers in registration order.
func (a *Aggregator) CheckerNames() []string {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return slices.Clone(a.names)
}

// Check runs the named checker alone.
func (a *Aggregator) Check(ctx context.Context, name string) (Result, error) {
	a.mu.RLock()
	c, ok := a.checkers[name]
	a.mu.RUnlock()
	if !ok {
		return Result{}, ErrCheckerNotFound
	}

	ctx, cancel := context.WithTimeout(ctx, a.timeout)
	defer cancel()
	return runCheck(ctx, c), nil
}

// Report is one CheckAll run. Status is OverallStatus(Results).
type Report struct {
	Status    Status
	Results   map[string]Result
	Timestamp time.Time
}

// CheckAll runs every checker concurrently under a shared timeout. A checker
// still running at the deadline is reported Unhealthy with ErrCheckTimeout.
func (a *Aggregator) CheckAll(ctx context.Context) Report {
	a.mu.RLock()
	checkers := make([]Checker, len(a.names))
	for i, name := range a.names {
		checkers[i] = a.checkers[name]
	}
	a.mu.RUnlock()

	report := Report{Results: make(map[string]Result, len(checkers)), Timestamp: time.Now()}
	if len(checkers) == 0 {
		return report
	}

	ctx, cancel := context.WithTimeout(ctx, a.timeout)
	defer cancel()

	results := make([]Result, len(checkers))
	var wg sync.WaitGroup
	for i, c := range checkers {
		wg.Go(func() { results[i] = runCheck(ctx, c) })
	}
	wg.Wait()

	for i, c := range checkers {
		report.Results[c.Name()] = results[i]
	}
	report.Status = OverallStatus(report.Results)
	return report
}

// OverallStatus is the worst status among results, or Healthy when empty.
func OverallStatus(results map[string]Result) Status {
	worst := StatusHealthy
	for _, r := range results {
		worst = max(worst, r.Status)
	}
	return worst
}

// runCheck runs c in its own goroutine so a checker that ignores ctx cannot
// hold up the caller past the deadline.
func runCheck(ctx context.Context, c Checker) Result {
	start := time.Now()
	done := make(chan Result, 1)
	go func() {
		r := c.Check(ctx)
		if r.Timestamp.IsZero() {
			r.Timestamp = start
		}
		r.Duration = time.Since(start)
		done <- r
	}()

	select {
	case r := <-done:
		return r
	case <-ctx.Done():
		r := Unhealthy("check timed out", ErrCheckTimeout)
		r.Timestamp = start
		r.Duration = time.Since(start)
		return r
	}
}
