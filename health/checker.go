package health

import (
	"context"
	"time"
)

// Status is a component's health. Larger values are worse, so the overall
// status of a report is the maximum of its results.
type Status int

const (
	StatusHealthy Status = iota
	StatusDegraded
	StatusUnhealthy
)

var statusNames = [...]string{
	StatusHealthy:   "healthy",
	StatusDegraded:  "degraded",
	StatusUnhealthy: "unhealthy",
}

func (s Status) String() string {
	if s < StatusHealthy || s > StatusUnhealthy {
		return "unknown"
	}
	return statusNames[s]
}

// UpDown renders s for the /health document. Only Unhealthy is DOWN; a
// degraded component still serves.
func (s Status) UpDown() string {
	if s == StatusUnhealthy {
		return "DOWN"
	}
	return "UP"
}

// Result is what a Checker reports. Duration is filled in by the Aggregator.
type Result struct {
	Status    Status
	Message   string
	Details   map[string]any
	Duration  time.Duration
	Timestamp time.Time
	Error     error
}

func newResult(s Status, msg string, err error) Result {
	return Result{Status: s, Message: msg, Error: err, Timestamp: time.Now()}
}

func Healthy(msg string) Result              { return newResult(StatusHealthy, msg, nil) }
func Degraded(msg string) Result             { return newResult(StatusDegraded, msg, nil) }
func Unhealthy(msg string, err error) Result { return newResult(StatusUnhealthy, msg, err) }

// WithDetails returns a copy of r carrying details. Details are rendered in
// the /health document and must not hold secret values.
func (r Result) WithDetails(details map[string]any) Result {
	r.Details = details
	return r
}

// Checker probes one component. Check must respect ctx; the Aggregator
// abandons checks that outlive its timeout.
type Checker interface {
	Name() string
	Check(ctx context.Context) Result
}

// CheckerFunc turns a function into a named Checker.
type CheckerFunc struct {
	name string
	fn   func(context.Context) Result
}

func NewCheckerFunc(name string, fn func(context.Context) Result) *CheckerFunc {
	return &CheckerFunc{name: name, fn: fn}
}

func (f *CheckerFunc) Name() string                     { return f.name }
func (f *CheckerFunc) Check(ctx context.Context) Result { return f.fn(ctx) }
