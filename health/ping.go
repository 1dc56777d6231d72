package health

import (
	"context"
	"time"
)

// PingChecker probes a dependency through a ping function such as
// (*database.DB).Ping. A failed ping is Unhealthy; a ping slower than
// SlowThreshold is Degraded. A zero SlowThreshold disables the latency check.
type PingChecker struct {
	SlowThreshold time.Duration

	name string
	ping func(context.Context) error
	now  func() time.Time
}

func NewPingChecker(name string, ping func(context.Context) error) *PingChecker {
	return &PingChecker{SlowThreshold: time.Second, name: name, ping: ping, now: time.Now}
}

func (p *PingChecker) Name() string { return p.name }

func (p *PingChecker) Check(ctx context.Context) Result {
	start := p.now()
	if err := p.ping(ctx); err != nil {
		return Unhealthy(p.name+" unreachable", err)
	}
	latency := p.now().Sub(start)

	r := Healthy(p.name + " reachable")
	if p.SlowThreshold > 0 && latency > p.SlowThreshold {
		r = Degraded(p.name + " responding slowly")
	}
	return r.WithDetails(map[string]any{"latency": latency.String()})
}

var (
	_ Checker = (*CheckerFunc)(nil)
	_ Checker = (*PingChecker)(nil)
)
