package resilience

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"time"
)

// Backoff computes the wait before each retry. The first retry waits
// Initial; each later one multiplies by Factor, capped at Max. With Jitter
// up to a quarter of the delay is added at random.
type Backoff struct {
	Initial time.Duration
	Max     time.Duration
	Factor  float64
	Jitter  bool
}

// DefaultBackoff starts at 100ms and doubles up to 30s with jitter.
var DefaultBackoff = Backoff{
	Initial: 100 * time.Millisecond,
	Max:     30 * time.Second,
	Factor:  2,
	Jitter:  true,
}

// Delay returns the wait after the given failed attempt (1-based).
func (b Backoff) Delay(attempt int) time.Duration {
	if b.Initial <= 0 {
		return 0
	}
	factor := b.Factor
	if factor < 1 {
		factor = 1
	}

	delay := float64(b.Initial)
	for i := 1; i < attempt; i++ {
		delay *= factor
		if b.Max > 0 && delay >= float64(b.Max) {
			break
		}
	}
	d := time.Duration(delay)
	if b.Max > 0 && d > b.Max {
		d = b.Max
	}

	if b.Jitter && d >= 4 {
		// #nosec G404 -- jitter is non-cryptographic timing variance.
		d += time.Duration(rand.Int64N(int64(d / 4)))
	}
	return d
}

// RetryConfig configures a Retry.
type RetryConfig struct {
	// MaxAttempts counts the first call. Default: 3.
	MaxAttempts int

	// Backoff spaces the attempts. Zero value: DefaultBackoff.
	Backoff Backoff

	// RetryIf reports whether err is worth another attempt. Default: any
	// error not marked Permanent.
	RetryIf func(err error) bool

	// OnRetry is called before sleeping ahead of the next attempt.
	OnRetry func(attempt int, err error, delay time.Duration)
}

// Retry runs an operation until it succeeds, fails permanently or runs out
// of attempts.
type Retry struct {
	config RetryConfig
}

// NewRetry creates a Retry, filling in defaults.
func NewRetry(config RetryConfig) *Retry {
	if config.MaxAttempts <= 0 {
		config.MaxAttempts = 3
	}
	if config.Backoff == (Backoff{}) {
		config.Backoff = DefaultBackoff
	}
	if config.RetryIf == nil {
		config.RetryIf = func(err error) bool { return !IsPermanent(err) }
	}
	return &Retry{config: config}
}

// Execute calls op until it returns nil. A Permanent error is returned
// unwrapped at once; ctx cancellation during a wait returns ctx.Err(); when
// attempts run out the last error is wrapped with ErrMaxRetriesExceeded.
func (r *Retry) Execute(ctx context.Context, op func(context.Context) error) error {
	var lastErr error

	for attempt := 1; ; attempt++ {
		err := op(ctx)
		if err == nil {
			return nil
		}
		lastErr = err

		var perm *permanentError
		if errors.As(err, &perm) {
			return perm.err
		}
		if !r.config.RetryIf(err) {
			return err
		}
		if attempt >= r.config.MaxAttempts {
			break
		}

		delay := r.config.Backoff.Delay(attempt)
		if r.config.OnRetry != nil {
			r.config.OnRetry(attempt, err, delay)
		}
		if err := sleep(ctx, delay); err != nil {
			return err
		}
	}

	return fmt.Errorf("%w after %d attempts: %w", ErrMaxRetriesExceeded, r.config.MaxAttempts, lastErr)
}

func sleep(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

// Config returns the effective configuration.
func (r *Retry) Config() RetryConfig {
	return r.config
}
