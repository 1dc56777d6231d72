// Package resilience retries transient failures, such as the first database
// ping at startup while the database container is still coming up.
//
//	r := resilience.NewRetry(resilience.RetryConfig{
//	    MaxAttempts: 5,
//	    Backoff:     resilience.Backoff{Initial: 500 * time.Millisecond, Max: 10 * time.Second, Factor: 2, Jitter: true},
//	})
//	err := r.Execute(ctx, func(ctx context.Context) error {
//	    return db.PingContext(ctx)
//	})
//
// Errors wrapped with Permanent are returned immediately without retrying.
// When attempts run out the last error is returned wrapped with
// ErrMaxRetriesExceeded.
package resilience
