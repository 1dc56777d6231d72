package health

import "errors"

var (
	// ErrCheckFailed is attached to results whose threshold was crossed.
	ErrCheckFailed = errors.New("health: check failed")

	// ErrCheckTimeout is attached to results of checks that outlived the
	// aggregator timeout.
	ErrCheckTimeout = errors.New("health: check timeout")

	ErrCheckerNotFound = errors.New("health: checker not found")
)
