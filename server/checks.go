package server

import (
	"context"
	"errors"

	"github.com/jonwraymond/employeesvc/health"
	"github.com/jonwraymond/employeesvc/secret"
)

// SecretsChecker reports Unhealthy when any of names no longer resolves.
// Details list the winning source kind per secret, never the value.
func SecretsChecker(l secret.Lookuper, names ...string) health.Checker {
	return health.NewCheckerFunc("secrets", func(ctx context.Context) health.Result {
		details := make(map[string]any, len(names))
		var errs []error
		for _, name := range names {
			res, err := l.Lookup(ctx, name)
			if err != nil {
				details[name] = "unresolved"
				errs = append(errs, err)
				continue
			}
			details[name] = string(res.Source)
		}
		if len(errs) > 0 {
			return health.Unhealthy("secrets unresolved", errors.Join(errs...)).WithDetails(details)
		}
		return health.Healthy("secrets resolved").WithDetails(details)
	})
}
