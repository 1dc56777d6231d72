// Package secret resolves sensitive configuration values such as database
// passwords and API keys.
//
// Each secret is described by a Definition listing its candidate sources.
// Sources are tried in a fixed order and the first non-empty value wins:
//
//  1. FilePath: the trimmed contents of a file (Docker/Kubernetes style secrets)
//  2. EnvVar:   the value of an environment variable, taken verbatim
//  3. Default:  a literal fallback, when one is configured
//
// A file that cannot be read is logged and skipped. When no source yields a
// value, resolution fails with an error matching ErrSecretNotConfigured.
//
// By convention a secret exposed as the environment variable X may instead be
// supplied through a file named by X_FILE (see Conventional):
//
//	env := secret.OSEnv
//	cfg := secret.Config{Definitions: []secret.Definition{
//	    secret.Conventional("database_password", "SPRING_DATASOURCE_PASSWORD", env),
//	    secret.Conventional("api_key", "API_KEY", env),
//	}}
//	r, err := secret.NewResolver(cfg)
//	...
//	password, err := r.Resolve(ctx, "database_password")
//
// The Resolver keeps no state between calls. Callers that want memoization
// wrap it in a CachingResolver.
package secret
