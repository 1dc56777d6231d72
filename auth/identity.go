package auth

import (
	"context"
	"time"
)

// AuthMethod names the authenticator that produced an Identity.
type AuthMethod string

const (
	AuthMethodAPIKey AuthMethod = "api_key"
	AuthMethodJWT    AuthMethod = "jwt"
)

// Identity is the caller behind an authenticated request. Principal is the
// JWT subject or the owner configured for the API key.
type Identity struct {
	Principal string
	Method    AuthMethod
	Claims    map[string]any
	ExpiresAt time.Time
	IssuedAt  time.Time
}

type identityKey struct{}

// WithIdentity attaches id to ctx.
func WithIdentity(ctx context.Context, id *Identity) context.Context {
	return context.WithValue(ctx, identityKey{}, id)
}

// IdentityFromContext returns the identity attached by WithIdentity, or nil.
func IdentityFromContext(ctx context.Context) *Identity {
	id, _ := ctx.Value(identityKey{}).(*Identity)
	return id
}

// PrincipalFromContext is IdentityFromContext(ctx).Principal, or "" for an
// anonymous context.
func PrincipalFromContext(ctx context.Context) string {
	if id := IdentityFromContext(ctx); id != nil {
		return id.Principal
	}
	return ""
}
