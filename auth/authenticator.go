package auth

import (
	"context"
	"net/http"
)

// Authenticator checks the credentials carried by a request.
//
// Rejected credentials are reported in the AuthResult with a nil error. A
// non-nil error means the check itself could not run, for example because the
// key store failed. Implementations are safe for concurrent use.
type Authenticator interface {
	Name() string

	// Supports reports whether req carries the kind of credential this
	// authenticator reads. The middleware answers 401 without calling
	// Authenticate when nothing supports the request.
	Supports(ctx context.Context, req *AuthRequest) bool

	Authenticate(ctx context.Context, req *AuthRequest) (*AuthResult, error)
}

// AuthRequest is the transport-neutral view of a request's credentials.
type AuthRequest struct {
	Headers http.Header
}

func RequestFromHTTP(r *http.Request) *AuthRequest {
	return &AuthRequest{Headers: r.Header}
}

// Header returns the first value of the named header. A request without
// headers yields "".
func (r *AuthRequest) Header(name string) string {
	return r.Headers.Get(name)
}

// AuthResult is the outcome of Authenticate. Identity is set on success and
// Error on rejection. Method names the authenticator that decided.
type AuthResult struct {
	Authenticated bool
	Identity      *Identity
	Error         error
	Method        string
}

func AuthSuccess(id *Identity) *AuthResult {
	return &AuthResult{Authenticated: true, Identity: id, Method: string(id.Method)}
}

func AuthFailure(err error, method string) *AuthResult {
	return &AuthResult{Error: err, Method: method}
}
