package auth

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

const bearerPrefix = "Bearer "

// JWTConfig configures the JWT authenticator. Issuer and Audience are
// checked only when set.
type JWTConfig struct {
	Issuer   string
	Audience string

	// Leeway tolerates clock skew on exp/nbf/iat.
	Leeway time.Duration
}

// JWTAuthenticator validates HS256 bearer tokens signed with a shared key.
type JWTAuthenticator struct {
	config JWTConfig
	key    []byte
	parser *jwt.Parser
}

// NewJWTAuthenticator creates a JWT authenticator for the signing key.
func NewJWTAuthenticator(config JWTConfig, signingKey string) (*JWTAuthenticator, error) {
	if signingKey == "" {
		return nil, ErrEmptyKey
	}

	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithLeeway(config.Leeway),
	}
	if config.Issuer != "" {
		opts = append(opts, jwt.WithIssuer(config.Issuer))
	}
	if config.Audience != "" {
		opts = append(opts, jwt.WithAudience(config.Audience))
	}

	return &JWTAuthenticator{
		config: config,
		key:    []byte(signingKey),
		parser: jwt.NewParser(opts...),
	}, nil
}

// Name returns "jwt".
func (a *JWTAuthenticator) Name() string { return string(AuthMethodJWT) }

// Supports returns true for an Authorization header with a Bearer token.
func (a *JWTAuthenticator) Supports(_ context.Context, req *AuthRequest) bool {
	return strings.HasPrefix(req.Header("Authorization"), bearerPrefix)
}

// Authenticate validates the bearer token.
func (a *JWTAuthenticator) Authenticate(_ context.Context, req *AuthRequest) (*AuthResult, error) {
	header := req.Header("Authorization")
	tokenString, ok := strings.CutPrefix(header, bearerPrefix)
	tokenString = strings.TrimSpace(tokenString)
	if !ok || tokenString == "" {
		return AuthFailure(ErrMissingCredentials, a.Name()), nil
	}

	claims := jwt.MapClaims{}
	_, err := a.parser.ParseWithClaims(tokenString, claims, func(*jwt.Token) (any, error) {
		return a.key, nil
	})
	switch {
	case err == nil:
	case errors.Is(err, jwt.ErrTokenExpired):
		return AuthFailure(ErrTokenExpired, a.Name()), nil
	case errors.Is(err, jwt.ErrTokenMalformed):
		return AuthFailure(ErrTokenMalformed, a.Name()), nil
	default:
		return AuthFailure(ErrInvalidCredentials, a.Name()), nil
	}

	return AuthSuccess(identityFromClaims(claims)), nil
}

func identityFromClaims(claims jwt.MapClaims) *Identity {
	identity := &Identity{
		Method: AuthMethodJWT,
		Claims: make(map[string]any, len(claims)),
	}
	for k, v := range claims {
		identity.Claims[k] = v
	}
	if sub, err := claims.GetSubject(); err == nil {
		identity.Principal = sub
	}
	if exp, err := claims.GetExpirationTime(); err == nil && exp != nil {
		identity.ExpiresAt = exp.Time
	}
	if iat, err := claims.GetIssuedAt(); err == nil && iat != nil {
		identity.IssuedAt = iat.Time
	}
	return identity
}

var _ Authenticator = (*JWTAuthenticator)(nil)
