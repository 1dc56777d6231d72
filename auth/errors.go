package auth

import "errors"

// Sentinel errors for authentication.
var (
	ErrMissingCredentials = errors.New("auth: missing credentials")
	ErrInvalidCredentials = errors.New("auth: invalid credentials")
	ErrTokenExpired       = errors.New("auth: token expired")
	ErrTokenMalformed     = errors.New("auth: token malformed")

	// ErrEmptyKey is returned when an authenticator is built from an empty
	// key.
	ErrEmptyKey = errors.New("auth: empty key material")

	// ErrKeyWhitespace is returned for an API key with leading or trailing
	// whitespace. Presented keys are trimmed, so such a key could never match.
	ErrKeyWhitespace = errors.New("auth: api key has surrounding whitespace")
)
