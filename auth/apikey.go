package auth

import (
	"context"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"strings"
)

// APIKeyHeader is the header carrying the API key.
const APIKeyHeader = "X-API-Key"

// APIKeyInfo describes a registered API key.
type APIKeyInfo struct {
	ID string

	// KeyHash is the SHA-256 hex digest of the key.
	KeyHash string

	Principal string
}

// APIKeyStore looks up API keys by hash. Lookup returns nil for unknown keys.
type APIKeyStore interface {
	Lookup(ctx context.Context, keyHash string) (*APIKeyInfo, error)
}

// StaticAPIKeyStore holds a single key, typically the resolved api_key
// secret. Only its hash is retained.
type StaticAPIKeyStore struct {
	info APIKeyInfo
}

// NewStaticAPIKeyStore hashes key and stores it for principal. The key must
// be non-blank and free of surrounding whitespace.
func NewStaticAPIKeyStore(key, principal string) (*StaticAPIKeyStore, error) {
	switch trimmed := strings.TrimSpace(key); {
	case trimmed == "":
		return nil, ErrEmptyKey
	case trimmed != key:
		return nil, ErrKeyWhitespace
	}
	hash := HashAPIKey(key)
	return &StaticAPIKeyStore{info: APIKeyInfo{
		ID:        hash[:8],
		KeyHash:   hash,
		Principal: principal,
	}}, nil
}

// Lookup compares hashes in constant time.
func (s *StaticAPIKeyStore) Lookup(_ context.Context, keyHash string) (*APIKeyInfo, error) {
	if subtle.ConstantTimeCompare([]byte(keyHash), []byte(s.info.KeyHash)) != 1 {
		return nil, nil
	}
	info := s.info
	return &info, nil
}

// APIKeyAuthenticator validates the X-API-Key header.
type APIKeyAuthenticator struct {
	store APIKeyStore
}

// NewAPIKeyAuthenticator creates an API key authenticator over store.
func NewAPIKeyAuthenticator(store APIKeyStore) *APIKeyAuthenticator {
	return &APIKeyAuthenticator{store: store}
}

// Name returns "api_key".
func (a *APIKeyAuthenticator) Name() string { return string(AuthMethodAPIKey) }

// Supports returns true if the request carries an API key header.
func (a *APIKeyAuthenticator) Supports(_ context.Context, req *AuthRequest) bool {
	return req.Header(APIKeyHeader) != ""
}

// Authenticate validates the API key.
func (a *APIKeyAuthenticator) Authenticate(ctx context.Context, req *AuthRequest) (*AuthResult, error) {
	apiKey := strings.TrimSpace(req.Header(APIKeyHeader))
	if apiKey == "" {
		return AuthFailure(ErrMissingCredentials, a.Name()), nil
	}

	info, err := a.store.Lookup(ctx, HashAPIKey(apiKey))
	if err != nil {
		return nil, err
	}
	if info == nil {
		return AuthFailure(ErrInvalidCredentials, a.Name()), nil
	}

	return AuthSuccess(&Identity{
		Principal: info.Principal,
		Method:    AuthMethodAPIKey,
		Claims:    map[string]any{"key_id": info.ID},
	}), nil
}

// HashAPIKey hashes an API key using SHA-256.
func HashAPIKey(key string) string {
	hash := sha256.Sum256([]byte(key))
	return hex.EncodeToString(hash[:])
}

var (
	_ Authenticator = (*APIKeyAuthenticator)(nil)
	_ APIKeyStore   = (*StaticAPIKeyStore)(nil)
)
