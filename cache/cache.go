package cache

import (
	"context"
	"errors"
	"strings"
	"time"
)

// MaxKeyLength bounds key size in bytes.
const MaxKeyLength = 512

var (
	ErrInvalidKey = errors.New("cache: key is invalid")
	ErrKeyTooLong = errors.New("cache: key exceeds max length")
)

// Cache stores byte values under string keys with a per-entry TTL.
//
// Implementations must be safe for concurrent use. Get reports a miss as
// (nil, false) and never errors; Delete of an absent key is not an error.
type Cache interface {
	Get(ctx context.Context, key string) ([]byte, bool)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
}

// ValidateKey rejects blank keys, keys longer than MaxKeyLength and keys
// containing control characters.
func ValidateKey(key string) error {
	if strings.TrimSpace(key) == "" {
		return ErrInvalidKey
	}
	if len(key) > MaxKeyLength {
		return ErrKeyTooLong
	}
	for i := 0; i < len(key); i++ {
		if key[i] < 0x20 || key[i] == 0x7f {
			return ErrInvalidKey
		}
	}
	return nil
}
