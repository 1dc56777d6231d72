package secret

import (
	"context"
	"strings"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/jonwraymond/employeesvc/cache"
)

// Lookuper is implemented by Resolver.
type Lookuper interface {
	Lookup(ctx context.Context, name string) (Resolution, error)
}

// CachingResolver memoizes successful lookups for a fixed TTL.
// Failures are never cached. Concurrent first lookups of the same secret
// share one underlying resolution.
type CachingResolver struct {
	next  Lookuper
	cache cache.Cache
	ttl   time.Duration
	group singleflight.Group
}

// NewCachingResolver wraps next. A nil store gets a fresh MemoryCache.
func NewCachingResolver(next Lookuper, store cache.Cache, ttl time.Duration) *CachingResolver {
	if store == nil {
		store = cache.NewMemoryCache()
	}
	return &CachingResolver{next: next, cache: store, ttl: ttl}
}

// Resolve returns the value of the named secret.
func (c *CachingResolver) Resolve(ctx context.Context, name string) (string, error) {
	res, err := c.Lookup(ctx, name)
	if err != nil {
		return "", err
	}
	return res.Value, nil
}

// Lookup returns a cached resolution or resolves and caches it.
func (c *CachingResolver) Lookup(ctx context.Context, name string) (Resolution, error) {
	key := cacheKey(name)
	if b, ok := c.cache.Get(ctx, key); ok {
		if res, ok := decodeResolution(name, b); ok {
			return res, nil
		}
	}

	// The shared lookup outlives any single caller; each caller still
	// stops waiting when its own ctx ends.
	shared := context.WithoutCancel(ctx)
	ch := c.group.DoChan(key, func() (any, error) {
		res, err := c.next.Lookup(shared, name)
		if err != nil {
			return Resolution{}, err
		}
		// A key the cache rejects just goes uncached.
		_ = c.cache.Set(shared, key, encodeResolution(res), c.ttl)
		return res, nil
	})
	select {
	case <-ctx.Done():
		return Resolution{}, ctx.Err()
	case r := <-ch:
		if r.Err != nil {
			return Resolution{}, r.Err
		}
		return r.Val.(Resolution), nil
	}
}

func cacheKey(name string) string {
	return "secret:" + name
}

func encodeResolution(res Resolution) []byte {
	return []byte(string(res.Source) + "\x00" + res.Value)
}

func decodeResolution(name string, b []byte) (Resolution, bool) {
	kind, value, ok := strings.Cut(string(b), "\x00")
	if !ok {
		return Resolution{}, false
	}
	return Resolution{Name: name, Value: value, Source: SourceKind(kind)}, true
}

var (
	_ Getter   = (*CachingResolver)(nil)
	_ Lookuper = (*Resolver)(nil)
)
