package cache

import (
	"context"
)

// Fetcher loads a fresh value from the backend.
type Fetcher func(ctx context.Context) ([]byte, error)

// Fallback reports whether a fetch error allows serving a cached copy.
type Fallback func(err error) bool

// ReadThrough caches successful fetches and serves them back when the
// backend cannot be reached.
type ReadThrough struct {
	cache    Cache
	policy   Policy
	fallback Fallback
}

// NewReadThrough creates a loader. A nil fallback never serves cached data
// after a failed fetch.
func NewReadThrough(cache Cache, policy Policy, fallback Fallback) (*ReadThrough, error) {
	if cache == nil {
		return nil, ErrNilCache
	}
	if fallback == nil {
		fallback = func(error) bool { return false }
	}
	return &ReadThrough{cache: cache, policy: policy, fallback: fallback}, nil
}

// Load returns the value for key.
//
// While online it fetches, stores the result and returns it; a failed fetch
// falls back to the cached copy when the Fallback allows. While offline a
// cached copy is returned without fetching. fromCache reports which path
// produced data. Errors are never cached.
func (r *ReadThrough) Load(ctx context.Context, key string, online bool, fetch Fetcher) (data []byte, fromCache bool, err error) {
	if !r.policy.ShouldCache() || ValidateKey(key) != nil {
		data, err = fetch(ctx)
		return data, false, err
	}

	if !online {
		if cached, ok := r.cache.Get(ctx, key); ok {
			return cached, true, nil
		}
	}

	data, err = fetch(ctx)
	if err != nil {
		if r.fallback(err) {
			if cached, ok := r.cache.Get(ctx, key); ok {
				return cached, true, nil
			}
		}
		return nil, false, err
	}

	_ = r.cache.Set(ctx, key, data, r.policy.EffectiveTTL(0))
	return data, false, nil
}

// Invalidate drops key.
func (r *ReadThrough) Invalidate(ctx context.Context, key string) error {
	return r.cache.Delete(ctx, key)
}

// InvalidatePrefix drops every key under prefix.
func (r *ReadThrough) InvalidatePrefix(ctx context.Context, prefix string) error {
	return r.cache.DeletePrefix(ctx, prefix)
}
