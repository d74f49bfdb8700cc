package cache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"sort"
	"time"

	"golang.org/x/sync/singleflight"
)

// APICache memoizes upstream API responses on top of a byte-valued Cache.
// Keys are derived from an endpoint identifier plus a parameter map, so two
// calls for the same endpoint with the same parameters share one entry
// regardless of how the parameter map was built.
type APICache struct {
	*Cache[[]byte]
	group singleflight.Group
}

// FetchFunc produces the value for a cache miss, typically by calling the
// upstream API. The cache applies no timeout of its own; deadline handling
// belongs to the producer's context.
type FetchFunc func(ctx context.Context) ([]byte, error)

// NewAPI constructs an APICache with the given engine configuration.
func NewAPI(cfg Config) (*APICache, error) {
	c, err := New[[]byte](cfg)
	if err != nil {
		return nil, err
	}
	return &APICache{Cache: c}, nil
}

// Key derives a deterministic cache key from endpoint and params. The
// parameter pairs are sorted by name before serialization, so insertion
// order never changes the key. Nil and empty maps hash identically. The
// endpoint prefixes the digest, keeping distinct endpoints in distinct
// key spaces even on the off chance of a parameter collision.
func (c *APICache) Key(endpoint string, params map[string]any) string {
	sum := sha256.Sum256(stableJSON(params))
	return endpoint + ":" + hex.EncodeToString(sum[:])
}

// Fetch returns the cached response for (endpoint, params) if one is live,
// otherwise invokes fn, caches its result under the derived key, and returns
// it. ttl <= 0 selects the cache's default TTL.
//
// Failures are never cached: if fn returns an error, the error propagates
// and the next Fetch with the same key invokes fn again. Concurrent fetches
// for the same key are coalesced into a single in-flight producer call; all
// waiters share its result or its error.
func (c *APICache) Fetch(ctx context.Context, endpoint string, params map[string]any, fn FetchFunc, ttl time.Duration) ([]byte, error) {
	key := c.Key(endpoint, params)

	if data, ok := c.Get(key); ok {
		return data, nil
	}

	v, err, _ := c.group.Do(key, func() (any, error) {
		data, err := fn(ctx)
		if err != nil {
			return nil, err
		}
		c.Set(key, data, ttl)
		return data, nil
	})
	if err != nil {
		return nil, err
	}
	return v.([]byte), nil
}

// stableJSON serializes params as a sorted array of name/value pairs.
// Marshaling the map directly would also sort top-level keys, but the
// explicit pair array keeps the format independent of encoder internals.
func stableJSON(params map[string]any) []byte {
	keys := make([]string, 0, len(params))
	for k := range params {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	ordered := make([]struct {
		Key   string `json:"key"`
		Value any    `json:"value"`
	}, len(keys))
	for i, k := range keys {
		ordered[i].Key = k
		ordered[i].Value = params[k]
	}

	data, _ := json.Marshal(ordered)
	return data
}
