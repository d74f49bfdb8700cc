// Package cache provides the bounded, TTL-aware, LRU-evicting in-memory
// caches used to memoize upstream monitoring and risk API responses.
package cache

import (
	"container/list"
	"context"
	"errors"
	"fmt"
	"sync"
	"time"
)

const (
	// DefaultCapacity bounds a cache that was configured without one.
	DefaultCapacity = 1000
	// DefaultTTL applies to entries stored without an explicit TTL.
	DefaultTTL = 5 * time.Minute
	// DefaultCleanupInterval is the background sweep period.
	DefaultCleanupInterval = time.Minute

	// CleanupDisabled turns off the background sweep. Lazy expiration on
	// access still applies; tests use this to avoid timer-driven work.
	CleanupDisabled = time.Duration(-1)
)

var (
	ErrCapacity = errors.New("cache: capacity must be positive")
	ErrTTL      = errors.New("cache: default TTL must be positive")
)

// Config controls capacity, expiration, and maintenance behavior.
//
// Zero values select the package defaults. Negative Capacity or DefaultTTL
// are rejected at construction time: a misconfigured cache should fail on
// startup, not silently drop data later. CleanupInterval accepts
// CleanupDisabled to suppress the sweep goroutine.
type Config struct {
	Capacity        int
	DefaultTTL      time.Duration
	CleanupInterval time.Duration
}

// Cache is a concurrency-safe key/value store with per-entry TTL, LRU
// eviction under a fixed capacity, and lifetime statistics.
//
// A map gives O(1) key lookup and a doubly-linked list maintains the recency
// ledger: the list order is the ledger, so entries and ledger can never
// disagree. Front is most recently used, back is the eviction victim. When
// several entries were touched in the same tick, the victim is whichever of
// them sits furthest from the front (least recently moved there).
//
// The cache owns its sweep goroutine; call Destroy to stop it.
type Cache[V any] struct {
	mu sync.Mutex

	capacity   int
	defaultTTL time.Duration

	items map[string]*list.Element
	lru   *list.List

	hits        uint64
	misses      uint64
	sets        uint64
	deletes     uint64
	evictions   uint64
	cleanupRuns uint64

	ctx       context.Context
	cancel    context.CancelFunc
	wg        sync.WaitGroup
	destroyed bool
}

type entry[V any] struct {
	key       string
	value     V
	expiresAt time.Time
}

// New constructs a cache and starts the background sweep unless disabled.
func New[V any](cfg Config) (*Cache[V], error) {
	if cfg.Capacity < 0 {
		return nil, fmt.Errorf("%w: got %d", ErrCapacity, cfg.Capacity)
	}
	if cfg.DefaultTTL < 0 {
		return nil, fmt.Errorf("%w: got %s", ErrTTL, cfg.DefaultTTL)
	}

	capacity := cfg.Capacity
	if capacity == 0 {
		capacity = DefaultCapacity
	}
	ttl := cfg.DefaultTTL
	if ttl == 0 {
		ttl = DefaultTTL
	}
	sweep := cfg.CleanupInterval
	if sweep == 0 {
		sweep = DefaultCleanupInterval
	}

	ctx, cancel := context.WithCancel(context.Background())
	c := &Cache[V]{
		capacity:   capacity,
		defaultTTL: ttl,
		items:      make(map[string]*list.Element),
		lru:        list.New(),
		ctx:        ctx,
		cancel:     cancel,
	}

	if sweep > 0 {
		c.wg.Add(1)
		go c.sweepLoop(sweep)
	}

	return c, nil
}

// Set stores value under key, evicting least-recently-used entries as needed
// to stay within capacity. ttl <= 0 selects the default TTL. Overwriting an
// existing key replaces the entry in place and does not count as an eviction.
func (c *Cache[V]) Set(key string, value V, ttl time.Duration) {
	if ttl <= 0 {
		ttl = c.defaultTTL
	}
	expiresAt := time.Now().Add(ttl)

	c.mu.Lock()
	defer c.mu.Unlock()

	if c.destroyed {
		return
	}
	c.sets++

	if el, ok := c.items[key]; ok {
		e := el.Value.(*entry[V])
		e.value = value
		e.expiresAt = expiresAt
		c.lru.MoveToFront(el)
		return
	}

	for len(c.items) >= c.capacity {
		back := c.lru.Back()
		if back == nil {
			break
		}
		c.removeLocked(back)
		c.evictions++
	}

	c.items[key] = c.lru.PushFront(&entry[V]{key: key, value: value, expiresAt: expiresAt})
}

// Get returns the value stored under key if present and unexpired. Expired
// entries are dropped on access and count as a miss; the deletes counter is
// reserved for explicit Delete calls. A hit refreshes the key's recency.
func (c *Cache[V]) Get(key string) (V, bool) {
	var zero V

	c.mu.Lock()
	defer c.mu.Unlock()

	el, ok := c.items[key]
	if !ok {
		c.misses++
		return zero, false
	}
	e := el.Value.(*entry[V])
	if !e.expiresAt.After(time.Now()) {
		c.removeLocked(el)
		c.misses++
		return zero, false
	}

	c.lru.MoveToFront(el)
	c.hits++
	return e.value, true
}

// Has reports whether Get would currently succeed for key. It is a pure
// existence probe: no hit/miss accounting, no recency update. An expired
// entry found here is still physically dropped to keep state consistent.
func (c *Cache[V]) Has(key string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	el, ok := c.items[key]
	if !ok {
		return false
	}
	if !el.Value.(*entry[V]).expiresAt.After(time.Now()) {
		c.removeLocked(el)
		return false
	}
	return true
}

// Delete removes key if present and reports whether anything was removed.
func (c *Cache[V]) Delete(key string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	el, ok := c.items[key]
	if !ok {
		return false
	}
	c.removeLocked(el)
	c.deletes++
	return true
}

// Clear drops every entry. Lifetime counters are preserved: they describe
// the cache's history, not its current contents.
func (c *Cache[V]) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.clearLocked()
}

// Cleanup removes every expired entry and returns how many were removed.
// A run that removed at least one entry counts toward cleanupRuns.
func (c *Cache[V]) Cleanup() int {
	now := time.Now()

	c.mu.Lock()
	defer c.mu.Unlock()

	removed := 0
	var next *list.Element
	for el := c.lru.Front(); el != nil; el = next {
		next = el.Next()
		if !el.Value.(*entry[V]).expiresAt.After(now) {
			c.removeLocked(el)
			removed++
		}
	}
	if removed > 0 {
		c.cleanupRuns++
	}
	return removed
}

// Len returns the number of live entries, including any that expired but
// have not been swept or touched yet.
func (c *Cache[V]) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.items)
}

// Capacity returns the configured maximum entry count.
func (c *Cache[V]) Capacity() int { return c.capacity }

// Stats returns a point-in-time snapshot of the lifetime counters.
func (c *Cache[V]) Stats() Stats {
	c.mu.Lock()
	defer c.mu.Unlock()

	return Stats{
		Hits:        c.hits,
		Misses:      c.misses,
		Sets:        c.sets,
		Deletes:     c.deletes,
		Evictions:   c.evictions,
		CleanupRuns: c.cleanupRuns,
		Size:        len(c.items),
		Capacity:    c.capacity,
		HitRate:     hitRate(c.hits, c.misses),
	}
}

// Destroy stops the background sweep and drops all entries. It is
// idempotent; Get and Set on a destroyed cache no-op against empty state.
func (c *Cache[V]) Destroy() {
	c.mu.Lock()
	if c.destroyed {
		c.mu.Unlock()
		return
	}
	c.destroyed = true
	c.mu.Unlock()

	// Cancel outside the lock: the sweep loop needs the lock to finish.
	c.cancel()
	c.wg.Wait()

	c.mu.Lock()
	c.clearLocked()
	c.mu.Unlock()
}

func (c *Cache[V]) sweepLoop(every time.Duration) {
	defer c.wg.Done()

	ticker := time.NewTicker(every)
	defer ticker.Stop()

	for {
		select {
		case <-c.ctx.Done():
			return
		case <-ticker.C:
			c.Cleanup()
		}
	}
}

func (c *Cache[V]) removeLocked(el *list.Element) {
	delete(c.items, el.Value.(*entry[V]).key)
	c.lru.Remove(el)
}

func (c *Cache[V]) clearLocked() {
	c.items = make(map[string]*list.Element)
	c.lru.Init()
}
