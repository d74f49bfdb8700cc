package cache

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

func newTestAPICache(t *testing.T) *APICache {
	t.Helper()
	c, err := NewAPI(Config{
		Capacity:        100,
		DefaultTTL:      time.Minute,
		CleanupInterval: CleanupDisabled,
	})
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(c.Destroy)
	return c
}

func TestKey_OrderIndependent(t *testing.T) {
	t.Parallel()
	c := newTestAPICache(t)

	a := c.Key("/host.get", map[string]any{"search": "web", "limit": 10})
	b := c.Key("/host.get", map[string]any{"limit": 10, "search": "web"})
	if a != b {
		t.Errorf("keys differ for identical params: %q vs %q", a, b)
	}
}

func TestKey_EmptyParams(t *testing.T) {
	t.Parallel()
	c := newTestAPICache(t)

	empty := c.Key("/host.get", map[string]any{})
	if got := c.Key("/host.get", nil); got != empty {
		t.Errorf("nil params key %q != empty params key %q", got, empty)
	}
	// Reproducible across calls.
	if got := c.Key("/host.get", map[string]any{}); got != empty {
		t.Errorf("empty params key is not stable: %q vs %q", got, empty)
	}
}

func TestKey_EndpointSeparation(t *testing.T) {
	t.Parallel()
	c := newTestAPICache(t)

	params := map[string]any{"limit": 10}
	if c.Key("/host.get", params) == c.Key("/item.get", params) {
		t.Error("different endpoints must not share keys")
	}
}

func TestKey_ValueSensitive(t *testing.T) {
	t.Parallel()
	c := newTestAPICache(t)

	a := c.Key("/host.get", map[string]any{"limit": 10})
	b := c.Key("/host.get", map[string]any{"limit": 20})
	if a == b {
		t.Error("different parameter values must not share keys")
	}
}

func TestFetch_Memoizes(t *testing.T) {
	t.Parallel()
	c := newTestAPICache(t)
	ctx := context.Background()

	var calls atomic.Int64
	fn := func(context.Context) ([]byte, error) {
		calls.Add(1)
		return []byte(`{"result":[]}`), nil
	}

	first, err := c.Fetch(ctx, "/host.get", nil, fn, 0)
	if err != nil {
		t.Fatal(err)
	}
	second, err := c.Fetch(ctx, "/host.get", nil, fn, 0)
	if err != nil {
		t.Fatal(err)
	}

	if calls.Load() != 1 {
		t.Errorf("producer calls = %d, want 1", calls.Load())
	}
	if string(first) != string(second) {
		t.Errorf("results differ: %q vs %q", first, second)
	}
}

func TestFetch_DoesNotCacheFailures(t *testing.T) {
	t.Parallel()
	c := newTestAPICache(t)
	ctx := context.Background()

	wantErr := errors.New("upstream unavailable")
	var calls atomic.Int64
	fn := func(context.Context) ([]byte, error) {
		if calls.Add(1) == 1 {
			return nil, wantErr
		}
		return []byte("ok"), nil
	}

	if _, err := c.Fetch(ctx, "/host.get", nil, fn, 0); !errors.Is(err, wantErr) {
		t.Fatalf("err = %v, want %v", err, wantErr)
	}
	data, err := c.Fetch(ctx, "/host.get", nil, fn, 0)
	if err != nil {
		t.Fatalf("second fetch should re-invoke the producer, got %v", err)
	}
	if string(data) != "ok" {
		t.Errorf("data = %q, want %q", data, "ok")
	}
	if calls.Load() != 2 {
		t.Errorf("producer calls = %d, want 2", calls.Load())
	}
}

func TestFetch_TTLOverride(t *testing.T) {
	t.Parallel()
	c := newTestAPICache(t)
	ctx := context.Background()

	var calls atomic.Int64
	fn := func(context.Context) ([]byte, error) {
		calls.Add(1)
		return []byte("v"), nil
	}

	if _, err := c.Fetch(ctx, "/e", nil, fn, 20*time.Millisecond); err != nil {
		t.Fatal(err)
	}
	time.Sleep(40 * time.Millisecond)
	if _, err := c.Fetch(ctx, "/e", nil, fn, 20*time.Millisecond); err != nil {
		t.Fatal(err)
	}

	if calls.Load() != 2 {
		t.Errorf("producer calls = %d, want 2 after TTL expiry", calls.Load())
	}
}

func TestFetch_CoalescesConcurrent(t *testing.T) {
	t.Parallel()
	c := newTestAPICache(t)
	ctx := context.Background()

	var calls atomic.Int64
	release := make(chan struct{})
	fn := func(context.Context) ([]byte, error) {
		calls.Add(1)
		<-release
		return []byte("v"), nil
	}

	const n = 8
	var wg sync.WaitGroup
	results := make([][]byte, n)
	errs := make([]error, n)
	for i := range n {
		wg.Add(1)
		go func() {
			defer wg.Done()
			results[i], errs[i] = c.Fetch(ctx, "/slow", nil, fn, 0)
		}()
	}

	// Let the goroutines pile up on the in-flight call, then release it.
	time.Sleep(50 * time.Millisecond)
	close(release)
	wg.Wait()

	if calls.Load() != 1 {
		t.Errorf("producer calls = %d, want 1 for coalesced fetches", calls.Load())
	}
	for i := range n {
		if errs[i] != nil {
			t.Fatalf("fetch %d: %v", i, errs[i])
		}
		if string(results[i]) != "v" {
			t.Errorf("fetch %d result = %q, want %q", i, results[i], "v")
		}
	}
}
