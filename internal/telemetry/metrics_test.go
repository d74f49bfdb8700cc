package telemetry

import (
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/obsidianops/watchtower/internal/cache"
)

func TestNewMetrics_Registers(t *testing.T) {
	t.Parallel()

	reg := prometheus.NewRegistry()
	m := NewMetrics(reg)

	m.ToolCalls.WithLabelValues("monitor_host_get", "ok").Inc()
	m.UpstreamErrors.WithLabelValues("monitor").Inc()

	if got := testutil.ToFloat64(m.ToolCalls.WithLabelValues("monitor_host_get", "ok")); got != 1 {
		t.Errorf("tool calls = %v, want 1", got)
	}
	if got := testutil.ToFloat64(m.UpstreamErrors.WithLabelValues("monitor")); got != 1 {
		t.Errorf("upstream errors = %v, want 1", got)
	}
}

func TestCacheCollector(t *testing.T) {
	t.Parallel()

	c, err := cache.New[string](cache.Config{
		Capacity:        10,
		DefaultTTL:      time.Minute,
		CleanupInterval: cache.CleanupDisabled,
	})
	if err != nil {
		t.Fatal(err)
	}
	defer c.Destroy()

	c.Set("k", "v", 0)
	c.Get("k")
	c.Get("missing")

	reg := prometheus.NewRegistry()
	reg.MustRegister(NewCacheCollector(map[string]StatsSource{"api": c}))

	expected := strings.NewReader(`
# HELP watchtower_cache_hits_total Total cache hits.
# TYPE watchtower_cache_hits_total counter
watchtower_cache_hits_total{cache="api"} 1
# HELP watchtower_cache_misses_total Total cache misses.
# TYPE watchtower_cache_misses_total counter
watchtower_cache_misses_total{cache="api"} 1
# HELP watchtower_cache_entries Current live entry count.
# TYPE watchtower_cache_entries gauge
watchtower_cache_entries{cache="api"} 1
# HELP watchtower_cache_capacity Configured maximum entry count.
# TYPE watchtower_cache_capacity gauge
watchtower_cache_capacity{cache="api"} 10
`)
	err = testutil.GatherAndCompare(reg, expected,
		"watchtower_cache_hits_total",
		"watchtower_cache_misses_total",
		"watchtower_cache_entries",
		"watchtower_cache_capacity",
	)
	if err != nil {
		t.Error(err)
	}
}
