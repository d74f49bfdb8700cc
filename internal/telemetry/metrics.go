// Package telemetry provides observability primitives for the Watchtower gateway.
package telemetry

import (
	"github.com/prometheus/client_golang/prometheus"

	"github.com/obsidianops/watchtower/internal/cache"
)

// Metrics holds all Prometheus collectors for the gateway.
type Metrics struct {
	RequestsTotal   *prometheus.CounterVec
	RequestDuration *prometheus.HistogramVec
	ActiveRequests  prometheus.Gauge
	ToolCalls       *prometheus.CounterVec
	ToolDuration    *prometheus.HistogramVec
	UpstreamErrors  *prometheus.CounterVec
}

// NewMetrics creates and registers all metrics with the given registerer.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		RequestsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "watchtower",
			Name:      "requests_total",
			Help:      "Total number of HTTP requests.",
		}, []string{"method", "path", "status"}),

		RequestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace:                      "watchtower",
			Name:                           "request_duration_seconds",
			Help:                           "HTTP request duration in seconds.",
			NativeHistogramBucketFactor:    1.1,
			NativeHistogramMaxBucketNumber: 100,
		}, []string{"method", "path"}),

		ActiveRequests: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "watchtower",
			Name:      "active_requests",
			Help:      "Number of currently active HTTP requests.",
		}),

		ToolCalls: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "watchtower",
			Name:      "tool_calls_total",
			Help:      "Total MCP tool invocations.",
		}, []string{"tool", "outcome"}),

		ToolDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace:                      "watchtower",
			Name:                           "tool_duration_seconds",
			Help:                           "MCP tool invocation duration in seconds.",
			NativeHistogramBucketFactor:    1.1,
			NativeHistogramMaxBucketNumber: 100,
		}, []string{"tool"}),

		UpstreamErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "watchtower",
			Name:      "upstream_errors_total",
			Help:      "Total upstream platform errors.",
		}, []string{"platform"}),
	}

	reg.MustRegister(
		m.RequestsTotal,
		m.RequestDuration,
		m.ActiveRequests,
		m.ToolCalls,
		m.ToolDuration,
		m.UpstreamErrors,
	)

	return m
}

// StatsSource is the slice of the cache API the collector reads.
type StatsSource interface {
	Stats() cache.Stats
}

// CacheCollector exports every named cache's internal counters as Prometheus
// metrics. The engines already keep their own lifetime counters, so the
// collector snapshots them on scrape instead of double-counting through
// separate prometheus counters.
type CacheCollector struct {
	caches map[string]StatsSource

	hits        *prometheus.Desc
	misses      *prometheus.Desc
	sets        *prometheus.Desc
	deletes     *prometheus.Desc
	evictions   *prometheus.Desc
	cleanupRuns *prometheus.Desc
	entries     *prometheus.Desc
	capacity    *prometheus.Desc
}

// NewCacheCollector creates a collector over the named caches.
func NewCacheCollector(caches map[string]StatsSource) *CacheCollector {
	labels := []string{"cache"}
	return &CacheCollector{
		caches:      caches,
		hits:        prometheus.NewDesc("watchtower_cache_hits_total", "Total cache hits.", labels, nil),
		misses:      prometheus.NewDesc("watchtower_cache_misses_total", "Total cache misses.", labels, nil),
		sets:        prometheus.NewDesc("watchtower_cache_sets_total", "Total cache writes.", labels, nil),
		deletes:     prometheus.NewDesc("watchtower_cache_deletes_total", "Total explicit cache deletions.", labels, nil),
		evictions:   prometheus.NewDesc("watchtower_cache_evictions_total", "Total capacity-driven evictions.", labels, nil),
		cleanupRuns: prometheus.NewDesc("watchtower_cache_cleanup_runs_total", "Total sweeps that removed expired entries.", labels, nil),
		entries:     prometheus.NewDesc("watchtower_cache_entries", "Current live entry count.", labels, nil),
		capacity:    prometheus.NewDesc("watchtower_cache_capacity", "Configured maximum entry count.", labels, nil),
	}
}

// Describe implements prometheus.Collector.
func (c *CacheCollector) Describe(ch chan<- *prometheus.Desc) {
	ch <- c.hits
	ch <- c.misses
	ch <- c.sets
	ch <- c.deletes
	ch <- c.evictions
	ch <- c.cleanupRuns
	ch <- c.entries
	ch <- c.capacity
}

// Collect implements prometheus.Collector.
func (c *CacheCollector) Collect(ch chan<- prometheus.Metric) {
	for name, src := range c.caches {
		s := src.Stats()
		ch <- prometheus.MustNewConstMetric(c.hits, prometheus.CounterValue, float64(s.Hits), name)
		ch <- prometheus.MustNewConstMetric(c.misses, prometheus.CounterValue, float64(s.Misses), name)
		ch <- prometheus.MustNewConstMetric(c.sets, prometheus.CounterValue, float64(s.Sets), name)
		ch <- prometheus.MustNewConstMetric(c.deletes, prometheus.CounterValue, float64(s.Deletes), name)
		ch <- prometheus.MustNewConstMetric(c.evictions, prometheus.CounterValue, float64(s.Evictions), name)
		ch <- prometheus.MustNewConstMetric(c.cleanupRuns, prometheus.CounterValue, float64(s.CleanupRuns), name)
		ch <- prometheus.MustNewConstMetric(c.entries, prometheus.GaugeValue, float64(s.Size), name)
		ch <- prometheus.MustNewConstMetric(c.capacity, prometheus.GaugeValue, float64(s.Capacity), name)
	}
}
