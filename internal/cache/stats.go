package cache

import "fmt"

// Stats is a snapshot of a cache's lifetime counters and current occupancy.
// Counters only reset on process restart; Clear does not touch them.
type Stats struct {
	Hits        uint64 `json:"hits"`
	Misses      uint64 `json:"misses"`
	Sets        uint64 `json:"sets"`
	Deletes     uint64 `json:"deletes"`
	Evictions   uint64 `json:"evictions"`
	CleanupRuns uint64 `json:"cleanup_runs"`
	Size        int    `json:"size"`
	Capacity    int    `json:"capacity"`
	HitRate     string `json:"hit_rate"`
}

// hitRate formats hits/(hits+misses) as a percentage with two decimals.
// "0%" is the sentinel for a cache that has seen no lookups.
func hitRate(hits, misses uint64) string {
	total := hits + misses
	if total == 0 {
		return "0%"
	}
	return fmt.Sprintf("%.2f%%", float64(hits)/float64(total)*100)
}
