package passes

import (
	"fmt"
	"hash/fnv"
	"sync"
	"sync/atomic"

	"github.com/star/skywatch/internal/geom"
	"github.com/star/skywatch/internal/metrics"
	"github.com/star/skywatch/internal/tle"
)

// ResultCache memoizes full pass-search results keyed by element-set
// identity, station, window, and search parameters. It has a hard capacity;
// at capacity new results are silently not admitted. There is no automatic
// invalidation: the caller clears it when inputs change (new elements
// loaded, filters changed).
type ResultCache struct {
	mu      sync.RWMutex
	entries map[string][]Pass

	capacity int

	hits   atomic.Int64
	misses atomic.Int64
}

// DefaultResultCapacity is the maximum number of memoized searches.
const DefaultResultCapacity = 256

// NewResultCache creates a bounded pass-result cache.
func NewResultCache(capacity int) *ResultCache {
	if capacity <= 0 {
		capacity = DefaultResultCapacity
	}
	return &ResultCache{
		entries:  make(map[string][]Pass),
		capacity: capacity,
	}
}

// elevationKey builds the composite cache key for an elevation search.
// Annotation parameters (transition step, standard magnitude) are part of
// the key because they change the emitted passes.
func elevationKey(entry tle.TLEEntry, station geom.GroundStation, cfg Config) string {
	return fmt.Sprintf("el|%x|%s|%d|%d|%.3f|%d|%d|%s",
		hashElements(entry), station.Key(),
		cfg.Start.UnixMilli(), cfg.End.UnixMilli(),
		cfg.MinElevationDeg, cfg.MaxPasses,
		cfg.TransitionStep.Milliseconds(), magKey(cfg.StandardMagnitude))
}

// swathKey builds the composite cache key for a swath search.
func swathKey(entry tle.TLEEntry, station geom.GroundStation, cfg SwathConfig) string {
	return fmt.Sprintf("sw|%x|%s|%d|%d|%.3f|%d|%d",
		hashElements(entry), station.Key(),
		cfg.Start.UnixMilli(), cfg.End.UnixMilli(),
		cfg.SwathKm, cfg.MaxPasses,
		cfg.TransitionStep.Milliseconds())
}

func magKey(stdMag *float64) string {
	if stdMag == nil {
		return "-"
	}
	return fmt.Sprintf("%.2f", *stdMag)
}

func hashElements(entry tle.TLEEntry) uint64 {
	h := fnv.New64a()
	h.Write([]byte(entry.Key()))
	return h.Sum64()
}

// Get returns the memoized result for key, if present.
func (c *ResultCache) Get(key string) ([]Pass, bool) {
	c.mu.RLock()
	v, ok := c.entries[key]
	c.mu.RUnlock()

	if ok {
		c.hits.Add(1)
		metrics.IncCacheHit("passes")
		return v, true
	}
	c.misses.Add(1)
	metrics.IncCacheMiss("passes")
	return nil, false
}

// Put stores a result. At capacity the insert is dropped.
func (c *ResultCache) Put(key string, result []Pass) {
	c.mu.Lock()
	if _, exists := c.entries[key]; !exists && len(c.entries) >= c.capacity {
		c.mu.Unlock()
		return
	}
	c.entries[key] = result
	n := len(c.entries)
	c.mu.Unlock()

	metrics.SetCacheEntries("passes", n)
}

// Clear drops all memoized results.
func (c *ResultCache) Clear() {
	c.mu.Lock()
	c.entries = make(map[string][]Pass)
	c.mu.Unlock()
	metrics.SetCacheEntries("passes", 0)
}

// Len returns the number of memoized searches.
func (c *ResultCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

// Hits returns the cumulative hit count.
func (c *ResultCache) Hits() int64 { return c.hits.Load() }

// Misses returns the cumulative miss count.
func (c *ResultCache) Misses() int64 { return c.misses.Load() }
