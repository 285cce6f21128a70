package eclipse

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/star/skywatch/internal/metrics"
)

// Cache memoizes shadow classifications keyed by (object, time bucket).
// Query times are rounded to a fixed bucket width because interactive
// stepping issues many queries at nearly identical times.
//
// The cache holds at most capacity entries. Once full, new inserts are
// silently dropped until Clear() — there is no eviction. This is preserved
// behavior: a full cache degrades to misses for unseen buckets, it does
// not fail.
type Cache struct {
	mu      sync.RWMutex
	entries map[cacheKey]bool

	capacity int
	bucket   time.Duration

	hits    atomic.Int64
	misses  atomic.Int64
	dropped atomic.Int64
}

type cacheKey struct {
	noradID int
	bucket  int64
}

// DefaultBucket is the time rounding applied to cache keys.
const DefaultBucket = 10 * time.Second

// DefaultCapacity is the maximum entry count.
const DefaultCapacity = 16384

// NewCache creates a bounded eclipse-result cache. Non-positive arguments
// fall back to the defaults.
func NewCache(capacity int, bucket time.Duration) *Cache {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	if bucket <= 0 {
		bucket = DefaultBucket
	}
	return &Cache{
		entries:  make(map[cacheKey]bool),
		capacity: capacity,
		bucket:   bucket,
	}
}

func (c *Cache) key(noradID int, t time.Time) cacheKey {
	return cacheKey{noradID: noradID, bucket: t.UnixMilli() / c.bucket.Milliseconds()}
}

// Lookup returns the cached classification for (noradID, bucket of t).
func (c *Cache) Lookup(noradID int, t time.Time) (inShadow, ok bool) {
	k := c.key(noradID, t)

	c.mu.RLock()
	v, ok := c.entries[k]
	c.mu.RUnlock()

	if ok {
		c.hits.Add(1)
		metrics.IncCacheHit("eclipse")
		return v, true
	}
	c.misses.Add(1)
	metrics.IncCacheMiss("eclipse")
	return false, false
}

// Store inserts a classification. At capacity the insert is dropped.
func (c *Cache) Store(noradID int, t time.Time, inShadow bool) {
	k := c.key(noradID, t)

	c.mu.Lock()
	if _, exists := c.entries[k]; !exists && len(c.entries) >= c.capacity {
		c.mu.Unlock()
		c.dropped.Add(1)
		return
	}
	c.entries[k] = inShadow
	n := len(c.entries)
	c.mu.Unlock()

	metrics.SetCacheEntries("eclipse", n)
}

// Clear drops all entries.
func (c *Cache) Clear() {
	c.mu.Lock()
	c.entries = make(map[cacheKey]bool)
	c.mu.Unlock()
	metrics.SetCacheEntries("eclipse", 0)
}

// Stats returns current cache statistics.
func (c *Cache) Stats() CacheStats {
	c.mu.RLock()
	n := len(c.entries)
	c.mu.RUnlock()

	return CacheStats{
		Entries:  n,
		Capacity: c.capacity,
		Hits:     c.hits.Load(),
		Misses:   c.misses.Load(),
		Dropped:  c.dropped.Load(),
	}
}

// CacheStats holds cache statistics for diagnostics.
type CacheStats struct {
	Entries  int
	Capacity int
	Hits     int64
	Misses   int64
	Dropped  int64
}
