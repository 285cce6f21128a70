package propagation

import (
	"sync"
	"sync/atomic"

	"github.com/star/skywatch/internal/tle"
)

// ElementSetCache memoizes initialized SGP4 propagators keyed by element
// text, so that repeated queries against the same element set skip model
// initialization. Entries are only replaced when the caller supplies
// textually different elements for the same catalog object, and the cache
// is append-only until explicitly cleared.
//
// Each dispatcher worker owns its own ElementSetCache; there is no
// cross-worker sharing.
type ElementSetCache struct {
	mu      sync.Mutex
	entries map[string]*SGP4Propagator

	hits   atomic.Int64
	misses atomic.Int64
}

// NewElementSetCache creates an empty cache.
func NewElementSetCache() *ElementSetCache {
	return &ElementSetCache{entries: make(map[string]*SGP4Propagator)}
}

// Get returns a propagator for the entry, initializing and caching one on
// first use of this element text.
func (c *ElementSetCache) Get(entry tle.TLEEntry) (*SGP4Propagator, error) {
	key := entry.Key()

	c.mu.Lock()
	defer c.mu.Unlock()

	if p, ok := c.entries[key]; ok {
		c.hits.Add(1)
		return p, nil
	}

	p, err := NewSGP4Propagator(entry.Line1, entry.Line2, entry.NORADID)
	if err != nil {
		return nil, err
	}
	c.misses.Add(1)
	c.entries[key] = p
	return p, nil
}

// Clear drops all cached propagators.
func (c *ElementSetCache) Clear() {
	c.mu.Lock()
	c.entries = make(map[string]*SGP4Propagator)
	c.mu.Unlock()
}

// Len returns the number of cached element sets.
func (c *ElementSetCache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

// Hits returns the cumulative hit count.
func (c *ElementSetCache) Hits() int64 { return c.hits.Load() }

// Misses returns the cumulative miss (initialization) count.
func (c *ElementSetCache) Misses() int64 { return c.misses.Load() }
