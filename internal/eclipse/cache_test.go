package eclipse

import (
	"testing"
	"time"
)

func TestCache_BucketRounding(t *testing.T) {
	c := NewCache(16, 10*time.Second)
	base := time.Date(2025, 2, 14, 12, 0, 0, 0, time.UTC)

	c.Store(25544, base, true)

	// Any time in the same 10s bucket hits.
	if v, ok := c.Lookup(25544, base.Add(3*time.Second)); !ok || !v {
		t.Errorf("same-bucket lookup: got %v/%v, want true/true", v, ok)
	}

	// Next bucket misses.
	if _, ok := c.Lookup(25544, base.Add(15*time.Second)); ok {
		t.Error("next-bucket lookup should miss")
	}

	// Different object in the same bucket misses.
	if _, ok := c.Lookup(99999, base); ok {
		t.Error("different-object lookup should miss")
	}
}

func TestCache_CapacitySilentDrop(t *testing.T) {
	c := NewCache(3, 10*time.Second)
	base := time.Date(2025, 2, 14, 12, 0, 0, 0, time.UTC)

	for i := 0; i < 3; i++ {
		c.Store(25544, base.Add(time.Duration(i)*time.Minute), true)
	}

	// Cache is full: this insert is dropped, not evicting anything.
	overflow := base.Add(time.Hour)
	c.Store(25544, overflow, true)

	if _, ok := c.Lookup(25544, overflow); ok {
		t.Error("insert at capacity should have been dropped")
	}

	// Existing entries are untouched.
	for i := 0; i < 3; i++ {
		if _, ok := c.Lookup(25544, base.Add(time.Duration(i)*time.Minute)); !ok {
			t.Errorf("entry %d should still be present", i)
		}
	}

	stats := c.Stats()
	if stats.Entries != 3 {
		t.Errorf("Entries = %d, want 3", stats.Entries)
	}
	if stats.Dropped != 1 {
		t.Errorf("Dropped = %d, want 1", stats.Dropped)
	}

	// Overwriting an existing bucket is allowed even at capacity.
	c.Store(25544, base, false)
	if v, ok := c.Lookup(25544, base); !ok || v {
		t.Errorf("overwrite at capacity: got %v/%v, want false/true", v, ok)
	}
}

func TestCache_Clear(t *testing.T) {
	c := NewCache(2, 10*time.Second)
	base := time.Date(2025, 2, 14, 12, 0, 0, 0, time.UTC)

	c.Store(25544, base, true)
	c.Store(25544, base.Add(time.Minute), true)
	c.Store(25544, base.Add(2*time.Minute), true) // dropped

	c.Clear()
	if c.Stats().Entries != 0 {
		t.Errorf("Entries after Clear = %d, want 0", c.Stats().Entries)
	}

	// Capacity is available again after Clear.
	c.Store(25544, base.Add(2*time.Minute), true)
	if _, ok := c.Lookup(25544, base.Add(2*time.Minute)); !ok {
		t.Error("insert after Clear should succeed")
	}
}

func TestNewCache_Defaults(t *testing.T) {
	c := NewCache(0, 0)
	if c.capacity != DefaultCapacity {
		t.Errorf("capacity = %d, want %d", c.capacity, DefaultCapacity)
	}
	if c.bucket != DefaultBucket {
		t.Errorf("bucket = %v, want %v", c.bucket, DefaultBucket)
	}
}
