package cache

import (
	"testing"
	"time"
)

func TestLRUEvictsLeastRecentlyUsed(t *testing.T) {
	c := NewLRU[int64, string](2, time.Minute)
	c.Set(1, "a")
	c.Set(2, "b")
	if _, ok := c.Get(1); !ok {
		t.Fatal("expected 1 to be cached")
	}
	c.Set(3, "c") // evicts 2, the least recently used

	if _, ok := c.Get(2); ok {
		t.Fatal("expected 2 to be evicted")
	}
	if v, ok := c.Get(1); !ok || v != "a" {
		t.Fatalf("expected a, got %q %v", v, ok)
	}
	if c.Len() != 2 {
		t.Fatalf("expected 2 entries, got %d", c.Len())
	}
}

func TestLRUExpiry(t *testing.T) {
	now := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	c := NewLRU[string, int](10, time.Minute)
	c.now = func() time.Time { return now }

	c.Set("x", 1)
	c.Set("y", 2)
	now = now.Add(30 * time.Second)
	c.Set("z", 3)

	now = now.Add(45 * time.Second)
	if _, ok := c.Get("x"); ok {
		t.Fatal("x should have expired")
	}
	if removed := c.CleanExpired(); removed != 1 {
		t.Fatalf("expected y to be cleaned, removed %d", removed)
	}
	if v, ok := c.Get("z"); !ok || v != 3 {
		t.Fatalf("z should still be live, got %d %v", v, ok)
	}
}

func TestLRUDeleteAndOverwrite(t *testing.T) {
	c := NewLRU[int, int](0, time.Minute)
	c.Set(1, 10)
	c.Set(1, 11)
	if v, _ := c.Get(1); v != 11 {
		t.Fatalf("expected overwrite, got %d", v)
	}
	c.Delete(1)
	if c.Len() != 0 {
		t.Fatalf("expected empty cache, got %d", c.Len())
	}
}
