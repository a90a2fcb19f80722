package cache

import (
	"testing"
	"time"
)

func TestCache_GetSet(t *testing.T) {
	c := New[string, int](time.Minute)
	if _, ok := c.Get("a"); ok {
		t.Fatal("empty cache must miss")
	}
	c.Set("a", 1)
	v, ok := c.Get("a")
	if !ok || v != 1 {
		t.Fatalf("got %v, %v", v, ok)
	}
}

func TestCache_TTLExpiry(t *testing.T) {
	c := New[string, string](time.Minute)
	base := time.Now()
	now := base
	c.SetClock(func() time.Time { return now })

	c.Set("k", "v")
	now = base.Add(59 * time.Second)
	if _, ok := c.Get("k"); !ok {
		t.Fatal("entry inside TTL must hit")
	}

	now = base.Add(61 * time.Second)
	if _, ok := c.Get("k"); ok {
		t.Fatal("entry past TTL must be absent")
	}
	// Lazy eviction removed the entry on that read.
	if c.Len() != 0 {
		t.Errorf("expired entry not evicted, len=%d", c.Len())
	}
}

func TestCache_SetRestartsTTL(t *testing.T) {
	c := New[string, int](time.Minute)
	base := time.Now()
	now := base
	c.SetClock(func() time.Time { return now })

	c.Set("k", 1)
	now = base.Add(45 * time.Second)
	c.Set("k", 2)
	now = base.Add(90 * time.Second)
	v, ok := c.Get("k")
	if !ok || v != 2 {
		t.Fatalf("rewrite should restart TTL: got %v, %v", v, ok)
	}
}

func TestCache_Clear(t *testing.T) {
	c := New[int, int](time.Minute)
	c.Set(1, 1)
	c.Set(2, 2)
	c.Clear()
	if c.Len() != 0 {
		t.Errorf("clear left %d entries", c.Len())
	}
	if _, ok := c.Get(1); ok {
		t.Error("cleared entry must miss")
	}
}

func TestCache_DefaultTTL(t *testing.T) {
	c := New[string, int](0)
	if c.ttl != DefaultTTL {
		t.Errorf("ttl = %v, want %v", c.ttl, DefaultTTL)
	}
}
