package cache

import (
	"fmt"
	"sync"
	"testing"
	"time"
)

func TestGetSet(t *testing.T) {
	c := New()

	if _, ok := c.Get("missing"); ok {
		t.Fatal("expected miss on empty cache")
	}

	c.Set("k", "v", 0)
	v, ok := c.Get("k")
	if !ok || v.(string) != "v" {
		t.Fatalf("got %v, %v", v, ok)
	}
}

func TestNormalizeKey(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"  Help  ", "help"},
		{"HELP", "help"},
		{"what's my battery level", "what's my battery level"},
	}
	for _, tt := range tests {
		if got := NormalizeKey(tt.in); got != tt.want {
			t.Errorf("NormalizeKey(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestExpiryIsLazy(t *testing.T) {
	c := New()
	now := time.Now()
	c.now = func() time.Time { return now }

	c.Set("k", "v", time.Minute)
	if _, ok := c.Get("k"); !ok {
		t.Fatal("expected hit before expiry")
	}

	now = now.Add(2 * time.Minute)
	if _, ok := c.Get("k"); ok {
		t.Fatal("expected miss after expiry")
	}

	// The expired entry must have been evicted on read.
	if got := c.Stats().Entries; got != 0 {
		t.Fatalf("expected 0 entries after lazy eviction, got %d", got)
	}
}

func TestZeroTTLNeverExpires(t *testing.T) {
	c := New()
	now := time.Now()
	c.now = func() time.Time { return now }

	c.Set("k", "v", 0)
	now = now.Add(24 * 365 * time.Hour)
	if _, ok := c.Get("k"); !ok {
		t.Fatal("zero-ttl entry must survive until Clear")
	}

	c.Clear()
	if _, ok := c.Get("k"); ok {
		t.Fatal("expected miss after Clear")
	}
}

func TestStats(t *testing.T) {
	c := New()
	c.Set("a", 1, 0)

	c.Get("a")
	c.Get("a")
	c.Get("b")

	s := c.Stats()
	if s.TotalHits != 2 || s.TotalLookups != 3 {
		t.Fatalf("stats = %+v", s)
	}
	want := 2.0 / 3.0
	if diff := s.HitRate - want; diff > 0.001 || diff < -0.001 {
		t.Fatalf("hit rate = %f, want %f", s.HitRate, want)
	}
}

func TestConcurrentAccess(t *testing.T) {
	c := New()
	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			key := fmt.Sprintf("k%d", n%4)
			for j := 0; j < 100; j++ {
				c.Set(key, n, time.Minute)
				c.Get(key)
			}
		}(i)
	}
	wg.Wait()

	if c.Stats().TotalLookups != 1600 {
		t.Fatalf("lookups = %d", c.Stats().TotalLookups)
	}
}
