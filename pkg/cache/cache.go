// Package cache implements the exact-match response cache. Keys are
// normalized input strings; values are whatever the router chooses to
// replay. Expired entries behave as misses and are evicted on read.
package cache

import (
	"strings"
	"sync"
	"time"
)

type entry struct {
	value     any
	createdAt time.Time
	ttl       time.Duration
}

func (e entry) expired(now time.Time) bool {
	if e.ttl <= 0 {
		return false
	}
	return now.Sub(e.createdAt) > e.ttl
}

// Stats reports cache effectiveness.
type Stats struct {
	TotalHits    int     `json:"total_hits"`
	TotalLookups int     `json:"total_lookups"`
	HitRate      float64 `json:"hit_rate"`
	Entries      int     `json:"entries"`
}

// Cache is a linearizable exact-match cache. A single mutex serializes all
// access; the cache is small enough that global serialization is fine.
type Cache struct {
	mu      sync.Mutex
	entries map[string]entry
	hits    int
	lookups int
	now     func() time.Time
}

// New creates an empty cache.
func New() *Cache {
	return &Cache{
		entries: make(map[string]entry),
		now:     time.Now,
	}
}

// NormalizeKey folds an input string into its cache key form.
func NormalizeKey(text string) string {
	return strings.ToLower(strings.TrimSpace(text))
}

// Get returns the cached value for key. An expired entry is removed and
// reported as a miss.
func (c *Cache) Get(key string) (any, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.lookups++
	e, ok := c.entries[key]
	if !ok {
		return nil, false
	}
	if e.expired(c.now()) {
		delete(c.entries, key)
		return nil, false
	}
	c.hits++
	return e.value, true
}

// Set stores a value under key. ttl <= 0 means the entry lives until Clear.
func (c *Cache) Set(key string, value any, ttl time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.entries[key] = entry{value: value, createdAt: c.now(), ttl: ttl}
}

// Clear drops every entry. Counters are kept.
func (c *Cache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.entries = make(map[string]entry)
}

// Stats returns a snapshot of hit statistics.
func (c *Cache) Stats() Stats {
	c.mu.Lock()
	defer c.mu.Unlock()

	rate := 0.0
	if c.lookups > 0 {
		rate = float64(c.hits) / float64(c.lookups)
	}
	return Stats{
		TotalHits:    c.hits,
		TotalLookups: c.lookups,
		HitRate:      rate,
		Entries:      len(c.entries),
	}
}
