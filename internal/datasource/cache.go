package datasource

import (
	"fmt"
	"math"
	"sync"
	"sync/atomic"
	"time"
)

// DefaultCacheTTL is how long a cached stage result stays valid after insertion.
const DefaultCacheTTL = 15 * time.Minute

// CacheKey identifies a cached fetch by rounded location, radius and stage.
type CacheKey struct {
	Lat    float64
	Lon    float64
	Radius int
	Stage  Stage
}

// NewCacheKey rounds lat/lon to 4 decimals (about 11 m) so that nearby
// requests share entries.
func NewCacheKey(lat, lon, radius float64, stage Stage) CacheKey {
	return CacheKey{
		Lat:    roundTo(lat, 4),
		Lon:    roundTo(lon, 4),
		Radius: int(math.Round(radius)),
		Stage:  stage,
	}
}

func (k CacheKey) String() string {
	return fmt.Sprintf("%.4f,%.4f,%d,%s", k.Lat, k.Lon, k.Radius, k.Stage)
}

func roundTo(v float64, decimals int) float64 {
	p := math.Pow(10, float64(decimals))
	return math.Round(v*p) / p
}

type cacheEntry[V any] struct {
	value     V
	createdAt time.Time
}

// Cache is an in-process TTL cache. Expiry is measured from insertion, never
// from last access; expired entries are evicted lazily on lookup or by Prune.
type Cache[V any] struct {
	mu      sync.Mutex
	entries map[CacheKey]cacheEntry[V]
	ttl     time.Duration
	now     func() time.Time

	hits   atomic.Int64
	misses atomic.Int64
}

// NewCache creates a cache. A non-positive ttl falls back to DefaultCacheTTL.
func NewCache[V any](ttl time.Duration) *Cache[V] {
	if ttl <= 0 {
		ttl = DefaultCacheTTL
	}
	return &Cache[V]{
		entries: make(map[CacheKey]cacheEntry[V]),
		ttl:     ttl,
		now:     time.Now,
	}
}

// Get returns the value for key if present and unexpired.
func (c *Cache[V]) Get(key CacheKey) (V, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	entry, ok := c.entries[key]
	if ok && c.now().Sub(entry.createdAt) >= c.ttl {
		delete(c.entries, key)
		ok = false
	}
	if !ok {
		c.misses.Add(1)
		cacheLookups.WithLabelValues("miss").Inc()
		var zero V
		return zero, false
	}

	c.hits.Add(1)
	cacheLookups.WithLabelValues("hit").Inc()
	return entry.value, true
}

// Put stores value under key, restarting its TTL.
func (c *Cache[V]) Put(key CacheKey, value V) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.entries[key] = cacheEntry[V]{value: value, createdAt: c.now()}
}

// Delete removes key if present.
func (c *Cache[V]) Delete(key CacheKey) {
	c.mu.Lock()
	defer c.mu.Unlock()

	delete(c.entries, key)
}

// Prune evicts every expired entry and returns how many were removed.
func (c *Cache[V]) Prune() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.now()
	removed := 0
	for k, e := range c.entries {
		if now.Sub(e.createdAt) >= c.ttl {
			delete(c.entries, k)
			removed++
		}
	}
	return removed
}

// Len returns the number of stored entries, expired ones included.
func (c *Cache[V]) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

// Clear drops all entries.
func (c *Cache[V]) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries = make(map[CacheKey]cacheEntry[V])
}

// Stats returns hit and miss counters since creation.
func (c *Cache[V]) Stats() (hits, misses int64) {
	return c.hits.Load(), c.misses.Load()
}
