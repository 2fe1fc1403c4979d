package datasource

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeClock struct{ t time.Time }

func (c *fakeClock) Now() time.Time          { return c.t }
func (c *fakeClock) Advance(d time.Duration) { c.t = c.t.Add(d) }

func TestNewCacheKey_Rounds(t *testing.T) {
	a := NewCacheKey(51.50501, -0.09004, 5000, StageMajor)
	b := NewCacheKey(51.50499, -0.08996, 5000.2, StageMajor)
	assert.Equal(t, a, b)
	assert.Equal(t, "51.5050,-0.0900,5000,major", a.String())

	assert.NotEqual(t, a, NewCacheKey(51.50501, -0.09004, 5000, StageComplete))
	assert.NotEqual(t, a, NewCacheKey(51.50501, -0.09004, 6000, StageMajor))
}

func TestCache_TTLFromInsertion(t *testing.T) {
	clock := &fakeClock{t: time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)}
	c := NewCache[string](15 * time.Minute)
	c.now = clock.Now

	key := NewCacheKey(1, 2, 3000, StageComplete)
	c.Put(key, "payload")

	clock.Advance(10 * time.Minute)
	v, ok := c.Get(key)
	require.True(t, ok)
	assert.Equal(t, "payload", v)

	// A read does not extend the lifetime.
	clock.Advance(5*time.Minute + time.Second)
	_, ok = c.Get(key)
	assert.False(t, ok)
	assert.Equal(t, 0, c.Len(), "expired entry is evicted on lookup")

	hits, misses := c.Stats()
	assert.Equal(t, int64(1), hits)
	assert.Equal(t, int64(1), misses)
}

func TestCache_PutRestartsTTL(t *testing.T) {
	clock := &fakeClock{t: time.Unix(0, 0)}
	c := NewCache[int](time.Minute)
	c.now = clock.Now

	key := NewCacheKey(0, 0, 1, StageMajor)
	c.Put(key, 1)
	clock.Advance(50 * time.Second)
	c.Put(key, 2)
	clock.Advance(50 * time.Second)

	v, ok := c.Get(key)
	require.True(t, ok)
	assert.Equal(t, 2, v)
}

func TestCache_Prune(t *testing.T) {
	clock := &fakeClock{t: time.Unix(0, 0)}
	c := NewCache[int](time.Minute)
	c.now = clock.Now

	c.Put(NewCacheKey(1, 1, 1, StageMajor), 1)
	clock.Advance(30 * time.Second)
	c.Put(NewCacheKey(2, 2, 2, StageMajor), 2)
	clock.Advance(45 * time.Second)

	assert.Equal(t, 1, c.Prune())
	assert.Equal(t, 1, c.Len())

	c.Clear()
	assert.Equal(t, 0, c.Len())
}

func TestCache_DefaultTTL(t *testing.T) {
	c := NewCache[int](0)
	assert.Equal(t, DefaultCacheTTL, c.ttl)
}
