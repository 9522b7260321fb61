package cache

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCache_GetSet(t *testing.T) {
	c := New(10, time.Hour)
	defer c.Close()

	key := Key("https://calculator.test/start")
	_, ok := c.Get(key, 0)
	assert.False(t, ok)

	awards := []string{"MA000001", "MA000002"}
	c.Set(key, awards)
	awards[0] = "mutated"

	got, ok := c.Get(key, 0)
	require.True(t, ok)
	assert.Equal(t, []string{"MA000001", "MA000002"}, got)

	got[1] = "mutated"
	again, _ := c.Get(key, 0)
	assert.Equal(t, "MA000002", again[1])
}

func TestCache_MaxAge(t *testing.T) {
	c := New(10, time.Hour)
	defer c.Close()

	c.Set("k", []string{"MA000001"})
	time.Sleep(5 * time.Millisecond)

	_, ok := c.Get("k", time.Millisecond)
	assert.False(t, ok, "entry older than maxAge must miss")

	_, ok = c.Get("k", time.Minute)
	assert.True(t, ok)
}

func TestCache_EvictsAtCapacity(t *testing.T) {
	c := New(2, time.Hour)
	defer c.Close()

	c.Set("a", []string{"1"})
	c.Set("b", []string{"2"})
	c.Set("b", []string{"2b"})
	assert.Equal(t, 2, c.Len(), "overwriting a key must not evict")

	c.Set("c", []string{"3"})
	assert.Equal(t, 2, c.Len())
	_, ok := c.Get("c", 0)
	assert.True(t, ok)
}

func TestCache_EvictExpired(t *testing.T) {
	c := New(10, time.Hour)
	defer c.Close()

	c.Set("old", []string{"1"})
	c.evictExpired(time.Now().Add(time.Second))
	assert.Equal(t, 0, c.Len())
}

func TestKey(t *testing.T) {
	assert.Equal(t, Key("https://a.test"), Key("https://a.test"))
	assert.NotEqual(t, Key("https://a.test"), Key("https://b.test"))
	assert.Len(t, Key("x"), 64)
}
