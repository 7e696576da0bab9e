package cache

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestLRU_EvictsLeastRecentlyUsed(t *testing.T) {
	c := New[string, int](2, 0)
	c.Add("a", 1)
	c.Add("b", 2)

	_, ok := c.Get("a")
	assert.True(t, ok)

	c.Add("c", 3)

	_, ok = c.Get("b")
	assert.False(t, ok, "b was least recently used")
	v, ok := c.Get("a")
	assert.True(t, ok)
	assert.Equal(t, 1, v)
	assert.Equal(t, 2, c.Len())
}

func TestLRU_Expiry(t *testing.T) {
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	c := New[string, string](4, time.Minute)
	c.now = func() time.Time { return now }

	c.Add("cilo", "valid")
	_, ok := c.Get("cilo")
	assert.True(t, ok)

	now = now.Add(2 * time.Minute)
	_, ok = c.Get("cilo")
	assert.False(t, ok)
	assert.Zero(t, c.Len())
}

func TestLRU_ReplaceAndRemove(t *testing.T) {
	c := New[string, int](2, 0)
	c.Add("a", 1)
	c.Add("a", 5)

	v, _ := c.Get("a")
	assert.Equal(t, 5, v)
	assert.Equal(t, 1, c.Len())

	c.Remove("a")
	c.Remove("missing")
	assert.Zero(t, c.Len())
}

func TestNew_PanicsOnZeroCapacity(t *testing.T) {
	assert.Panics(t, func() { New[string, int](0, 0) })
}
