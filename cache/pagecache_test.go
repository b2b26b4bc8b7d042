package cache

import (
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRequestKey(t *testing.T) {
	req := httptest.NewRequest("GET", "/", nil)
	assert.Equal(t, "/", RequestKey(req))

	req = httptest.NewRequest("GET", "/?page=2", nil)
	assert.Equal(t, "/?page=2", RequestKey(req))

	req = httptest.NewRequest("GET", "/group/tech/?page=3", nil)
	assert.Equal(t, "/group/tech/?page=3", RequestKey(req))
}

func TestMemoryCacheRoundTrip(t *testing.T) {
	c := NewMemoryCache(time.Minute)

	_, ok := c.Get("/")
	assert.False(t, ok)

	c.Set("/", []byte("body"))
	got, ok := c.Get("/")
	require.True(t, ok)
	assert.Equal(t, []byte("body"), got)

	// Last writer wins inside the window.
	c.Set("/", []byte("body2"))
	got, ok = c.Get("/")
	require.True(t, ok)
	assert.Equal(t, []byte("body2"), got)
}

func TestMemoryCacheExpiry(t *testing.T) {
	now := time.Now()
	c := NewMemoryCache(20 * time.Second)
	c.now = func() time.Time { return now }

	c.Set("/", []byte("stale soon"))

	now = now.Add(19 * time.Second)
	_, ok := c.Get("/")
	assert.True(t, ok, "entry must live for the whole window")

	now = now.Add(2 * time.Second)
	_, ok = c.Get("/")
	assert.False(t, ok, "entry must expire after the window")
}

func TestMemoryCacheSweepsExpired(t *testing.T) {
	now := time.Now()
	c := NewMemoryCache(time.Second)
	c.now = func() time.Time { return now }

	c.Set("/a", []byte("a"))
	now = now.Add(2 * time.Second)
	c.Set("/b", []byte("b"))

	c.mu.RLock()
	defer c.mu.RUnlock()
	assert.NotContains(t, c.entries, "/a")
	assert.Contains(t, c.entries, "/b")
}
