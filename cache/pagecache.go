package cache

import (
	"net/http"
	"sync"
	"time"
)

// PageCache stores whole rendered responses as opaque byte blobs keyed by
// route. Entries expire purely by time; there is no invalidation on write,
// so readers may observe content up to one TTL window stale.
type PageCache interface {
	Get(key string) ([]byte, bool)
	Set(key string, body []byte)
}

// RequestKey builds the cache key for a request: path plus raw query, so
// different pages of the same feed cache independently.
func RequestKey(r *http.Request) string {
	if r.URL.RawQuery == "" {
		return r.URL.Path
	}
	return r.URL.Path + "?" + r.URL.RawQuery
}

type memoryEntry struct {
	body     []byte
	expireAt time.Time
}

// MemoryCache is a process-local PageCache. It backs tests and serves as
// the fallback when redis is unreachable.
type MemoryCache struct {
	mu      sync.RWMutex
	ttl     time.Duration
	entries map[string]memoryEntry
	now     func() time.Time
}

// NewMemoryCache creates a MemoryCache with the given entry TTL.
func NewMemoryCache(ttl time.Duration) *MemoryCache {
	return &MemoryCache{
		ttl:     ttl,
		entries: make(map[string]memoryEntry),
		now:     time.Now,
	}
}

func (m *MemoryCache) Get(key string) ([]byte, bool) {
	m.mu.RLock()
	e, ok := m.entries[key]
	m.mu.RUnlock()
	if !ok || m.now().After(e.expireAt) {
		return nil, false
	}
	return e.body, true
}

func (m *MemoryCache) Set(key string, body []byte) {
	m.mu.Lock()
	defer m.mu.Unlock()
	now := m.now()
	m.entries[key] = memoryEntry{body: body, expireAt: now.Add(m.ttl)}
	// opportunistic sweep; the map stays small because keys are feed
	// routes, not user data
	for k, e := range m.entries {
		if now.After(e.expireAt) {
			delete(m.entries, k)
		}
	}
}
