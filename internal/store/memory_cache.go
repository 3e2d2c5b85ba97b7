package store

import (
	"context"
	"sync"
	"time"

	"e2egateway/internal/domain"
)

// maxMemoryEntries bounds the memory cache; it is emptied when exceeded.
const maxMemoryEntries = 1024

type memoryEntry struct {
	key domain.PublicKey
	t   time.Time
}

// MemoryKeyCache keeps public keys for the lifetime of the process.
type MemoryKeyCache struct {
	ttl time.Duration // zero: entries never expire

	mu      sync.RWMutex
	entries map[domain.Identity]memoryEntry
}

// NewMemoryKeyCache returns an empty cache. ttl of zero disables expiry.
func NewMemoryKeyCache(ttl time.Duration) *MemoryKeyCache {
	return &MemoryKeyCache{ttl: ttl, entries: make(map[domain.Identity]memoryEntry)}
}

var _ domain.KeyCache = (*MemoryKeyCache)(nil)

func (c *MemoryKeyCache) Get(_ context.Context, id domain.Identity) (domain.PublicKey, bool, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	e, ok := c.entries[id]
	if !ok {
		return domain.PublicKey{}, false, nil
	}
	if c.ttl > 0 && time.Since(e.t) > c.ttl {
		return domain.PublicKey{}, false, nil
	}
	return e.key, true, nil
}

func (c *MemoryKeyCache) Put(_ context.Context, id domain.Identity, key domain.PublicKey) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if _, ok := c.entries[id]; !ok && len(c.entries) >= maxMemoryEntries {
		// overfill protection
		clear(c.entries)
	}
	c.entries[id] = memoryEntry{key: key, t: time.Now()}
	return nil
}

func (c *MemoryKeyCache) Delete(_ context.Context, id domain.Identity) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.entries, id)
	return nil
}

func (c *MemoryKeyCache) Clear(context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	clear(c.entries)
	return nil
}

// Len returns the number of cached entries, expired ones included.
func (c *MemoryKeyCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}
