package cache

import (
	"context"
	"sync"
	"time"
)

// MemoryStore is an in-process fallback for the webhook dedup ledger, used
// when Redis is disabled (development and tests). Dedup then only holds
// within a single instance.
type MemoryStore struct {
	mu    sync.Mutex
	items map[string]time.Time
}

// NewMemoryStore creates a new in-memory store
func NewMemoryStore() *MemoryStore {
	store := &MemoryStore{
		items: make(map[string]time.Time),
	}

	// Cleanup goroutine removes expired keys
	go store.cleanupExpired()

	return store
}

// SetIfAbsent stores the key only if it does not exist yet (or has expired)
// and reports whether this call created it
func (ms *MemoryStore) SetIfAbsent(_ context.Context, key string, ttl time.Duration) (bool, error) {
	ms.mu.Lock()
	defer ms.mu.Unlock()

	if expiry, exists := ms.items[key]; exists && time.Now().Before(expiry) {
		return false, nil
	}
	ms.items[key] = time.Now().Add(ttl)
	return true, nil
}

// cleanupExpired periodically removes expired items
func (ms *MemoryStore) cleanupExpired() {
	ticker := time.NewTicker(5 * time.Minute)
	defer ticker.Stop()

	for range ticker.C {
		ms.mu.Lock()
		now := time.Now()
		for key, expiry := range ms.items {
			if now.After(expiry) {
				delete(ms.items, key)
			}
		}
		ms.mu.Unlock()
	}
}
