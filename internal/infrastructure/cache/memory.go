package cache

import (
	"context"
	"sync"
	"time"
)

// MemoryStore is an in-memory Store used when Redis is not configured
type MemoryStore struct {
	mu    sync.RWMutex
	items map[string]*memoryItem
	stop  chan struct{}
	once  sync.Once
}

type memoryItem struct {
	value      string
	expireTime time.Time
}

// NewMemoryStore creates a new in-memory store
func NewMemoryStore() *MemoryStore {
	store := &MemoryStore{
		items: make(map[string]*memoryItem),
		stop:  make(chan struct{}),
	}

	// Start cleanup goroutine to remove expired items
	go store.cleanupExpired(5 * time.Minute)

	return store
}

// Set stores a key-value pair with expiration
func (ms *MemoryStore) Set(ctx context.Context, key, value string, expiration time.Duration) error {
	ms.mu.Lock()
	defer ms.mu.Unlock()

	ms.items[key] = &memoryItem{
		value:      value,
		expireTime: time.Now().Add(expiration),
	}
	return nil
}

// Get retrieves a value by key; expired keys are reported as missing
func (ms *MemoryStore) Get(ctx context.Context, key string) (string, bool, error) {
	ms.mu.RLock()
	defer ms.mu.RUnlock()

	item, exists := ms.items[key]
	if !exists || time.Now().After(item.expireTime) {
		return "", false, nil
	}
	return item.value, true, nil
}

// Delete removes a key
func (ms *MemoryStore) Delete(ctx context.Context, key string) error {
	ms.mu.Lock()
	defer ms.mu.Unlock()

	delete(ms.items, key)
	return nil
}

// Close stops the cleanup goroutine
func (ms *MemoryStore) Close() error {
	ms.once.Do(func() { close(ms.stop) })
	return nil
}

// cleanupExpired periodically removes expired items
func (ms *MemoryStore) cleanupExpired(every time.Duration) {
	ticker := time.NewTicker(every)
	defer ticker.Stop()

	for {
		select {
		case <-ms.stop:
			return
		case <-ticker.C:
			ms.mu.Lock()
			now := time.Now()
			for key, item := range ms.items {
				if now.After(item.expireTime) {
					delete(ms.items, key)
				}
			}
			ms.mu.Unlock()
		}
	}
}
