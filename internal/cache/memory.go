package cache

import (
	"context"
	"strings"
	"sync"
	"time"
)

type memoryEntry struct {
	value     []byte
	createdAt time.Time
	expiresAt time.Time // zero means no expiry
}

func (e memoryEntry) expired(now time.Time) bool {
	return !e.expiresAt.IsZero() && now.After(e.expiresAt)
}

// MemoryStore is the in-memory Store used for dev and tests.
type MemoryStore struct {
	mu              sync.RWMutex
	items           map[string]memoryEntry
	stopCleanup     chan struct{}
	cleanupOnce     sync.Once
	cleanupInterval time.Duration
	now             func() time.Time // overridable in tests
}

// NewMemoryStore creates an in-memory store.
// If cleanupInterval is not positive a default of 5 minutes is used.
func NewMemoryStore(cleanupInterval time.Duration) *MemoryStore {
	if cleanupInterval <= 0 {
		cleanupInterval = 5 * time.Minute
	}

	s := &MemoryStore{
		items:           make(map[string]memoryEntry),
		stopCleanup:     make(chan struct{}),
		cleanupInterval: cleanupInterval,
		now:             time.Now,
	}

	// background cleanup routine; Get does lazy expiry on its own, this
	// just keeps the map from accumulating dead entries
	go s.cleanupExpired()

	return s
}

// Get retrieves a value. An expired entry is treated as a miss and removed.
func (s *MemoryStore) Get(_ context.Context, key string) ([]byte, bool, error) {
	s.mu.RLock()
	entry, ok := s.items[key]
	s.mu.RUnlock()

	if !ok {
		return nil, false, nil
	}

	now := s.now()
	if entry.expired(now) {
		s.mu.Lock()
		if e, exists := s.items[key]; exists && e.expired(now) {
			delete(s.items, key)
		}
		s.mu.Unlock()
		return nil, false, nil
	}

	return entry.value, true, nil
}

// Set stores a value with the given TTL, overwriting any existing entry.
// A non-positive TTL removes the key instead.
func (s *MemoryStore) Set(_ context.Context, key string, value []byte, ttl time.Duration) error {
	if ttl <= 0 {
		s.mu.Lock()
		delete(s.items, key)
		s.mu.Unlock()
		return nil
	}

	// Copy to decouple from caller's buffer
	valueCopy := make([]byte, len(value))
	copy(valueCopy, value)

	now := s.now()

	s.mu.Lock()
	s.items[key] = memoryEntry{
		value:     valueCopy,
		createdAt: now,
		expiresAt: now.Add(ttl),
	}
	s.mu.Unlock()

	return nil
}

// Delete removes the given keys and reports how many existed.
func (s *MemoryStore) Delete(_ context.Context, keys ...string) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	removed := 0
	for _, key := range keys {
		if _, ok := s.items[key]; ok {
			delete(s.items, key)
			removed++
		}
	}
	return removed, nil
}

// DeletePrefix removes every key starting with prefix and reports the count.
func (s *MemoryStore) DeletePrefix(_ context.Context, prefix string) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	removed := 0
	for key := range s.items {
		if strings.HasPrefix(key, prefix) {
			delete(s.items, key)
			removed++
		}
	}
	return removed, nil
}

// SweepExpired removes every expired entry and reports the count.
func (s *MemoryStore) SweepExpired(_ context.Context) (int, error) {
	now := s.now()

	s.mu.Lock()
	defer s.mu.Unlock()

	removed := 0
	for key, entry := range s.items {
		if entry.expired(now) {
			delete(s.items, key)
			removed++
		}
	}
	return removed, nil
}

// cleanupExpired runs periodically to remove expired entries.
func (s *MemoryStore) cleanupExpired() {
	ticker := time.NewTicker(s.cleanupInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			_, _ = s.SweepExpired(context.Background())
		case <-s.stopCleanup:
			return
		}
	}
}

// Close stops the cleanup goroutine. Call this on shutdown or in tests.
func (s *MemoryStore) Close() error {
	s.cleanupOnce.Do(func() {
		close(s.stopCleanup)
	})
	return nil
}

// Len returns the number of items currently in the store.
func (s *MemoryStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.items)
}

// Clear removes all items. Useful for tests or manual resets.
func (s *MemoryStore) Clear() {
	s.mu.Lock()
	s.items = make(map[string]memoryEntry)
	s.mu.Unlock()
}
