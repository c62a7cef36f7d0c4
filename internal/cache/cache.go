package cache

import (
	"log/slog"
	"sync"
	"time"
)

// Cache defines a generic cache interface
type Cache[T any] interface {
	Get(key string) (T, bool)
	Set(key string, data T)
	Delete(key string)
	Size() int
}

// Memo caches values computed from a versioned source. An entry is reused
// only while the source version it was computed at is still current.
type Memo[T any] struct {
	lru *LRUCache[versioned[T]]
}

type versioned[T any] struct {
	version uint64
	value   T
}

func NewMemo[T any](maxSize int, ttl time.Duration) *Memo[T] {
	return &Memo[T]{lru: NewLRUCache[versioned[T]](maxSize, ttl)}
}

// Get returns the cached value for key at version, calling compute on a miss
// or when the cached entry belongs to another version.
func (m *Memo[T]) Get(key string, version uint64, compute func() T) T {
	if v, ok := m.lru.Get(key); ok && v.version == version {
		return v.value
	}
	value := compute()
	m.lru.Set(key, versioned[T]{version: version, value: value})
	return value
}

func (m *Memo[T]) Stats() Stats { return m.lru.Stats() }

// CleanExpired implements Cleaner.
func (m *Memo[T]) CleanExpired() int { return m.lru.CleanExpired() }

// Manager handles cache lifecycle and cleanup
type Manager struct {
	caches      []Cleaner
	stopOnce    sync.Once
	started     bool
	stopCleanup chan struct{}
	cleanupDone chan struct{}
}

// Cleaner interface for caches that support cleanup
type Cleaner interface {
	CleanExpired() int
}

// NewManager creates a new cache manager
func NewManager() *Manager {
	return &Manager{
		stopCleanup: make(chan struct{}),
		cleanupDone: make(chan struct{}),
	}
}

// Register adds a cache for periodic cleanup. Call before StartCleanup.
func (m *Manager) Register(caches ...Cleaner) {
	m.caches = append(m.caches, caches...)
}

// StartCleanup begins periodic cleanup of all registered caches
func (m *Manager) StartCleanup(interval time.Duration) {
	m.started = true
	go m.cleanup(interval)
}

// CleanNow runs one cleanup pass and returns the number of evicted entries.
func (m *Manager) CleanNow() int {
	total := 0
	for _, c := range m.caches {
		total += c.CleanExpired()
	}
	return total
}

func (m *Manager) cleanup(interval time.Duration) {
	defer close(m.cleanupDone)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			if n := m.CleanNow(); n > 0 {
				slog.Debug("Evicted expired cache entries", "component", "cache", "count", n)
			}
		case <-m.stopCleanup:
			return
		}
	}
}

// Stop gracefully stops the cleanup routine
func (m *Manager) Stop() {
	m.stopOnce.Do(func() {
		close(m.stopCleanup)
		if m.started {
			<-m.cleanupDone
		}
	})
}
