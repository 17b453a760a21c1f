package cache

import (
	"sync"
	"time"

	"github.com/jasonpanggit/eol-agents/internal/models"
)

// memoryTier is the in-process hot layer: a map guarded by one RWMutex,
// a bounded size with eviction of the oldest-inserted entry (reads do not
// refresh an entry's position), and a periodic
// cleanup
// goroutine that drops expired rows.
//
// Spec §3 calls this layer "bounded — it mirrors the last N hot entries per
// process"; §4.1 asks for a single lock or per-agent/per-partition locking
// "if contention matters". Expected load (tens of req/s) makes one lock
// sufficient, so that is what this implementation uses.
type memoryTier struct {
	mu      sync.RWMutex
	items   map[string]*memoryItem
	order   []string // insertion order, for oldest-eviction
	maxSize int

	stopCleanup chan struct{}
}

type memoryItem struct {
	entry *models.CacheEntry
}

func newMemoryTier(maxSize int, cleanupInterval time.Duration) *memoryTier {
	if maxSize <= 0 {
		maxSize = 2000
	}
	m := &memoryTier{
		items:       make(map[string]*memoryItem),
		maxSize:     maxSize,
		stopCleanup: make(chan struct{}),
	}
	if cleanupInterval > 0 {
		go m.cleanupLoop(cleanupInterval)
	}
	return m
}

func (m *memoryTier) get(key string, now time.Time) (*models.CacheEntry, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	item, ok := m.items[key]
	if !ok {
		return nil, false
	}
	if !item.entry.Live(now) {
		return nil, false
	}
	return item.entry, true
}

func (m *memoryTier) set(key string, entry *models.CacheEntry) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, exists := m.items[key]; !exists {
		if len(m.items) >= m.maxSize {
			m.evictOldestLocked()
		}
		m.order = append(m.order, key)
	}
	m.items[key] = &memoryItem{entry: entry}
}

func (m *memoryTier) delete(key string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.items, key)
}

func (m *memoryTier) evictOldestLocked() {
	for len(m.order) > 0 {
		oldest := m.order[0]
		m.order = m.order[1:]
		if _, ok := m.items[oldest]; ok {
			delete(m.items, oldest)
			return
		}
	}
}

func (m *memoryTier) purge(matches func(*models.CacheEntry) bool) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	deleted := 0
	for key, item := range m.items {
		if matches(item.entry) {
			delete(m.items, key)
			deleted++
		}
	}
	return deleted
}

func (m *memoryTier) size() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.items)
}

func (m *memoryTier) cleanupLoop(interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			now := time.Now()
			m.mu.Lock()
			for key, item := range m.items {
				if !item.entry.Live(now) {
					delete(m.items, key)
				}
			}
			m.mu.Unlock()
		case <-m.stopCleanup:
			return
		}
	}
}

func (m *memoryTier) stop() {
	close(m.stopCleanup)
}
