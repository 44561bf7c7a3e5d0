package cooldown

import (
	"context"
	"sync"
	"time"
)

// Store remembers when a key was last acted on
type Store interface {
	// Get returns the time recorded for key and whether one exists
	Get(ctx context.Context, key string) (time.Time, bool, error)
	// Put records at for key, replacing any previous value
	Put(ctx context.Context, key string, at time.Time) error
	// Claim atomically records at for key unless key was recorded less than
	// period before at. It reports whether at was recorded.
	Claim(ctx context.Context, key string, at time.Time, period time.Duration) (bool, error)
	// Evict removes every entry recorded before olderThan
	Evict(ctx context.Context, olderThan time.Time) (int, error)
}

// Active reports whether key was recorded less than period before now
func Active(ctx context.Context, s Store, key string, period time.Duration, now time.Time) (bool, error) {
	at, ok, err := s.Get(ctx, key)
	if err != nil || !ok {
		return false, err
	}
	return now.Sub(at) < period, nil
}

// MemoryStore is a process-local Store
type MemoryStore struct {
	mu      sync.Mutex
	entries map[string]time.Time
}

// NewMemoryStore creates an empty in-memory store
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{entries: make(map[string]time.Time)}
}

func (m *MemoryStore) Get(_ context.Context, key string) (time.Time, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	at, ok := m.entries[key]
	return at, ok, nil
}

func (m *MemoryStore) Put(_ context.Context, key string, at time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries[key] = at
	return nil
}

func (m *MemoryStore) Claim(_ context.Context, key string, at time.Time, period time.Duration) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if last, ok := m.entries[key]; ok && at.Sub(last) < period {
		return false, nil
	}
	m.entries[key] = at
	return true, nil
}

func (m *MemoryStore) Evict(_ context.Context, olderThan time.Time) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	evicted := 0
	for key, at := range m.entries {
		if at.Before(olderThan) {
			delete(m.entries, key)
			evicted++
		}
	}
	return evicted, nil
}

// size returns the number of tracked keys
func (m *MemoryStore) size() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.entries)
}
