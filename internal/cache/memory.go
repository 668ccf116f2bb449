package cache

import (
	"sort"
	"sync"
	"time"
)

// MemoryStore is a process-local Store. Entries are kept in encoded form
// so callers never share slices with the store.
type MemoryStore struct {
	mu      sync.RWMutex
	entries map[string][]byte
}

var _ Store = (*MemoryStore)(nil)

// NewMemoryStore returns an empty store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{entries: make(map[string][]byte)}
}

// Load implements Store.
func (s *MemoryStore) Load(user string) (*Entry, bool) {
	s.mu.RLock()
	data, ok := s.entries[Key(user)]
	s.mu.RUnlock()
	if !ok {
		return nil, false
	}
	return decode(data)
}

// Save implements Store.
func (s *MemoryStore) Save(user string, entry *Entry) error {
	if entry == nil {
		return nil
	}
	data, err := entry.MarshalJSON()
	if err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries[Key(user)] = data
	return nil
}

// Clear implements Store.
func (s *MemoryStore) Clear() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries = make(map[string][]byte)
	return nil
}

// Prune implements Store.
func (s *MemoryStore) Prune(before time.Time) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	removed := 0
	for key, data := range s.entries {
		if e, ok := decode(data); ok && !e.CapturedAt.Before(before) {
			continue
		}
		delete(s.entries, key)
		removed++
	}
	return removed, nil
}

// Stats implements Store.
func (s *MemoryStore) Stats(ttl time.Duration) (*Stats, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	stats := &Stats{Backend: BackendMemory}
	now := time.Now()
	for key, data := range s.entries {
		stats.add(key, data, now, ttl)
	}
	sort.Strings(stats.Users)
	return stats, nil
}

// Close implements Store.
func (s *MemoryStore) Close() error {
	return nil
}
