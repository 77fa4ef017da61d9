package session

import "github.com/dmitrymomot/anvil/pkg/cache"

// MemoryStore keeps sessions in process memory on top of cache.Memory.
// Sessions are stored serialized, so callers never share a *Session.
type MemoryStore struct {
	*CacheStore
	entries *cache.Memory[[]byte]
}

// NewMemoryStore creates an empty in-memory store. Options tune the
// underlying cache, for example cache.WithMemoryMaxEntries.
// Close releases the cache janitor.
func NewMemoryStore(opts ...cache.MemoryOption) *MemoryStore {
	entries := cache.NewMemory[[]byte](opts...)
	return &MemoryStore{CacheStore: NewCacheStore(entries), entries: entries}
}

// Len returns the number of stored sessions.
func (m *MemoryStore) Len() int {
	// Each session holds a token entry and an id entry.
	return m.entries.Len() / 2
}

// Close stops the underlying cache.
func (m *MemoryStore) Close() error {
	return m.entries.Close()
}

var _ Store = (*MemoryStore)(nil)
