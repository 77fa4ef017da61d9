package cache

import (
	"container/list"
	"context"
	"sync"
	"time"
)

// MemoryOption configures the in-memory cache.
type MemoryOption func(*memoryOptions)

type memoryOptions struct {
	defaultTTL      time.Duration
	cleanupInterval time.Duration
	maxEntries      int
}

// WithMemoryDefaultTTL sets the expiration used when Set is called with a zero TTL.
// Default: 1 hour.
func WithMemoryDefaultTTL(d time.Duration) MemoryOption {
	return func(o *memoryOptions) {
		o.defaultTTL = d
	}
}

// WithMemoryCleanupInterval sets how often expired entries are purged in the background.
// Zero disables the janitor; expired entries are then dropped on access only.
// Default: 1 minute.
func WithMemoryCleanupInterval(d time.Duration) MemoryOption {
	return func(o *memoryOptions) {
		o.cleanupInterval = d
	}
}

// WithMemoryMaxEntries caps the number of entries. When full, the least
// recently used entry is evicted. Default: 0, unlimited.
func WithMemoryMaxEntries(n int) MemoryOption {
	return func(o *memoryOptions) {
		o.maxEntries = n
	}
}

type memoryEntry[V any] struct {
	expiresAt time.Time // zero: never
	value     V
	key       string
}

func (e *memoryEntry[V]) expired(now time.Time) bool {
	return !e.expiresAt.IsZero() && now.After(e.expiresAt)
}

// Memory is a process-local cache with per-entry TTL and optional LRU eviction.
// Values are stored as given; callers must not mutate them after Set.
type Memory[V any] struct {
	items  map[string]*list.Element
	lru    *list.List // front: most recently used
	opts   *memoryOptions
	done   chan struct{}
	mu     sync.Mutex
	closed bool
}

// NewMemory creates an in-memory cache. Call Close to stop the janitor.
//
// Example:
//
//	c := cache.NewMemory[[]byte](cache.WithMemoryMaxEntries(10_000))
//	defer c.Close()
func NewMemory[V any](opts ...MemoryOption) *Memory[V] {
	o := &memoryOptions{defaultTTL: time.Hour, cleanupInterval: time.Minute}
	for _, opt := range opts {
		opt(o)
	}

	m := &Memory[V]{
		items: make(map[string]*list.Element),
		lru:   list.New(),
		opts:  o,
		done:  make(chan struct{}),
	}
	if o.cleanupInterval > 0 {
		go m.janitor(o.cleanupInterval)
	}
	return m
}

func (m *Memory[V]) Get(_ context.Context, key string) (V, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var zero V
	if m.closed {
		return zero, ErrClosed
	}
	e, ok := m.lookup(key)
	if !ok {
		return zero, ErrNotFound
	}
	return e.value, nil
}

func (m *Memory[V]) Set(_ context.Context, key string, value V, ttl time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return ErrClosed
	}
	m.store(key, value, m.expiry(ttl))
	return nil
}

func (m *Memory[V]) Delete(_ context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return ErrClosed
	}
	if elem, ok := m.items[key]; ok {
		m.remove(elem)
	}
	return nil
}

func (m *Memory[V]) Has(_ context.Context, key string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return false, ErrClosed
	}
	_, ok := m.lookup(key)
	return ok, nil
}

func (m *Memory[V]) Clear(_ context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return ErrClosed
	}
	m.items = make(map[string]*list.Element)
	m.lru.Init()
	return nil
}

// Close stops the janitor. Further operations return ErrClosed.
func (m *Memory[V]) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if !m.closed {
		m.closed = true
		close(m.done)
	}
	return nil
}

// Len returns the number of live entries.
func (m *Memory[V]) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.purge(time.Now())
	return len(m.items)
}

// IncrBy adds delta to the int64 counter at key under the cache lock.
// A missing counter starts at zero and never expires; an existing one keeps its expiry.
// It fails with ErrUnmarshal when V is not int64.
func (m *Memory[V]) IncrBy(_ context.Context, key string, delta int64) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return 0, ErrClosed
	}

	var (
		current   int64
		expiresAt time.Time
	)
	if e, ok := m.lookup(key); ok {
		n, isInt := any(e.value).(int64)
		if !isInt {
			return 0, ErrUnmarshal
		}
		current, expiresAt = n, e.expiresAt
	}

	next, ok := any(current + delta).(V)
	if !ok {
		return 0, ErrUnmarshal
	}
	m.store(key, next, expiresAt)
	return current + delta, nil
}

// lookup returns the live entry for key and marks it used. Caller holds mu.
func (m *Memory[V]) lookup(key string) (*memoryEntry[V], bool) {
	elem, ok := m.items[key]
	if !ok {
		return nil, false
	}
	e := elem.Value.(*memoryEntry[V])
	if e.expired(time.Now()) {
		m.remove(elem)
		return nil, false
	}
	m.lru.MoveToFront(elem)
	return e, true
}

// store inserts or replaces key, evicting the oldest entry when full. Caller holds mu.
func (m *Memory[V]) store(key string, value V, expiresAt time.Time) {
	if elem, ok := m.items[key]; ok {
		e := elem.Value.(*memoryEntry[V])
		e.value, e.expiresAt = value, expiresAt
		m.lru.MoveToFront(elem)
		return
	}
	if m.opts.maxEntries > 0 && len(m.items) >= m.opts.maxEntries {
		if oldest := m.lru.Back(); oldest != nil {
			m.remove(oldest)
		}
	}
	m.items[key] = m.lru.PushFront(&memoryEntry[V]{key: key, value: value, expiresAt: expiresAt})
}

func (m *Memory[V]) expiry(ttl time.Duration) time.Time {
	if ttl == 0 {
		ttl = m.opts.defaultTTL
	}
	if ttl <= 0 {
		return time.Time{}
	}
	return time.Now().Add(ttl)
}

func (m *Memory[V]) remove(elem *list.Element) {
	m.lru.Remove(elem)
	delete(m.items, elem.Value.(*memoryEntry[V]).key)
}

// purge drops expired entries. Caller holds mu.
func (m *Memory[V]) purge(now time.Time) {
	for elem := m.lru.Back(); elem != nil; {
		prev := elem.Prev()
		if elem.Value.(*memoryEntry[V]).expired(now) {
			m.remove(elem)
		}
		elem = prev
	}
}

func (m *Memory[V]) janitor(every time.Duration) {
	ticker := time.NewTicker(every)
	defer ticker.Stop()

	for {
		select {
		case <-m.done:
			return
		case now := <-ticker.C:
			m.mu.Lock()
			m.purge(now)
			m.mu.Unlock()
		}
	}
}

var _ Cache[any] = (*Memory[any])(nil)
