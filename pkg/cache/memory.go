package cache

import (
	"container/list"
	"context"
	"sync"
	"time"
)

type memoryItem[V any] struct {
	expiresAt time.Time
	value     V
	key       string
}

func (it *memoryItem[V]) expired(now time.Time) bool {
	return !it.expiresAt.IsZero() && now.After(it.expiresAt)
}

// MemoryOption configures a Memory cache.
type MemoryOption func(*memoryConfig)

type memoryConfig struct {
	defaultTTL time.Duration
	sweepEvery time.Duration
	maxEntries int
	now        func() time.Time
}

// WithDefaultTTL sets the TTL used when Set gets zero. Default: 5 minutes.
func WithDefaultTTL(d time.Duration) MemoryOption {
	return func(c *memoryConfig) { c.defaultTTL = d }
}

// WithSweepInterval sets how often expired entries are purged in the
// background. Zero disables the sweeper. Default: 1 minute.
func WithSweepInterval(d time.Duration) MemoryOption {
	return func(c *memoryConfig) { c.sweepEvery = d }
}

// WithMaxEntries bounds the cache; the least recently used entry is
// evicted first. Zero means unbounded.
func WithMaxEntries(n int) MemoryOption {
	return func(c *memoryConfig) { c.maxEntries = n }
}

func withClock(now func() time.Time) MemoryOption {
	return func(c *memoryConfig) { c.now = now }
}

// Memory is a process-local LRU cache with per-entry expiry.
type Memory[V any] struct {
	cfg    memoryConfig
	index  map[string]*list.Element
	lru    *list.List
	stop   chan struct{}
	mu     sync.Mutex
	closed bool
}

// NewMemory creates a Memory cache. Call Close to stop the sweeper.
func NewMemory[V any](opts ...MemoryOption) *Memory[V] {
	cfg := memoryConfig{
		defaultTTL: 5 * time.Minute,
		sweepEvery: time.Minute,
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(&cfg)
	}

	m := &Memory[V]{
		cfg:   cfg,
		index: make(map[string]*list.Element),
		lru:   list.New(),
		stop:  make(chan struct{}),
	}
	if cfg.sweepEvery > 0 {
		go m.sweepLoop()
	}
	return m
}

// Get implements Cache.
func (m *Memory[V]) Get(_ context.Context, key string) (V, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var zero V
	if m.closed {
		return zero, ErrClosed
	}
	el, ok := m.index[key]
	if !ok {
		return zero, ErrNotFound
	}
	it := el.Value.(*memoryItem[V])
	if it.expired(m.cfg.now()) {
		m.remove(el)
		return zero, ErrNotFound
	}
	m.lru.MoveToFront(el)
	return it.value, nil
}

// Set implements Cache.
func (m *Memory[V]) Set(_ context.Context, key string, value V, ttl time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return ErrClosed
	}
	if ttl == 0 {
		ttl = m.cfg.defaultTTL
	}
	var expiresAt time.Time
	if ttl > 0 {
		expiresAt = m.cfg.now().Add(ttl)
	}

	if el, ok := m.index[key]; ok {
		it := el.Value.(*memoryItem[V])
		it.value, it.expiresAt = value, expiresAt
		m.lru.MoveToFront(el)
		return nil
	}

	if m.cfg.maxEntries > 0 && m.lru.Len() >= m.cfg.maxEntries {
		if oldest := m.lru.Back(); oldest != nil {
			m.remove(oldest)
		}
	}
	m.index[key] = m.lru.PushFront(&memoryItem[V]{key: key, value: value, expiresAt: expiresAt})
	return nil
}

// Delete implements Cache. Deleting a missing key is not an error.
func (m *Memory[V]) Delete(_ context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return ErrClosed
	}
	if el, ok := m.index[key]; ok {
		m.remove(el)
	}
	return nil
}

// Len returns the number of stored entries, expired ones included until swept.
func (m *Memory[V]) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.lru.Len()
}

// Close stops the sweeper and drops all entries. It is idempotent.
func (m *Memory[V]) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return nil
	}
	m.closed = true
	close(m.stop)
	m.index = make(map[string]*list.Element)
	m.lru.Init()
	return nil
}

func (m *Memory[V]) sweepLoop() {
	ticker := time.NewTicker(m.cfg.sweepEvery)
	defer ticker.Stop()

	for {
		select {
		case <-m.stop:
			return
		case <-ticker.C:
			m.sweep()
		}
	}
}

func (m *Memory[V]) sweep() {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.cfg.now()
	for el := m.lru.Back(); el != nil; {
		prev := el.Prev()
		if el.Value.(*memoryItem[V]).expired(now) {
			m.remove(el)
		}
		el = prev
	}
}

// remove must be called with mu held.
func (m *Memory[V]) remove(el *list.Element) {
	m.lru.Remove(el)
	delete(m.index, el.Value.(*memoryItem[V]).key)
}

var _ Cache[any] = (*Memory[any])(nil)
