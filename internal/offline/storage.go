package offline

import (
	"context"
	"errors"
	"sort"
	"sync"
)

// ErrStorageClosed is returned by MemoryStorage after Close
var ErrStorageClosed = errors.New("cache storage closed")

// Cache is a single named store of responses keyed by URL
type Cache interface {
	// Match returns the entry for key, if present
	Match(ctx context.Context, key string) (*CachedResponse, bool, error)

	// Put stores or replaces the entry for key
	Put(ctx context.Context, key string, entry *CachedResponse) error

	// Delete removes key; a missing key is not an error
	Delete(ctx context.Context, key string) error
}

// Storage holds the named caches
type Storage interface {
	// Open returns the named cache, creating it if needed
	Open(name string) (Cache, error)

	// Keys lists the names of all caches
	Keys() ([]string, error)

	// Delete removes a cache and its entries; a missing cache is not an error
	Delete(name string) error

	// Match looks key up in every cache, in name order
	Match(ctx context.Context, key string) (*CachedResponse, bool, error)

	// Close releases the storage
	Close() error
}

// MemoryStorage is an in-process Storage
type MemoryStorage struct {
	mu     sync.RWMutex
	caches map[string]map[string]*CachedResponse
	closed bool
}

// NewMemoryStorage creates an empty MemoryStorage
func NewMemoryStorage() *MemoryStorage {
	return &MemoryStorage{caches: make(map[string]map[string]*CachedResponse)}
}

type memoryCache struct {
	storage *MemoryStorage
	name    string
}

// Open returns the named cache, creating it if needed
func (m *MemoryStorage) Open(name string) (Cache, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return nil, ErrStorageClosed
	}
	if _, ok := m.caches[name]; !ok {
		m.caches[name] = make(map[string]*CachedResponse)
	}
	return &memoryCache{storage: m, name: name}, nil
}

// Keys lists cache names in sorted order
func (m *MemoryStorage) Keys() ([]string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.closed {
		return nil, ErrStorageClosed
	}
	return m.sortedNames(), nil
}

// Delete removes a cache
func (m *MemoryStorage) Delete(name string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return ErrStorageClosed
	}
	delete(m.caches, name)
	return nil
}

// Match looks key up in every cache
func (m *MemoryStorage) Match(ctx context.Context, key string) (*CachedResponse, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.closed {
		return nil, false, ErrStorageClosed
	}
	for _, name := range m.sortedNames() {
		if e, ok := m.caches[name][key]; ok {
			return e, true, nil
		}
	}
	return nil, false, nil
}

// Close drops all caches
func (m *MemoryStorage) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closed = true
	m.caches = nil
	return nil
}

// sortedNames must be called with mu held
func (m *MemoryStorage) sortedNames() []string {
	names := make([]string, 0, len(m.caches))
	for name := range m.caches {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func (c *memoryCache) Match(ctx context.Context, key string) (*CachedResponse, bool, error) {
	c.storage.mu.RLock()
	defer c.storage.mu.RUnlock()
	if c.storage.closed {
		return nil, false, ErrStorageClosed
	}
	e, ok := c.storage.caches[c.name][key]
	return e, ok, nil
}

// Put recreates the cache if it was deleted while open
func (c *memoryCache) Put(ctx context.Context, key string, entry *CachedResponse) error {
	c.storage.mu.Lock()
	defer c.storage.mu.Unlock()
	if c.storage.closed {
		return ErrStorageClosed
	}
	entries, ok := c.storage.caches[c.name]
	if !ok {
		entries = make(map[string]*CachedResponse)
		c.storage.caches[c.name] = entries
	}
	entries[key] = entry
	return nil
}

func (c *memoryCache) Delete(ctx context.Context, key string) error {
	c.storage.mu.Lock()
	defer c.storage.mu.Unlock()
	if c.storage.closed {
		return ErrStorageClosed
	}
	delete(c.storage.caches[c.name], key)
	return nil
}
