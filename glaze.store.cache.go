package glaze

import (
	"context"
	"errors"
	"sync"
	"time"
)

// StoreCacheConfig configures the caching behavior of a CachedStore.
type StoreCacheConfig struct {
	// TTL is how long cached entries remain valid.
	// Default: 5 minutes.
	TTL time.Duration

	// MaxEntries is the maximum number of cached sources.
	// When exceeded, the least recently used entry is evicted.
	// Default: 1000.
	MaxEntries int

	// NegativeCacheTTL is how long to cache "not found" results.
	// Set to 0 to disable negative caching.
	NegativeCacheTTL time.Duration
}

// Store cache defaults
const (
	StoreCacheDefaultTTL        = 5 * time.Minute
	StoreCacheDefaultMaxEntries = 1000
	StoreCacheDefaultNegTTL     = 30 * time.Second
)

// DefaultStoreCacheConfig returns the default caching configuration.
func DefaultStoreCacheConfig() StoreCacheConfig {
	return StoreCacheConfig{
		TTL:              StoreCacheDefaultTTL,
		MaxEntries:       StoreCacheDefaultMaxEntries,
		NegativeCacheTTL: StoreCacheDefaultNegTTL,
	}
}

// StoreCacheStats contains cache statistics.
type StoreCacheStats struct {
	Entries         int
	ValidEntries    int
	NegativeEntries int
}

// storeCacheEntry is one cached Fetch result.
type storeCacheEntry struct {
	source     *Source
	notFound   bool
	cachedAt   time.Time
	accessedAt time.Time
	path       string
}

// CachedStore wraps any SourceStore with a TTL cache on Fetch. Writes through
// the wrapper invalidate the affected path.
type CachedStore struct {
	store  SourceStore
	config StoreCacheConfig

	mu      sync.Mutex
	entries map[string]*storeCacheEntry
	closed  bool
	now     func() time.Time

	// generation counts invalidations. A read-through that overlapped one
	// may hold data older than the write and is returned but not cached.
	generation uint64
}

// NewCachedStore wraps a store with caching.
func NewCachedStore(store SourceStore, config StoreCacheConfig) *CachedStore {
	if config.TTL == 0 {
		config.TTL = StoreCacheDefaultTTL
	}
	if config.MaxEntries == 0 {
		config.MaxEntries = StoreCacheDefaultMaxEntries
	}
	return &CachedStore{
		store:   store,
		config:  config,
		entries: make(map[string]*storeCacheEntry),
		now:     time.Now,
	}
}

// Fetch returns the cached source when valid, otherwise reads through.
func (s *CachedStore) Fetch(ctx context.Context, path string) (*Source, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil, NewStoreClosedError(StoreOpFetch)
	}
	if entry, ok := s.entries[path]; ok && s.isValid(entry) {
		entry.accessedAt = s.now()
		s.mu.Unlock()
		if entry.notFound {
			return nil, NewSourceNotFoundError(StoreOpFetch, path)
		}
		copied := *entry.source
		return &copied, nil
	}
	generation := s.generation
	s.mu.Unlock()

	src, err := s.store.Fetch(ctx, path)

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil, NewStoreClosedError(StoreOpFetch)
	}
	current := s.generation == generation
	if err != nil {
		if current && errors.Is(err, ErrSourceNotFound) && s.config.NegativeCacheTTL > 0 {
			s.addEntry(path, nil, true)
		}
		return nil, err
	}
	if current {
		s.addEntry(path, src, false)
	}
	copied := *src
	return &copied, nil
}

// Put writes through and invalidates path.
func (s *CachedStore) Put(ctx context.Context, path, data string) error {
	if err := s.store.Put(ctx, path, data); err != nil {
		return err
	}
	s.Invalidate(path)
	return nil
}

// Delete writes through and invalidates path.
func (s *CachedStore) Delete(ctx context.Context, path string) error {
	err := s.store.Delete(ctx, path)
	s.Invalidate(path)
	return err
}

// List is not cached.
func (s *CachedStore) List(ctx context.Context, pattern string) ([]string, error) {
	return s.store.List(ctx, pattern)
}

// Close closes the underlying store and drops the cache.
func (s *CachedStore) Close() error {
	s.mu.Lock()
	s.closed = true
	s.entries = make(map[string]*storeCacheEntry)
	s.mu.Unlock()
	return s.store.Close()
}

// Invalidate removes path from the cache.
func (s *CachedStore) Invalidate(path string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.generation++
	delete(s.entries, path)
}

// InvalidateAll clears the cache.
func (s *CachedStore) InvalidateAll() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.generation++
	s.entries = make(map[string]*storeCacheEntry)
}

// Stats returns cache statistics.
func (s *CachedStore) Stats() StoreCacheStats {
	s.mu.Lock()
	defer s.mu.Unlock()

	stats := StoreCacheStats{Entries: len(s.entries)}
	for _, entry := range s.entries {
		if s.isValid(entry) {
			stats.ValidEntries++
		}
		if entry.notFound {
			stats.NegativeEntries++
		}
	}
	return stats
}

// isValid checks if a cache entry is still valid.
func (s *CachedStore) isValid(entry *storeCacheEntry) bool {
	ttl := s.config.TTL
	if entry.notFound {
		ttl = s.config.NegativeCacheTTL
	}
	return s.now().Sub(entry.cachedAt) < ttl
}

// addEntry adds an entry, evicting the least recently used one when full.
// Caller must hold the lock.
func (s *CachedStore) addEntry(path string, src *Source, notFound bool) {
	if _, exists := s.entries[path]; !exists && len(s.entries) >= s.config.MaxEntries {
		s.evictOldest()
	}
	now := s.now()
	s.entries[path] = &storeCacheEntry{
		source:     src,
		notFound:   notFound,
		cachedAt:   now,
		accessedAt: now,
		path:       path,
	}
}

// evictOldest removes the least recently accessed entry.
// Caller must hold the lock.
func (s *CachedStore) evictOldest() {
	var oldest *storeCacheEntry
	for _, entry := range s.entries {
		if oldest == nil || entry.accessedAt.Before(oldest.accessedAt) {
			oldest = entry
		}
	}
	if oldest != nil {
		delete(s.entries, oldest.path)
	}
}
