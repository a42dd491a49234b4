package glaze

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/bmatcuk/doublestar/v4"
)

// MemoryStore is an in-memory implementation of SourceStore.
// It is primarily intended for testing and development.
// All data is lost when the process terminates.
type MemoryStore struct {
	mu      sync.RWMutex
	sources map[string]*Source
	closed  bool
}

// MemoryStoreDriver is the driver for creating MemoryStore instances.
type MemoryStoreDriver struct{}

func init() {
	RegisterStoreDriver(StoreDriverNameMemory, &MemoryStoreDriver{})
}

// Open creates a new MemoryStore instance.
// The connection string is ignored for memory stores.
func (d *MemoryStoreDriver) Open(connectionString string) (SourceStore, error) {
	return NewMemoryStore(), nil
}

// NewMemoryStore creates a new in-memory source store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{sources: make(map[string]*Source)}
}

// Fetch returns a copy of the source at path.
func (s *MemoryStore) Fetch(ctx context.Context, path string) (*Source, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.closed {
		return nil, NewStoreClosedError(StoreOpFetch)
	}
	src, ok := s.sources[path]
	if !ok {
		return nil, NewSourceNotFoundError(StoreOpFetch, path)
	}
	copied := *src
	return &copied, nil
}

// Put creates or replaces the source at path.
func (s *MemoryStore) Put(ctx context.Context, path, data string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := validateSourcePath(StoreOpPut, path); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return NewStoreClosedError(StoreOpPut)
	}
	s.sources[path] = &Source{Path: path, Data: data, UpdatedAt: time.Now()}
	return nil
}

// Delete removes the source at path.
func (s *MemoryStore) Delete(ctx context.Context, path string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return NewStoreClosedError(StoreOpDelete)
	}
	if _, ok := s.sources[path]; !ok {
		return NewSourceNotFoundError(StoreOpDelete, path)
	}
	delete(s.sources, path)
	return nil
}

// List returns the sorted paths matching pattern.
func (s *MemoryStore) List(ctx context.Context, pattern string) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.closed {
		return nil, NewStoreClosedError(StoreOpList)
	}
	paths := make([]string, 0, len(s.sources))
	for path := range s.sources {
		paths = append(paths, path)
	}
	return filterPaths(pattern, paths)
}

// Close marks the store closed and drops its contents.
func (s *MemoryStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	s.sources = nil
	return nil
}

// validateSourcePath rejects empty, absolute and parent-escaping paths.
func validateSourcePath(operation, path string) error {
	if path == "" || strings.HasPrefix(path, PathSeparator) {
		return NewStoreError(ErrMsgInvalidSourcePath, operation, path, nil)
	}
	for _, part := range strings.Split(path, PathSeparator) {
		if part == ".." {
			return NewStoreError(ErrMsgInvalidSourcePath, operation, path, nil)
		}
	}
	return nil
}

// filterPaths keeps the paths matching a doublestar pattern and sorts them.
func filterPaths(pattern string, paths []string) ([]string, error) {
	if pattern != "" && !doublestar.ValidatePattern(pattern) {
		return nil, NewStoreError(ErrMsgInvalidPattern, StoreOpList, pattern, nil)
	}
	matched := make([]string, 0, len(paths))
	for _, path := range paths {
		if pattern == "" {
			matched = append(matched, path)
			continue
		}
		ok, err := doublestar.Match(pattern, path)
		if err != nil {
			return nil, NewStoreError(ErrMsgInvalidPattern, StoreOpList, pattern, err)
		}
		if ok {
			matched = append(matched, path)
		}
	}
	sort.Strings(matched)
	return matched, nil
}
