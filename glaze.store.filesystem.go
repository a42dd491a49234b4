package glaze

import (
	"context"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/natefinch/atomic"
)

// Filesystem store constants
const (
	FilesystemDirPerm = 0o755
)

// FilesystemStore serves template sources from a directory tree. Paths are
// slash-separated and relative to the root; writes are atomic renames.
type FilesystemStore struct {
	root   string
	fsys   fs.FS
	mu     sync.RWMutex
	closed bool
}

// FilesystemStoreDriver is the driver for creating FilesystemStore instances.
type FilesystemStoreDriver struct{}

func init() {
	RegisterStoreDriver(StoreDriverNameFilesystem, &FilesystemStoreDriver{})
}

// Open creates a FilesystemStore rooted at the connection string.
func (d *FilesystemStoreDriver) Open(connectionString string) (SourceStore, error) {
	return NewFilesystemStore(connectionString)
}

// NewFilesystemStore creates a store rooted at root, creating the directory if needed.
func NewFilesystemStore(root string) (*FilesystemStore, error) {
	if root == "" {
		return nil, NewStoreError(ErrMsgStoreEmptyConnString, StoreOpOpen, root, nil)
	}
	if err := os.MkdirAll(root, FilesystemDirPerm); err != nil {
		return nil, NewStoreError(ErrMsgStoreCreateRootFailed, StoreOpOpen, root, err)
	}
	info, err := os.Stat(root)
	if err != nil {
		return nil, NewStoreError(ErrMsgStoreCreateRootFailed, StoreOpOpen, root, err)
	}
	if !info.IsDir() {
		return nil, NewStoreError(ErrMsgStoreRootNotDirectory, StoreOpOpen, root, nil)
	}
	return &FilesystemStore{root: root, fsys: os.DirFS(root)}, nil
}

// Root returns the store's root directory.
func (s *FilesystemStore) Root() string {
	return s.root
}

func (s *FilesystemStore) fullPath(path string) string {
	return filepath.Join(s.root, filepath.FromSlash(path))
}

// Fetch reads the file at path.
func (s *FilesystemStore) Fetch(ctx context.Context, path string) (*Source, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if err := validateSourcePath(StoreOpFetch, path); err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.closed {
		return nil, NewStoreClosedError(StoreOpFetch)
	}
	full := s.fullPath(path)
	data, err := os.ReadFile(full)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, NewSourceNotFoundError(StoreOpFetch, path)
		}
		return nil, NewStoreError(ErrMsgStoreReadFailed, StoreOpFetch, path, err)
	}
	info, err := os.Stat(full)
	if err != nil {
		return nil, NewStoreError(ErrMsgStoreReadFailed, StoreOpFetch, path, err)
	}
	return &Source{Path: path, Data: string(data), UpdatedAt: info.ModTime()}, nil
}

// Put writes the file at path atomically, creating parent directories.
func (s *FilesystemStore) Put(ctx context.Context, path, data string) error {
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
	full := s.fullPath(path)
	if err := os.MkdirAll(filepath.Dir(full), FilesystemDirPerm); err != nil {
		return NewStoreError(ErrMsgStoreWriteFailed, StoreOpPut, path, err)
	}
	if err := atomic.WriteFile(full, strings.NewReader(data)); err != nil {
		return NewStoreError(ErrMsgStoreWriteFailed, StoreOpPut, path, err)
	}
	return nil
}

// Delete removes the file at path.
func (s *FilesystemStore) Delete(ctx context.Context, path string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := validateSourcePath(StoreOpDelete, path); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return NewStoreClosedError(StoreOpDelete)
	}
	if err := os.Remove(s.fullPath(path)); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return NewSourceNotFoundError(StoreOpDelete, path)
		}
		return NewStoreError(ErrMsgStoreWriteFailed, StoreOpDelete, path, err)
	}
	return nil
}

// List globs the directory tree. An empty pattern lists every file.
func (s *FilesystemStore) List(ctx context.Context, pattern string) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if pattern == "" {
		pattern = "**"
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.closed {
		return nil, NewStoreClosedError(StoreOpList)
	}
	matches, err := doublestar.Glob(s.fsys, pattern, doublestar.WithFilesOnly())
	if err != nil {
		return nil, NewStoreError(ErrMsgInvalidPattern, StoreOpList, pattern, err)
	}
	sort.Strings(matches)
	return matches, nil
}

// Close marks the store closed. Files are left in place.
func (s *FilesystemStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	return nil
}
