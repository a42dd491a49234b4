package glaze

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"
)

// Source is one template source held by a SourceStore.
type Source struct {
	// Path is the store key, usually a file name with extensions ("views/index.md.str").
	Path string `json:"path"`

	// Data is the UTF-8 template source.
	Data string `json:"data"`

	// UpdatedAt is when the source was last written.
	UpdatedAt time.Time `json:"updated_at"`
}

// SourceStore is the interface for pluggable template source backends.
// Implementations must be safe for concurrent use.
type SourceStore interface {
	// Fetch returns the source at path.
	// Returns an error wrapping ErrSourceNotFound if the path doesn't exist.
	Fetch(ctx context.Context, path string) (*Source, error)

	// Put creates or replaces the source at path.
	Put(ctx context.Context, path, data string) error

	// Delete removes the source at path.
	// Returns an error wrapping ErrSourceNotFound if the path doesn't exist.
	Delete(ctx context.Context, path string) error

	// List returns the sorted paths matching a doublestar glob pattern.
	// An empty pattern matches every path.
	List(ctx context.Context, pattern string) ([]string, error)

	// Close releases any resources held by the store.
	// After Close, the store should not be used.
	Close() error
}

// StoreDriver is a factory for creating store instances.
// Drivers register themselves during init().
type StoreDriver interface {
	// Open creates a new store with the given connection string.
	// The format of the connection string is driver-specific.
	Open(connectionString string) (SourceStore, error)
}

// Store driver names
const (
	StoreDriverNameMemory     = "memory"
	StoreDriverNameFilesystem = "filesystem"
	StoreDriverNamePostgres   = "postgres"
	StoreDriverNameSQLite     = "sqlite"
)

// Store operation names recorded on store errors
const (
	StoreOpOpen    = "open"
	StoreOpFetch   = "fetch"
	StoreOpPut     = "put"
	StoreOpDelete  = "delete"
	StoreOpList    = "list"
	StoreOpClose   = "close"
	StoreOpMigrate = "migrate"
)

// Store error message constants
const (
	ErrMsgNilStoreDriver        = "store driver is nil"
	ErrMsgStoreDriverRegistered = "store driver already registered"
	ErrMsgStoreDriverNotFound   = "store driver not found"
	ErrMsgStoreClosed           = "store is closed"
	ErrMsgSourceNotFound        = "template source not found"
	ErrMsgInvalidSourcePath     = "invalid template source path"
	ErrMsgInvalidPattern        = "invalid glob pattern"
	ErrMsgStoreReadFailed       = "failed to read template source"
	ErrMsgStoreWriteFailed      = "failed to write template source"
	ErrMsgStoreQueryFailed      = "store query failed"
	ErrMsgStoreConnectionFailed = "failed to connect to store"
	ErrMsgStoreEmptyConnString  = "connection string cannot be empty"
	ErrMsgStoreMigrationFailed  = "store migration failed"
	ErrMsgStoreRootNotDirectory = "filesystem store root is not a directory"
	ErrMsgStoreCreateRootFailed = "failed to create filesystem store root"
)

// Sentinel causes, reachable with errors.Is through store errors
var (
	ErrSourceNotFound = errors.New(ErrMsgSourceNotFound)
	ErrStoreClosed    = errors.New(ErrMsgStoreClosed)
)

// NewSourceNotFoundError creates the error for a missing source path
func NewSourceNotFoundError(operation, path string) error {
	return NewStoreError(ErrMsgSourceNotFound, operation, path, ErrSourceNotFound)
}

// NewStoreClosedError creates the error for use after Close
func NewStoreClosedError(operation string) error {
	return NewStoreError(ErrMsgStoreClosed, operation, "", ErrStoreClosed)
}

var (
	storeDriversMu sync.RWMutex
	storeDrivers   = make(map[string]StoreDriver)
)

// RegisterStoreDriver registers a store driver by name.
// This is typically called from a driver's init() function.
// Panics if a driver with the same name is already registered.
func RegisterStoreDriver(name string, driver StoreDriver) {
	storeDriversMu.Lock()
	defer storeDriversMu.Unlock()

	if driver == nil {
		panic(ErrMsgNilStoreDriver)
	}
	if _, exists := storeDrivers[name]; exists {
		panic(ErrMsgStoreDriverRegistered + ": " + name)
	}
	storeDrivers[name] = driver
}

// OpenStore opens a store using the named driver.
//
// Example:
//
//	store, err := glaze.OpenStore("memory", "")
//	store, err := glaze.OpenStore("filesystem", "/path/to/templates")
//	store, err := glaze.OpenStore("sqlite", "file:templates.db")
func OpenStore(driverName, connectionString string) (SourceStore, error) {
	storeDriversMu.RLock()
	driver, ok := storeDrivers[driverName]
	storeDriversMu.RUnlock()

	if !ok {
		return nil, newCategorized(CategoryStore, ErrCodeStore, ErrMsgStoreDriverNotFound, nil).
			WithMetadata(MetaKeyOperation, StoreOpOpen).
			WithMetadata(MetaKeyDriver, driverName)
	}

	return driver.Open(connectionString)
}

// ListStoreDrivers returns the names of all registered store drivers, sorted.
func ListStoreDrivers() []string {
	storeDriversMu.RLock()
	defer storeDriversMu.RUnlock()

	names := make([]string, 0, len(storeDrivers))
	for name := range storeDrivers {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
