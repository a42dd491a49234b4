package glaze

import (
	_ "modernc.org/sqlite" // pure Go SQLite driver
)

// SQLite driver constants
const (
	SQLiteDriverName   = "sqlite"
	SQLitePlaceholder  = "?"
	SQLiteMaxOpenConns = 1
)

var sqliteDialect = sqlDialect{
	driverName:  SQLiteDriverName,
	placeholder: func(int) string { return SQLitePlaceholder },
}

// SQLiteStoreDriver is the driver for creating SQLite-backed stores.
type SQLiteStoreDriver struct{}

func init() {
	RegisterStoreDriver(StoreDriverNameSQLite, &SQLiteStoreDriver{})
}

// Open creates a SQLite store from a file name or DSN and migrates its schema.
func (d *SQLiteStoreDriver) Open(connectionString string) (SourceStore, error) {
	config := DefaultSQLiteConfig()
	config.ConnectionString = connectionString
	config.AutoMigrate = true
	return NewSQLiteStore(config)
}

// DefaultSQLiteConfig returns defaults for SQLite. A single connection keeps
// writers serialized and in-memory databases shared.
func DefaultSQLiteConfig() SQLStoreConfig {
	return SQLStoreConfig{
		MaxOpenConns:    SQLiteMaxOpenConns,
		MaxIdleConns:    SQLiteMaxOpenConns,
		ConnMaxLifetime: SQLDefaultConnMaxLifetime,
		ConnMaxIdleTime: SQLDefaultConnMaxIdleTime,
		TablePrefix:     SQLTablePrefix,
		AutoMigrate:     false,
		QueryTimeout:    SQLDefaultQueryTimeout,
	}
}

// NewSQLiteStore opens a SQLite database with modernc.org/sqlite.
func NewSQLiteStore(config SQLStoreConfig) (*SQLStore, error) {
	return openSQLStore(config, sqliteDialect)
}
