package glaze

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sync"
	"time"
)

// SQLStoreConfig configures the database-backed store drivers.
type SQLStoreConfig struct {
	// ConnectionString is the driver DSN.
	ConnectionString string

	// MaxOpenConns is the maximum number of open connections.
	MaxOpenConns int

	// MaxIdleConns is the maximum number of idle connections.
	MaxIdleConns int

	// ConnMaxLifetime is the maximum connection lifetime.
	ConnMaxLifetime time.Duration

	// ConnMaxIdleTime is the maximum idle time for connections.
	ConnMaxIdleTime time.Duration

	// TablePrefix allows customizing the table name prefix.
	// Default: "glaze_"
	TablePrefix string

	// AutoMigrate runs schema migrations on open.
	AutoMigrate bool

	// QueryTimeout is the default timeout for queries.
	// Default: 30 seconds
	QueryTimeout time.Duration
}

// SQL store defaults
const (
	SQLTablePrefix            = "glaze_"
	SQLDefaultMaxOpenConns    = 25
	SQLDefaultMaxIdleConns    = 5
	SQLDefaultConnMaxLifetime = 5 * time.Minute
	SQLDefaultConnMaxIdleTime = 5 * time.Minute
	SQLDefaultQueryTimeout    = 30 * time.Second
)

// sqlDialect captures what differs between the supported databases.
type sqlDialect struct {
	driverName  string
	placeholder func(n int) string
}

// SQLStore implements SourceStore on database/sql. It backs both the
// postgres and sqlite drivers.
type SQLStore struct {
	db      *sql.DB
	config  SQLStoreConfig
	dialect sqlDialect
	mu      sync.RWMutex
	closed  bool
}

func applySQLDefaults(config SQLStoreConfig) SQLStoreConfig {
	if config.MaxOpenConns == 0 {
		config.MaxOpenConns = SQLDefaultMaxOpenConns
	}
	if config.MaxIdleConns == 0 {
		config.MaxIdleConns = SQLDefaultMaxIdleConns
	}
	if config.ConnMaxLifetime == 0 {
		config.ConnMaxLifetime = SQLDefaultConnMaxLifetime
	}
	if config.ConnMaxIdleTime == 0 {
		config.ConnMaxIdleTime = SQLDefaultConnMaxIdleTime
	}
	if config.TablePrefix == "" {
		config.TablePrefix = SQLTablePrefix
	}
	if config.QueryTimeout == 0 {
		config.QueryTimeout = SQLDefaultQueryTimeout
	}
	return config
}

// openSQLStore connects, verifies and optionally migrates a SQL store.
func openSQLStore(config SQLStoreConfig, dialect sqlDialect) (*SQLStore, error) {
	if config.ConnectionString == "" {
		return nil, newCategorized(CategoryStore, ErrCodeStore, ErrMsgStoreEmptyConnString, nil).
			WithMetadata(MetaKeyOperation, StoreOpOpen).
			WithMetadata(MetaKeyDriver, dialect.driverName)
	}
	config = applySQLDefaults(config)

	db, err := sql.Open(dialect.driverName, config.ConnectionString)
	if err != nil {
		return nil, NewStoreError(ErrMsgStoreConnectionFailed, StoreOpOpen, "", err)
	}

	db.SetMaxOpenConns(config.MaxOpenConns)
	db.SetMaxIdleConns(config.MaxIdleConns)
	db.SetConnMaxLifetime(config.ConnMaxLifetime)
	db.SetConnMaxIdleTime(config.ConnMaxIdleTime)

	ctx, cancel := context.WithTimeout(context.Background(), config.QueryTimeout)
	defer cancel()

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, NewStoreError(ErrMsgStoreConnectionFailed, StoreOpOpen, "", err)
	}

	store := &SQLStore{db: db, config: config, dialect: dialect}
	if config.AutoMigrate {
		if err := store.RunMigrations(ctx); err != nil {
			db.Close()
			return nil, err
		}
	}
	return store, nil
}

// tableName returns the sources table name with prefix.
func (s *SQLStore) tableName() string {
	return s.config.TablePrefix + "sources"
}

// migrationsTableName returns the migrations table name with prefix.
func (s *SQLStore) migrationsTableName() string {
	return s.config.TablePrefix + "schema_migrations"
}

func (s *SQLStore) ph(n int) string {
	return s.dialect.placeholder(n)
}

// Fetch selects the source at path.
func (s *SQLStore) Fetch(ctx context.Context, path string) (*Source, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.closed {
		return nil, NewStoreClosedError(StoreOpFetch)
	}

	ctx, cancel := context.WithTimeout(ctx, s.config.QueryTimeout)
	defer cancel()

	query := fmt.Sprintf(`SELECT path, data, updated_at FROM %s WHERE path = %s`, s.tableName(), s.ph(1))

	var src Source
	var updated int64
	err := s.db.QueryRowContext(ctx, query, path).Scan(&src.Path, &src.Data, &updated)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, NewSourceNotFoundError(StoreOpFetch, path)
		}
		return nil, NewStoreError(ErrMsgStoreQueryFailed, StoreOpFetch, path, err)
	}
	src.UpdatedAt = time.Unix(0, updated)
	return &src, nil
}

// Put upserts the source at path.
func (s *SQLStore) Put(ctx context.Context, path, data string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := validateSourcePath(StoreOpPut, path); err != nil {
		return err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.closed {
		return NewStoreClosedError(StoreOpPut)
	}

	ctx, cancel := context.WithTimeout(ctx, s.config.QueryTimeout)
	defer cancel()

	query := fmt.Sprintf(`
		INSERT INTO %s (path, data, updated_at) VALUES (%s, %s, %s)
		ON CONFLICT (path) DO UPDATE SET data = excluded.data, updated_at = excluded.updated_at`,
		s.tableName(), s.ph(1), s.ph(2), s.ph(3))

	if _, err := s.db.ExecContext(ctx, query, path, data, time.Now().UnixNano()); err != nil {
		return NewStoreError(ErrMsgStoreQueryFailed, StoreOpPut, path, err)
	}
	return nil
}

// Delete removes the source at path.
func (s *SQLStore) Delete(ctx context.Context, path string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.closed {
		return NewStoreClosedError(StoreOpDelete)
	}

	ctx, cancel := context.WithTimeout(ctx, s.config.QueryTimeout)
	defer cancel()

	query := fmt.Sprintf(`DELETE FROM %s WHERE path = %s`, s.tableName(), s.ph(1))
	result, err := s.db.ExecContext(ctx, query, path)
	if err != nil {
		return NewStoreError(ErrMsgStoreQueryFailed, StoreOpDelete, path, err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return NewStoreError(ErrMsgStoreQueryFailed, StoreOpDelete, path, err)
	}
	if affected == 0 {
		return NewSourceNotFoundError(StoreOpDelete, path)
	}
	return nil
}

// List selects every path and filters it with the glob pattern.
func (s *SQLStore) List(ctx context.Context, pattern string) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.closed {
		return nil, NewStoreClosedError(StoreOpList)
	}

	ctx, cancel := context.WithTimeout(ctx, s.config.QueryTimeout)
	defer cancel()

	rows, err := s.db.QueryContext(ctx, fmt.Sprintf(`SELECT path FROM %s ORDER BY path`, s.tableName()))
	if err != nil {
		return nil, NewStoreError(ErrMsgStoreQueryFailed, StoreOpList, pattern, err)
	}
	defer rows.Close()

	var paths []string
	for rows.Next() {
		var path string
		if err := rows.Scan(&path); err != nil {
			return nil, NewStoreError(ErrMsgStoreQueryFailed, StoreOpList, pattern, err)
		}
		paths = append(paths, path)
	}
	if err := rows.Err(); err != nil {
		return nil, NewStoreError(ErrMsgStoreQueryFailed, StoreOpList, pattern, err)
	}
	return filterPaths(pattern, paths)
}

// Close releases database connections.
func (s *SQLStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return NewStoreClosedError(StoreOpClose)
	}
	s.closed = true
	return s.db.Close()
}

// sqlMigration represents a schema migration.
type sqlMigration struct {
	Version     int
	Description string
	SQL         string
}

// getMigrations returns all available migrations.
func (s *SQLStore) getMigrations() []sqlMigration {
	return []sqlMigration{
		{
			Version:     1,
			Description: "create sources table",
			SQL: fmt.Sprintf(`
				CREATE TABLE IF NOT EXISTS %s (
					path       TEXT PRIMARY KEY,
					data       TEXT NOT NULL,
					updated_at BIGINT NOT NULL
				)`, s.tableName()),
		},
	}
}

// RunMigrations applies pending schema migrations.
func (s *SQLStore) RunMigrations(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, fmt.Sprintf(`
		CREATE TABLE IF NOT EXISTS %s (
			version     INTEGER PRIMARY KEY,
			applied_at  BIGINT NOT NULL,
			description VARCHAR(255)
		)`, s.migrationsTableName()))
	if err != nil {
		return NewStoreError(ErrMsgStoreMigrationFailed, StoreOpMigrate, "", err)
	}

	applied := make(map[int]bool)
	rows, err := s.db.QueryContext(ctx, fmt.Sprintf("SELECT version FROM %s", s.migrationsTableName()))
	if err != nil {
		return NewStoreError(ErrMsgStoreMigrationFailed, StoreOpMigrate, "", err)
	}
	for rows.Next() {
		var v int
		if err := rows.Scan(&v); err != nil {
			rows.Close()
			return NewStoreError(ErrMsgStoreMigrationFailed, StoreOpMigrate, "", err)
		}
		applied[v] = true
	}
	rows.Close()

	for _, m := range s.getMigrations() {
		if applied[m.Version] {
			continue
		}

		tx, err := s.db.BeginTx(ctx, nil)
		if err != nil {
			return NewStoreError(ErrMsgStoreMigrationFailed, StoreOpMigrate, "", err)
		}
		if _, err := tx.ExecContext(ctx, m.SQL); err != nil {
			_ = tx.Rollback()
			return NewStoreError(ErrMsgStoreMigrationFailed, StoreOpMigrate, "",
				fmt.Errorf("migration %d failed: %w", m.Version, err))
		}
		insert := fmt.Sprintf("INSERT INTO %s (version, applied_at, description) VALUES (%s, %s, %s)",
			s.migrationsTableName(), s.ph(1), s.ph(2), s.ph(3))
		if _, err := tx.ExecContext(ctx, insert, m.Version, time.Now().UnixNano(), m.Description); err != nil {
			_ = tx.Rollback()
			return NewStoreError(ErrMsgStoreMigrationFailed, StoreOpMigrate, "", err)
		}
		if err := tx.Commit(); err != nil {
			return NewStoreError(ErrMsgStoreMigrationFailed, StoreOpMigrate, "", err)
		}
	}
	return nil
}

// CurrentSchemaVersion returns the highest applied migration version.
func (s *SQLStore) CurrentSchemaVersion(ctx context.Context) (int, error) {
	var version sql.NullInt64
	err := s.db.QueryRowContext(ctx,
		fmt.Sprintf("SELECT MAX(version) FROM %s", s.migrationsTableName())).Scan(&version)
	if err != nil {
		return 0, NewStoreError(ErrMsgStoreQueryFailed, StoreOpMigrate, "", err)
	}
	if !version.Valid {
		return 0, nil
	}
	return int(version.Int64), nil
}
