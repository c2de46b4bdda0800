package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite" // registers the "sqlite" driver

	"github.com/mkrupp/inventory-tracker/internal/domain"
	"github.com/mkrupp/inventory-tracker/internal/infra/logging"
)

const (
	driverName     = "sqlite"
	dirPermissions = 0o750
)

// Config holds configuration for the embedded SQLite database.
type Config struct {
	// Path is the filesystem path to the SQLite database file
	Path string `env:"PATH" default:"var/storage/inventory.db"`

	// BusyTimeout is how long a connection waits for a file lock held by another connection
	BusyTimeout time.Duration `env:"BUSY_TIMEOUT" default:"5s"`
}

// DB is the embedded database shared by the credential and session stores.
//
// Every logical operation acquires its own connection through WithConn and
// hands it back on return. Databases opened with Open keep no idle
// connections, so the database file is not held open between operations.
type DB struct {
	db   *sql.DB
	path string
	log  logging.Logger
}

// Open opens (and creates if needed) the SQLite database described by cfg and
// verifies it can be reached. Returns domain.ErrStorageUnavailable if not.
func Open(ctx context.Context, cfg Config) (*DB, error) {
	log := logging.GetLogger("infra.database").With(
		logging.Group("db", "path", cfg.Path),
	)

	if err := os.MkdirAll(filepath.Dir(cfg.Path), dirPermissions); err != nil {
		return nil, errors.Join(domain.ErrStorageUnavailable, fmt.Errorf("create db dir: %w", err))
	}

	sqlDB, err := sql.Open(driverName, dsn(cfg))
	if err != nil {
		return nil, errors.Join(domain.ErrStorageUnavailable, fmt.Errorf("open db: %w", err))
	}

	sqlDB.SetMaxIdleConns(0)
	sqlDB.SetConnMaxLifetime(5 * time.Minute)

	if err := sqlDB.PingContext(ctx); err != nil {
		_ = sqlDB.Close()

		return nil, errors.Join(domain.ErrStorageUnavailable, fmt.Errorf("ping db: %w", err))
	}

	log.DebugContext(ctx, "database opened")

	return &DB{
		db:   sqlDB,
		path: cfg.Path,
		log:  log,
	}, nil
}

// New wraps an already opened database handle. The pool settings of sqlDB are
// left untouched.
func New(sqlDB *sql.DB) *DB {
	return &DB{
		db:  sqlDB,
		log: logging.GetLogger("infra.database"),
	}
}

func dsn(cfg Config) string {
	return fmt.Sprintf("file:%s?_pragma=busy_timeout(%d)&_pragma=foreign_keys(1)",
		filepath.ToSlash(cfg.Path),
		cfg.BusyTimeout.Milliseconds(),
	)
}

// WithConn runs fn on a connection reserved for the duration of the call.
// The connection is released on every return path, including panics in fn.
// Failing to acquire a connection returns domain.ErrStorageUnavailable;
// errors returned by fn are passed through unchanged.
func (db *DB) WithConn(ctx context.Context, fn func(ctx context.Context, conn *sql.Conn) error) (err error) {
	conn, err := db.db.Conn(ctx)
	if err != nil {
		return errors.Join(domain.ErrStorageUnavailable, fmt.Errorf("acquire conn: %w", err))
	}

	defer func() {
		if cerr := conn.Close(); cerr != nil && err == nil {
			err = errors.Join(domain.ErrStorageUnavailable, fmt.Errorf("release conn: %w", cerr))
		}
	}()

	return fn(ctx, conn)
}

// HealthCheck verifies the database answers queries.
func (db *DB) HealthCheck(ctx context.Context) error {
	return db.WithConn(ctx, func(ctx context.Context, conn *sql.Conn) error {
		var one int
		if err := conn.QueryRowContext(ctx, "SELECT 1").Scan(&one); err != nil {
			return errors.Join(domain.ErrStorageUnavailable, fmt.Errorf("health check: %w", err))
		}

		return nil
	})
}

// Path returns the filesystem path of the database file, if known.
func (db *DB) Path() string {
	return db.path
}

// Stats returns the connection pool statistics.
func (db *DB) Stats() sql.DBStats {
	return db.db.Stats()
}

// Close closes the database handle.
func (db *DB) Close() error {
	if err := db.db.Close(); err != nil {
		return fmt.Errorf("close db: %w", err)
	}

	return nil
}
