package database

import (
	"context"
	"embed"
	"errors"
	"fmt"
	"io/fs"

	"github.com/pressly/goose/v3"

	"github.com/mkrupp/inventory-tracker/internal/domain"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// Migrate applies all pending schema migrations. Applying an up-to-date
// database is a no-op.
func (db *DB) Migrate(ctx context.Context) error {
	provider, err := db.migrationProvider()
	if err != nil {
		return err
	}

	results, err := provider.Up(ctx)
	if err != nil {
		return errors.Join(domain.ErrStorageUnavailable, fmt.Errorf("migrate up: %w", err))
	}

	for _, result := range results {
		db.log.InfoContext(ctx, "migration applied",
			"version", result.Source.Version,
			"file", result.Source.Path,
			"duration", result.Duration,
		)
	}

	return nil
}

// SchemaVersion returns the version of the latest applied migration.
func (db *DB) SchemaVersion(ctx context.Context) (int64, error) {
	provider, err := db.migrationProvider()
	if err != nil {
		return 0, err
	}

	version, err := provider.GetDBVersion(ctx)
	if err != nil {
		return 0, errors.Join(domain.ErrStorageUnavailable, fmt.Errorf("get db version: %w", err))
	}

	return version, nil
}

func (db *DB) migrationProvider() (*goose.Provider, error) {
	fsys, err := fs.Sub(migrationsFS, "migrations")
	if err != nil {
		return nil, fmt.Errorf("migrations fs: %w", err)
	}

	provider, err := goose.NewProvider(goose.DialectSQLite3, db.db, fsys)
	if err != nil {
		return nil, fmt.Errorf("new migration provider: %w", err)
	}

	return provider, nil
}
