// Package databasetest provides migrated throwaway databases for tests.
package databasetest

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/mkrupp/inventory-tracker/internal/infra/database"
)

// New opens a fresh, fully migrated database file in a temporary directory.
// The database is closed when the test completes.
func New(tb testing.TB) *database.DB {
	tb.Helper()

	ctx := context.Background()

	db, err := database.Open(ctx, database.Config{
		Path:        filepath.Join(tb.TempDir(), "inventory.db"),
		BusyTimeout: 5 * time.Second,
	})
	if err != nil {
		tb.Fatalf("open test db: %v", err)
	}

	tb.Cleanup(func() { _ = db.Close() })

	if err := db.Migrate(ctx); err != nil {
		tb.Fatalf("migrate test db: %v", err)
	}

	return db
}
