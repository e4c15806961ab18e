// Package dbtest opens throwaway databases for tests.
package dbtest

import (
	"testing"

	"warbler/database"

	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

// Open returns a migrated in-memory SQLite database that lives as long as t.
func Open(t testing.TB) *gorm.DB {
	t.Helper()

	db, err := database.Open(":memory:")
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	// Every connection to :memory: is its own database.
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	require.NoError(t, database.Migrate(db))
	require.NoError(t, database.Reset(db))
	return db
}
