// Package dbtest opens throwaway in-memory databases for tests.
package dbtest

import (
	"testing"

	"github.com/blog-api/internal/database"
	"github.com/glebarez/sqlite"
	"github.com/rs/zerolog"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

// New returns a migrated in-memory SQLite database closed at test end
func New(t testing.TB) *database.DB {
	t.Helper()

	gdb, err := gorm.Open(sqlite.Open("file::memory:"), &gorm.Config{
		Logger: gormlogger.Discard,
	})
	if err != nil {
		t.Fatalf("failed to open sqlite: %v", err)
	}

	sqlDB, err := gdb.DB()
	if err != nil {
		t.Fatalf("failed to get sql handle: %v", err)
	}
	// every connection to file::memory: is a separate database
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { sqlDB.Close() })

	db, err := database.Wrap(gdb, zerolog.Nop())
	if err != nil {
		t.Fatalf("failed to wrap database: %v", err)
	}
	if err := db.AutoMigrate(); err != nil {
		t.Fatalf("failed to migrate: %v", err)
	}
	return db
}
