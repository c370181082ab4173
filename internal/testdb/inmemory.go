// Package testdb provides in-memory encrypted databases for tests.
package testdb

import (
	"database/sql"
	"strings"
	"testing"

	"github.com/kuitang/content-e2e/internal/db"
)

// Key is the SQLCipher key used by every test database.
var Key = strings.Repeat("ab", db.KeyLen)

// New opens a fresh in-memory database and closes it when t finishes.
func New(t testing.TB) *db.DB {
	t.Helper()

	d, err := db.Open(db.MemoryPath, Key)
	if err != nil {
		t.Fatalf("failed to open in-memory database: %v", err)
	}
	if err := applyFastSQLitePragmas(d.SQL()); err != nil {
		d.Close()
		t.Fatalf("failed to apply fast SQLite pragmas: %v", err)
	}
	t.Cleanup(func() { _ = d.Close() })
	return d
}

func applyFastSQLitePragmas(sqlDB *sql.DB) error {
	pragmas := []string{
		"PRAGMA journal_mode=MEMORY",
		"PRAGMA synchronous=OFF",
		"PRAGMA temp_store=MEMORY",
		"PRAGMA secure_delete=OFF",
	}
	for _, pragma := range pragmas {
		if _, err := sqlDB.Exec(pragma); err != nil {
			return err
		}
	}
	return nil
}
