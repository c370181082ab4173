package db

import (
	"context"
	"database/sql"
	"errors"
	"path/filepath"
	"strings"
	"testing"

	"pgregory.net/rapid"
)

var testKey = strings.Repeat("0f", KeyLen)

func openMemory(t *testing.T) *DB {
	t.Helper()
	d, err := Open(MemoryPath, testKey)
	if err != nil {
		t.Fatalf("Open(memory) failed: %v", err)
	}
	t.Cleanup(func() { _ = d.Close() })
	return d
}

func TestOpen_SeedsFixedTree(t *testing.T) {
	d := openMemory(t)

	for _, id := range []string{RootNodeID, SitesNodeID, UserHomesNodeID} {
		var name string
		if err := d.SQL().QueryRow(`SELECT name FROM nodes WHERE id = ?`, id).Scan(&name); err != nil {
			t.Fatalf("seed node %s missing: %v", id, err)
		}
	}
}

func TestOpen_RejectsShortKey(t *testing.T) {
	if _, err := Open(MemoryPath, "abcd"); err == nil {
		t.Fatal("expected error for short key")
	}
}

func TestOpen_MemoryDatabasesAreIsolated(t *testing.T) {
	a := openMemory(t)
	b := openMemory(t)

	if _, err := a.SQL().Exec(`INSERT INTO people (id, password_hash, created_at) VALUES ('only-in-a', 'x', 0)`); err != nil {
		t.Fatalf("insert failed: %v", err)
	}
	var n int
	if err := b.SQL().QueryRow(`SELECT COUNT(*) FROM people`).Scan(&n); err != nil {
		t.Fatalf("count failed: %v", err)
	}
	if n != 0 {
		t.Fatalf("second memory database sees %d people", n)
	}
}

func TestOpen_FileReopenWithWrongKeyFails(t *testing.T) {
	path := filepath.Join(t.TempDir(), "data", "content.db")
	d, err := Open(path, testKey)
	if err != nil {
		t.Fatalf("Open(file) failed: %v", err)
	}
	if d.Path() != path {
		t.Fatalf("Path() = %q", d.Path())
	}
	if err := d.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}

	if _, err := Open(path, strings.Repeat("11", KeyLen)); err == nil {
		t.Fatal("expected wrong key to fail verification")
	}

	again, err := Open(path, testKey)
	if err != nil {
		t.Fatalf("reopen with correct key failed: %v", err)
	}
	_ = again.Close()
}

func TestInTx_RollsBackOnError(t *testing.T) {
	d := openMemory(t)
	ctx := context.Background()
	boom := errors.New("boom")

	err := d.InTx(ctx, func(tx *sql.Tx) error {
		if _, err := tx.Exec(`INSERT INTO people (id, password_hash, created_at) VALUES ('rolled-back', 'x', 0)`); err != nil {
			return err
		}
		return boom
	})
	if !errors.Is(err, boom) {
		t.Fatalf("InTx error = %v, want boom", err)
	}

	var n int
	if err := d.SQL().QueryRow(`SELECT COUNT(*) FROM people WHERE id = 'rolled-back'`).Scan(&n); err != nil {
		t.Fatalf("count failed: %v", err)
	}
	if n != 0 {
		t.Fatal("insert survived rollback")
	}
}

func TestSiblingNamesUniqueByCasefold(t *testing.T) {
	d := openMemory(t)

	insert := `INSERT INTO nodes (id, parent_id, name, name_key, created_by, created_at, modified_at)
		VALUES (?, ?, ?, casefold(?), 'admin', 0, 0)`
	if _, err := d.SQL().Exec(insert, "n1", RootNodeID, "Reports", "Reports"); err != nil {
		t.Fatalf("first insert failed: %v", err)
	}
	if _, err := d.SQL().Exec(insert, "n2", RootNodeID, "REPORTS", "REPORTS"); err == nil {
		t.Fatal("expected unique violation for case-insensitive duplicate")
	}
	if _, err := d.SQL().Exec(insert, "n3", SitesNodeID, "REPORTS", "REPORTS"); err != nil {
		t.Fatalf("same name under another parent should succeed: %v", err)
	}
}

func TestCasefold_SQLMatchesGo(t *testing.T) {
	d := openMemory(t)

	rapid.Check(t, func(t *rapid.T) {
		s := rapid.StringMatching(`[A-Za-z0-9ÀÉÖäöü ._-]{0,24}`).Draw(t, "s")
		var got string
		if err := d.SQL().QueryRow(`SELECT casefold(?)`, s).Scan(&got); err != nil {
			t.Fatalf("casefold query failed: %v", err)
		}
		if got != Casefold(s) {
			t.Fatalf("casefold(%q) = %q, want %q", s, got, Casefold(s))
		}
	})
}
