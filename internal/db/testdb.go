package db

import (
	"database/sql"
	"path/filepath"
	"testing"
	"time"
)

// NewTestDB creates a fresh SQLite database in a temporary directory with the
// schema applied. A file is used instead of :memory: so that every connection
// in the pool sees the same database.
func NewTestDB(t *testing.T) *sql.DB {
	t.Helper()

	db, err := Open(filepath.Join(t.TempDir(), "test.sqlite3"))
	if err != nil {
		t.Fatalf("opening test database: %v", err)
	}

	if err := EnsureSchema(db); err != nil {
		db.Close()
		t.Fatalf("creating test database schema: %v", err)
	}

	t.Cleanup(func() { db.Close() })

	return db
}

// NewTestStore wraps NewTestDB in a Store with a small pool.
func NewTestStore(t *testing.T) *Store {
	t.Helper()
	return NewStore(NewTestDB(t), 4, 2*time.Second)
}
