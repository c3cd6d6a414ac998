package shared

import (
	"database/sql"
	"path/filepath"
	"testing"
)

func newTestDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := NewDatabase(":memory:")
	if err != nil {
		t.Fatalf("failed to create database: %v", err)
	}
	ConfigureDatabase(db, 1, 1)
	t.Cleanup(func() { db.Close() })
	return db
}

func TestOpenDatabase(t *testing.T) {
	t.Run("creates and migrates a file database", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "data", "mm.db")
		db, err := OpenDatabase(DatabaseConfig{Path: path, MaxOpenConns: 2, MaxIdleConns: 1})
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		defer db.Close()

		if _, err := db.Exec("SELECT 1 FROM session_snapshots"); err != nil {
			t.Errorf("expected migrated schema: %v", err)
		}
	})

	t.Run("ConfigureDatabase clamps non-positive values", func(t *testing.T) {
		db := newTestDB(t)
		ConfigureDatabase(db, 0, -1)
		if got := db.Stats().MaxOpenConnections; got != 1 {
			t.Errorf("expected max open connections 1, got %d", got)
		}
	})
}
