package testutil

import (
	"database/sql"
	"testing"

	_ "modernc.org/sqlite"
)

// CreateInMemoryDB creates an in-memory SQLite database for testing
func CreateInMemoryDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := sql.Open("sqlite", ":memory:")
	if err != nil {
		t.Fatalf("Failed to create in-memory database: %v", err)
	}
	// A second pooled connection would see its own empty memory database
	db.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = db.Close() })
	return db
}

// CreateGlobalStoreDB creates an in-memory database with the cursorDiskKV
// table Cursor's global storage uses.
func CreateGlobalStoreDB(t *testing.T) *sql.DB {
	t.Helper()
	db := CreateInMemoryDB(t)

	createTableSQL := `
	CREATE TABLE IF NOT EXISTS cursorDiskKV (
		key TEXT PRIMARY KEY,
		value TEXT
	)`
	if _, err := db.Exec(createTableSQL); err != nil {
		t.Fatalf("Failed to create cursorDiskKV table: %v", err)
	}
	return db
}

// InsertKV inserts one key/value row into cursorDiskKV
func InsertKV(t *testing.T, db *sql.DB, key, value string) {
	t.Helper()
	if _, err := db.Exec("INSERT OR REPLACE INTO cursorDiskKV (key, value) VALUES (?, ?)", key, value); err != nil {
		t.Fatalf("Failed to insert key %s: %v", key, err)
	}
}
