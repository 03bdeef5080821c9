package repository

import (
	"database/sql"
	"testing"

	_ "github.com/mattn/go-sqlite3"

	"github.com/hookloop/hookloop/internal/config"
	"github.com/hookloop/hookloop/internal/migrations"
)

// newTestDB opens an in-memory sqlite database and applies the embedded
// schema so repository SQL runs against the real migration, not a test copy.
func newTestDB(t *testing.T) *sql.DB {
	t.Helper()
	t.Setenv(config.DATABASE_TYPE, config.DATABASE_TYPE_SQLLITE)

	db, err := sql.Open("sqlite3", ":memory:")
	if err != nil {
		t.Fatalf("opening sqlite: %v", err)
	}
	// each sqlite :memory: connection is its own database
	db.SetMaxOpenConns(1)
	t.Cleanup(func() { db.Close() })

	schema, err := migrations.FS.ReadFile("sqllite3/000001_init.up.sql")
	if err != nil {
		t.Fatalf("reading embedded schema: %v", err)
	}
	if _, err := db.Exec(string(schema)); err != nil {
		t.Fatalf("applying schema: %v", err)
	}
	return db
}
