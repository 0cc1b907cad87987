package testutil

import (
	"database/sql"
	"os"
	"testing"

	"github.com/propdesk/propdesk/internal/config"
	"github.com/propdesk/propdesk/internal/db"
)

// OpenTestDB connects to the postgres instance named by TEST_DB_HOST,
// applies migrations and truncates all tables so each test starts clean.
// Without TEST_DB_HOST the calling test is skipped.
func OpenTestDB(t *testing.T) (*sql.DB, func()) {
	t.Helper()
	host := os.Getenv("TEST_DB_HOST")
	if host == "" {
		t.Skip("TEST_DB_HOST not set, skipping postgres test")
	}
	conn, err := db.Open(config.DatabaseConfig{
		Host:     host,
		Port:     5432,
		User:     "propdesk",
		Password: "propdesk_pass",
		DBName:   "propdesk_test",
		SSLMode:  "disable",
	})
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	if err := db.ApplyMigrations(conn); err != nil {
		t.Fatalf("migrations: %v", err)
	}
	if _, err := conn.Exec(`TRUNCATE documents, chunks, conversations, messages, embedding_cache, retention_runs CASCADE`); err != nil {
		t.Fatalf("truncate: %v", err)
	}
	return conn, func() {
		_ = conn.Close()
	}
}
