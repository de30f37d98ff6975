package testutil

import (
	"context"
	"database/sql"
	"os"
	"testing"
	"time"

	"intelhub/internal/db"
)

const (
	EnvDSN    = "INTELHUB_TEST_DB_DSN"
	EnvDriver = "INTELHUB_TEST_DB_DRIVER"
)

// MustDB opens the test database with the schema applied and the users table
// emptied. The test is skipped when INTELHUB_TEST_DB_DSN is unset.
func MustDB(t *testing.T) *sql.DB {
	t.Helper()
	dsn := os.Getenv(EnvDSN)
	if dsn == "" {
		t.Skipf("%s not set", EnvDSN)
	}
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	conn, err := db.Open(ctx, os.Getenv(EnvDriver), dsn)
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}
	t.Cleanup(func() { _ = conn.Close() })

	if err := db.RunMigrations(ctx, conn); err != nil {
		t.Fatalf("migrate test db: %v", err)
	}
	Reset(t, conn)
	return conn
}

func Reset(t *testing.T, conn *sql.DB) {
	t.Helper()
	if _, err := conn.Exec(`TRUNCATE users`); err != nil {
		t.Fatalf("reset users: %v", err)
	}
}
