package repository

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/dharsanguruparan/DocFlow/internal/database"
)

// testPool connects to DOCFLOW_TEST_DATABASE_URL and empties every table.
// Tests using it are skipped when the variable is unset.
func testPool(t *testing.T) *pgxpool.Pool {
	t.Helper()
	dsn := os.Getenv("DOCFLOW_TEST_DATABASE_URL")
	if dsn == "" {
		t.Skip("DOCFLOW_TEST_DATABASE_URL not set")
	}
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	pool, err := database.Connect(ctx, dsn)
	if err != nil {
		t.Fatalf("connect: %v", err)
	}
	t.Cleanup(pool.Close)
	if err := database.EnsureSchema(ctx, pool); err != nil {
		t.Fatalf("schema: %v", err)
	}
	if _, err := pool.Exec(ctx, `TRUNCATE role_operations, roles, operations, attachments, documents RESTART IDENTITY CASCADE`); err != nil {
		t.Fatalf("truncate: %v", err)
	}
	return pool
}

func TestPostgresContract(t *testing.T) {
	runStoreContract(t, func(t *testing.T) Store { return NewPostgres(testPool(t)) })
}

func TestPostgresRoles(t *testing.T) {
	runRoleContract(t, NewPostgres(testPool(t)))
}
