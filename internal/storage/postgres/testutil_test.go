package postgres

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
)

// setupTestDB creates a PostgreSQL container for testing and applies the
// schema. Returns a cleanup function that must be called after tests complete.
func setupTestDB(t *testing.T) (*Pool, func()) {
	t.Helper()

	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}

	ctx := context.Background()

	container, err := postgres.Run(ctx, "postgres:15-alpine",
		postgres.WithDatabase("testdb"),
		postgres.WithUsername("test"),
		postgres.WithPassword("test"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(60*time.Second),
		),
	)
	require.NoError(t, err, "failed to start postgres container")

	dsn, err := container.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err, "failed to get connection string")

	pool, err := NewPool(ctx, dsn)
	require.NoError(t, err, "failed to create pool")

	// Schema applied inline: the migrations package imports this one, so the
	// tests cannot call the migration runner without a cycle.
	_, err = pool.Exec(ctx, `
		CREATE TABLE IF NOT EXISTS users (
			user_id        TEXT PRIMARY KEY,
			target_address TEXT NOT NULL DEFAULT '',
			wallet_pubkey  TEXT NOT NULL DEFAULT '',
			usage_count    BIGINT NOT NULL DEFAULT 0 CHECK (usage_count >= 0),
			quota_limit    BIGINT NOT NULL DEFAULT 2 CHECK (quota_limit >= 0),
			created_at     BIGINT NOT NULL DEFAULT 0
		)
	`)
	require.NoError(t, err, "failed to create users table")

	cleanup := func() {
		pool.Close()
		if err := container.Terminate(ctx); err != nil {
			t.Logf("failed to terminate container: %v", err)
		}
	}

	return pool, cleanup
}
