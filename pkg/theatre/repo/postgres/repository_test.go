package postgres_test

import (
	"context"
	"os"
	"testing"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/require"
	"github.com/tendant/simple-theatre/pkg/theatre"
	"github.com/tendant/simple-theatre/pkg/theatre/repo/postgres"
	"github.com/tendant/simple-theatre/pkg/theatre/repo/repotest"
)

// TestDB represents a test database connection
type TestDB struct {
	Pool *pgxpool.Pool
}

// NewTestDB connects to TEST_DATABASE_URL and skips the test when it is unset
func NewTestDB(t *testing.T) *TestDB {
	t.Helper()

	connString := os.Getenv("TEST_DATABASE_URL")
	if connString == "" {
		t.Skip("TEST_DATABASE_URL not set")
	}

	ctx := context.Background()
	pool, err := pgxpool.New(ctx, connString)
	require.NoError(t, err, "Failed to connect to test database")
	require.NoError(t, pool.Ping(ctx), "Failed to ping test database")

	return &TestDB{Pool: pool}
}

// Cleanup removes all test data from the database
func (db *TestDB) Cleanup(t *testing.T) {
	t.Helper()
	_, err := db.Pool.Exec(context.Background(), "TRUNCATE theatre_item_meta, theatre_item CASCADE")
	require.NoError(t, err, "Failed to truncate theatre tables")
}

// RunTest runs a test with database setup and cleanup
func RunTest(t *testing.T, testFunc func(t *testing.T, db *TestDB)) {
	t.Helper()

	if testing.Short() {
		t.Skip("Skipping database test in short mode")
	}

	db := NewTestDB(t)
	defer db.Pool.Close()

	require.NoError(t, postgres.NewWithPool(db.Pool).Migrate(context.Background()))

	testFunc(t, db)
}

func TestPostgresRepository(t *testing.T) {
	RunTest(t, func(t *testing.T, db *TestDB) {
		repotest.Run(t, func(t *testing.T) theatre.Repository {
			db.Cleanup(t)
			return postgres.NewWithPool(db.Pool)
		})
	})
}

func TestPostgresRepository_MigrateIsIdempotent(t *testing.T) {
	RunTest(t, func(t *testing.T, db *TestDB) {
		require.NoError(t, postgres.New(db.Pool).Migrate(context.Background()))
	})
}
