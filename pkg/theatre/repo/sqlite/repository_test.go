package sqlite_test

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tendant/simple-theatre/pkg/theatre"
	"github.com/tendant/simple-theatre/pkg/theatre/repo/repotest"
	"github.com/tendant/simple-theatre/pkg/theatre/repo/sqlite"
)

func setupTestRepo(t *testing.T) *sqlite.Repository {
	t.Helper()
	repo, err := sqlite.Open(context.Background(), ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { repo.Close() })
	return repo
}

func TestSQLiteRepository(t *testing.T) {
	repotest.Run(t, func(t *testing.T) theatre.Repository {
		return setupTestRepo(t)
	})
}

func TestSQLiteRepository_PersistsAcrossOpen(t *testing.T) {
	ctx := context.Background()
	dsn := filepath.Join(t.TempDir(), "theatre.db")

	repo, err := sqlite.Open(ctx, dsn)
	require.NoError(t, err)
	item := repotest.NewItem(theatre.KindVenue, "globe", theatre.StatusPublished, time.Now().UTC())
	require.NoError(t, repo.CreateItem(ctx, item))
	require.NoError(t, repo.AddMeta(ctx, item.ID, "capacity", "1500"))
	require.NoError(t, repo.Close())

	reopened, err := sqlite.Open(ctx, dsn)
	require.NoError(t, err)
	defer reopened.Close()

	got, err := reopened.GetItemBySlug(ctx, theatre.KindVenue, "globe")
	require.NoError(t, err)
	assert.Equal(t, item.ID, got.ID)
	assert.True(t, item.CreatedAt.Equal(got.CreatedAt))

	meta, err := reopened.GetMeta(ctx, item.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{"1500"}, meta.Values("capacity"))
}
