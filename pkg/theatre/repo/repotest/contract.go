// Package repotest holds the behaviour every theatre.Repository must share.
// Store packages run it from their own tests.
package repotest

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tendant/simple-theatre/pkg/theatre"
)

// Factory returns an empty repository for a single subtest.
type Factory func(t *testing.T) theatre.Repository

// NewItem builds an unsaved item with the given identity fields.
func NewItem(kind theatre.Kind, slug string, status theatre.Status, created time.Time) *theatre.Item {
	return &theatre.Item{
		Kind:          kind,
		Title:         slug,
		Slug:          slug,
		Status:        status,
		CommentStatus: "open",
		PingStatus:    "open",
		CreatedAt:     created,
		UpdatedAt:     created,
	}
}

// Run exercises newRepo against the shared repository contract.
func Run(t *testing.T, newRepo Factory) {
	t.Run("ItemOperations", func(t *testing.T) { testItemOperations(t, newRepo(t)) })
	t.Run("ListItems", func(t *testing.T) { testListItems(t, newRepo(t)) })
	t.Run("Metadata", func(t *testing.T) { testMetadata(t, newRepo(t)) })
}

func testItemOperations(t *testing.T, repo theatre.Repository) {
	ctx := context.Background()
	now := time.Now().UTC().Truncate(time.Microsecond)

	t.Run("CreateAssignsID", func(t *testing.T) {
		item := NewItem(theatre.KindPage, "about", theatre.StatusPublished, now)
		require.NoError(t, repo.CreateItem(ctx, item))
		assert.NotEqual(t, uuid.Nil, item.ID)

		got, err := repo.GetItem(ctx, item.ID)
		require.NoError(t, err)
		assert.Equal(t, "about", got.Slug)
		assert.Equal(t, theatre.KindPage, got.Kind)
		assert.True(t, now.Equal(got.CreatedAt))
		assert.Nil(t, got.ThumbnailID)
	})

	t.Run("KeepsThumbnail", func(t *testing.T) {
		thumb := uuid.New()
		item := NewItem(theatre.KindProduction, "with-thumb", theatre.StatusDraft, now)
		item.ThumbnailID = &thumb
		item.MenuOrder = 3
		require.NoError(t, repo.CreateItem(ctx, item))

		got, err := repo.GetItem(ctx, item.ID)
		require.NoError(t, err)
		require.NotNil(t, got.ThumbnailID)
		assert.Equal(t, thumb, *got.ThumbnailID)
		assert.Equal(t, 3, got.MenuOrder)
	})

	t.Run("SlugIsUniquePerKind", func(t *testing.T) {
		require.NoError(t, repo.CreateItem(ctx, NewItem(theatre.KindVenue, "hall", theatre.StatusPublished, now)))
		assert.Error(t, repo.CreateItem(ctx, NewItem(theatre.KindVenue, "hall", theatre.StatusPublished, now)))
		assert.NoError(t, repo.CreateItem(ctx, NewItem(theatre.KindByline, "hall", theatre.StatusPublished, now)))

		got, err := repo.GetItemBySlug(ctx, theatre.KindVenue, "hall")
		require.NoError(t, err)
		assert.Equal(t, theatre.KindVenue, got.Kind)
	})

	t.Run("Update", func(t *testing.T) {
		item := NewItem(theatre.KindProduction, "draft-show", theatre.StatusDraft, now)
		require.NoError(t, repo.CreateItem(ctx, item))

		item.Title = "Opening Night"
		item.Status = theatre.StatusPublished
		item.UpdatedAt = now.Add(time.Minute)
		require.NoError(t, repo.UpdateItem(ctx, item))

		got, err := repo.GetItem(ctx, item.ID)
		require.NoError(t, err)
		assert.Equal(t, "Opening Night", got.Title)
		assert.Equal(t, theatre.StatusPublished, got.Status)
	})

	t.Run("UpdateMissing", func(t *testing.T) {
		err := repo.UpdateItem(ctx, &theatre.Item{ID: uuid.New(), Kind: theatre.KindPage, Slug: "missing"})
		assert.ErrorIs(t, err, theatre.ErrNotFound)
	})

	t.Run("GetMissing", func(t *testing.T) {
		_, err := repo.GetItem(ctx, uuid.New())
		assert.ErrorIs(t, err, theatre.ErrNotFound)
		_, err = repo.GetItemBySlug(ctx, theatre.KindPage, "nope")
		assert.ErrorIs(t, err, theatre.ErrNotFound)
	})

	t.Run("DeleteRemovesMeta", func(t *testing.T) {
		item := NewItem(theatre.KindPage, "gone", theatre.StatusDraft, now)
		require.NoError(t, repo.CreateItem(ctx, item))
		require.NoError(t, repo.AddMeta(ctx, item.ID, "k", "v"))

		require.NoError(t, repo.DeleteItem(ctx, item.ID))

		_, err := repo.GetItem(ctx, item.ID)
		assert.ErrorIs(t, err, theatre.ErrNotFound)
		_, err = repo.GetMeta(ctx, item.ID)
		assert.ErrorIs(t, err, theatre.ErrNotFound)
		_, err = repo.GetItemBySlug(ctx, theatre.KindPage, "gone")
		assert.ErrorIs(t, err, theatre.ErrNotFound)
		assert.ErrorIs(t, repo.DeleteItem(ctx, item.ID), theatre.ErrNotFound)
	})
}

func testListItems(t *testing.T, repo theatre.Repository) {
	ctx := context.Background()
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

	var ids []uuid.UUID
	for i, slug := range []string{"a", "b", "c", "d"} {
		status := theatre.StatusPublished
		if slug == "c" {
			status = theatre.StatusDraft
		}
		item := NewItem(theatre.KindProduction, slug, status, base.Add(time.Duration(i)*time.Hour))
		require.NoError(t, repo.CreateItem(ctx, item))
		ids = append(ids, item.ID)
	}
	require.NoError(t, repo.CreateItem(ctx, NewItem(theatre.KindPage, "page", theatre.StatusPublished, base)))
	require.NoError(t, repo.AddMeta(ctx, ids[0], theatre.MetaFeatured, "1"))
	require.NoError(t, repo.AddMeta(ctx, ids[1], theatre.MetaFeatured, "0"))

	t.Run("NewestFirst", func(t *testing.T) {
		items, err := repo.ListItems(ctx, theatre.ItemQuery{Kinds: []theatre.Kind{theatre.KindProduction}})
		require.NoError(t, err)
		require.Len(t, items, 4)
		assert.Equal(t, "d", items[0].Slug)
		assert.Equal(t, "a", items[3].Slug)
	})

	t.Run("StatusFilter", func(t *testing.T) {
		items, err := repo.ListItems(ctx, theatre.ItemQuery{
			Kinds:    []theatre.Kind{theatre.KindProduction},
			Statuses: []theatre.Status{theatre.StatusPublished},
		})
		require.NoError(t, err)
		assert.Len(t, items, 3)
	})

	t.Run("SlugFilter", func(t *testing.T) {
		items, err := repo.ListItems(ctx, theatre.ItemQuery{
			Kinds: []theatre.Kind{theatre.KindProduction},
			Slug:  "b",
		})
		require.NoError(t, err)
		require.Len(t, items, 1)
		assert.Equal(t, ids[1], items[0].ID)
	})

	t.Run("MetaFilter", func(t *testing.T) {
		items, err := repo.ListItems(ctx, theatre.ItemQuery{MetaKey: theatre.MetaFeatured, MetaValue: "1"})
		require.NoError(t, err)
		require.Len(t, items, 1)
		assert.Equal(t, ids[0], items[0].ID)
	})

	t.Run("LimitOffset", func(t *testing.T) {
		items, err := repo.ListItems(ctx, theatre.ItemQuery{
			Kinds:  []theatre.Kind{theatre.KindProduction},
			Limit:  2,
			Offset: 1,
		})
		require.NoError(t, err)
		require.Len(t, items, 2)
		assert.Equal(t, "c", items[0].Slug)
		assert.Equal(t, "b", items[1].Slug)
	})
}

func testMetadata(t *testing.T, repo theatre.Repository) {
	ctx := context.Background()

	item := NewItem(theatre.KindPage, "meta", theatre.StatusDraft, time.Now().UTC())
	require.NoError(t, repo.CreateItem(ctx, item))

	require.NoError(t, repo.AddMeta(ctx, item.ID, "color", "red"))
	require.NoError(t, repo.AddMeta(ctx, item.ID, "tag", "one"))
	require.NoError(t, repo.AddMeta(ctx, item.ID, "tag", "two"))

	meta, err := repo.GetMeta(ctx, item.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{"one", "two"}, meta.Values("tag"))
	assert.Equal(t, []string{"color", "tag"}, meta.Keys())

	require.NoError(t, repo.SetMeta(ctx, item.ID, "tag", "three"))
	meta, err = repo.GetMeta(ctx, item.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{"three"}, meta.Values("tag"))

	require.NoError(t, repo.SetMeta(ctx, item.ID, "color"))
	meta, err = repo.GetMeta(ctx, item.ID)
	require.NoError(t, err)
	_, ok := meta.Get("color")
	assert.False(t, ok)

	assert.ErrorIs(t, repo.AddMeta(ctx, uuid.New(), "k", "v"), theatre.ErrNotFound)
	assert.ErrorIs(t, repo.SetMeta(ctx, uuid.New(), "k", "v"), theatre.ErrNotFound)
}
