package theatre_test

import (
	"context"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tendant/simple-theatre/pkg/theatre"
	"github.com/tendant/simple-theatre/pkg/theatre/repo/memory"
)

func createSourcePage(t *testing.T, env *testEnv) *theatre.Page {
	t.Helper()
	ctx := editorCtx()
	thumb, err := env.svc.UploadMedia(ctx, theatre.UploadMediaRequest{FileName: "still.jpg", Reader: strings.NewReader("jpg")})
	require.NoError(t, err)
	thumbID := uuid.MustParse(thumb.ID)

	page, err := env.svc.CreatePage(ctx, theatre.CreatePageRequest{
		Title:         "Twelfth Night",
		Body:          "<p>If music be the food of love, play on.</p>",
		Excerpt:       "Shakespeare's comedy",
		Status:        theatre.StatusPublished,
		CommentStatus: theatre.DiscussionClosed,
		PingStatus:    theatre.DiscussionOpen,
		ThumbnailID:   &thumbID,
		Metadata: theatre.Metadata{
			{Key: "director", Value: "Viola"},
			{Key: "tag", Value: "comedy"},
			{Key: "running_time", Value: "150"},
			{Key: "tag", Value: "shakespeare"},
		},
	})
	require.NoError(t, err)
	return page
}

func TestConvertPageToProduction_DeleteOriginal(t *testing.T) {
	env := setupTestService(t)
	ctx := editorCtx()
	page := createSourcePage(t, env)

	result, err := env.svc.ConvertPageToProduction(ctx, page.ID, true)
	require.NoError(t, err)
	assert.True(t, result.OriginalPageDeleted)
	assert.Equal(t, "Twelfth Night", result.Production.Title)
	assert.Equal(t, "twelfth-night", result.Production.Slug)
	assert.Equal(t, theatre.StatusPublished, result.Production.Status)

	productionID := uuid.MustParse(result.Production.ID)
	meta, err := env.repo.GetMeta(context.Background(), productionID)
	require.NoError(t, err)
	assert.Len(t, meta, 4)
	assert.ElementsMatch(t, []string{"comedy", "shakespeare"}, meta.Values("tag"))
	director, _ := meta.Get("director")
	assert.Equal(t, "Viola", director)

	item, err := env.repo.GetItem(context.Background(), productionID)
	require.NoError(t, err)
	assert.Equal(t, theatre.KindProduction, item.Kind)
	assert.Equal(t, page.Body, item.Body)
	assert.Equal(t, page.Excerpt, item.Excerpt)
	assert.Equal(t, "editor", item.AuthorID)
	assert.Equal(t, theatre.DiscussionClosed, item.CommentStatus)
	assert.Equal(t, theatre.DiscussionOpen, item.PingStatus)
	require.NotNil(t, item.ThumbnailID)
	assert.Equal(t, *page.ThumbnailID, *item.ThumbnailID, "thumbnail is shared, not copied")

	_, err = env.svc.GetPage(ctx, page.ID)
	assert.ErrorIs(t, err, theatre.ErrNotFound)

	require.Len(t, env.events.converted, 1)
	assert.Equal(t, result, env.events.converted[0])
}

func TestConvertPageToProduction_KeepOriginal(t *testing.T) {
	env := setupTestService(t)
	ctx := editorCtx()
	page := createSourcePage(t, env)

	result, err := env.svc.ConvertPageToProduction(ctx, page.ID, false)
	require.NoError(t, err)
	assert.False(t, result.OriginalPageDeleted)

	again, err := env.svc.GetPage(ctx, page.ID)
	require.NoError(t, err)
	assert.Equal(t, page.Title, again.Title)
	assert.Equal(t, page.Metadata, again.Metadata)

	item, err := env.repo.GetItem(ctx, page.ID)
	require.NoError(t, err)
	assert.Equal(t, theatre.KindPage, item.Kind)
}

func TestConvertPageToProduction_InvalidSource(t *testing.T) {
	env := setupTestService(t)
	ctx := editorCtx()

	p, err := env.svc.CreateProduction(ctx, theatre.CreateProductionRequest{Title: "Already a show"})
	require.NoError(t, err)

	_, err = env.svc.ConvertPageToProduction(ctx, p.ID, false)
	assert.ErrorIs(t, err, theatre.ErrInvalidSource)
	assert.Equal(t, theatre.CodeInvalidSource, theatre.ErrorCode(err))

	_, err = env.svc.ConvertPageToProduction(ctx, uuid.New(), false)
	assert.ErrorIs(t, err, theatre.ErrInvalidSource)

	_, err = env.svc.ConvertPageToProduction(context.Background(), uuid.New(), false)
	assert.ErrorIs(t, err, theatre.ErrInvalidSource, "the source is resolved before authorization")
}

func TestConvertPageToProduction_Forbidden(t *testing.T) {
	env := setupTestService(t)
	page := createSourcePage(t, env)

	viewer := theatre.WithPrincipal(context.Background(), theatre.Principal{UserID: "viewer"})
	_, err := env.svc.ConvertPageToProduction(viewer, page.ID, true)
	assert.ErrorIs(t, err, theatre.ErrForbidden)

	views, err := env.repo.ListItems(context.Background(), theatre.ItemQuery{Kinds: []theatre.Kind{theatre.KindProduction}})
	require.NoError(t, err)
	assert.Empty(t, views, "nothing is created")

	_, err = env.svc.GetPage(viewer, page.ID)
	assert.NoError(t, err)
}

func TestConvertPageToProduction_CreationFailed(t *testing.T) {
	repo := &flakyRepository{Repository: memory.New()}
	env := setupTestServiceWithRepo(t, repo)
	page := createSourcePage(t, env)

	repo.failCreateKind = theatre.KindProduction
	result, err := env.svc.ConvertPageToProduction(editorCtx(), page.ID, true)
	assert.Nil(t, result)
	assert.ErrorIs(t, err, theatre.ErrCreationFailed)
	assert.ErrorIs(t, err, errStoreDown)
	assert.Equal(t, theatre.CodeCreationFailed, theatre.ErrorCode(err))

	_, err = env.svc.GetPage(editorCtx(), page.ID)
	assert.NoError(t, err, "the page is untouched")
}

func TestConvertPageToProduction_PartialConversion(t *testing.T) {
	repo := &flakyRepository{Repository: memory.New()}
	env := setupTestServiceWithRepo(t, repo)
	page := createSourcePage(t, env)

	repo.failAddMeta = true
	result, err := env.svc.ConvertPageToProduction(editorCtx(), page.ID, true)
	require.Error(t, err)
	assert.ErrorIs(t, err, theatre.ErrPartialConversion)
	assert.Equal(t, theatre.CodePartialConversion, theatre.ErrorCode(err))

	var convErr *theatre.ConversionError
	require.ErrorAs(t, err, &convErr)
	assert.Equal(t, page.ID, convErr.PageID)

	require.NotNil(t, result, "the created production is reported")
	assert.False(t, result.OriginalPageDeleted)
	assert.Equal(t, convErr.ProductionID.String(), result.Production.ID)

	_, err = env.svc.GetProduction(editorCtx(), convErr.ProductionID)
	assert.NoError(t, err, "no rollback")
	_, err = env.svc.GetPage(editorCtx(), page.ID)
	assert.NoError(t, err, "the page is kept")
	assert.Empty(t, env.events.converted)
}

func TestConvertPageToProduction_ThumbnailFailure(t *testing.T) {
	repo := &flakyRepository{Repository: memory.New()}
	env := setupTestServiceWithRepo(t, repo)
	page := createSourcePage(t, env)

	repo.failUpdate = true
	result, err := env.svc.ConvertPageToProduction(editorCtx(), page.ID, false)
	assert.ErrorIs(t, err, theatre.ErrPartialConversion)
	require.NotNil(t, result)

	meta, err := repo.GetMeta(context.Background(), uuid.MustParse(result.Production.ID))
	require.NoError(t, err)
	assert.Len(t, meta, 4, "metadata is still copied")
}
