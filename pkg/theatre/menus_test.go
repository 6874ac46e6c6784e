package theatre_test

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tendant/simple-theatre/pkg/theatre"
)

func TestGetMenuByLocation_Unknown(t *testing.T) {
	env := setupTestService(t)

	_, err := env.svc.GetMenuByLocation(context.Background(), "nonexistent-slot")
	assert.ErrorIs(t, err, theatre.ErrNotFound)
	assert.Equal(t, theatre.CodeNotFound, theatre.ErrorCode(err))
}

func TestMenus(t *testing.T) {
	env := setupTestService(t)
	ctx := adminCtx()

	show, err := env.svc.CreateProduction(ctx, theatre.CreateProductionRequest{Title: "Hamlet", Status: theatre.StatusPublished})
	require.NoError(t, err)

	menu, err := env.svc.CreateMenu(ctx, "Main Navigation")
	require.NoError(t, err)
	assert.Equal(t, "main-navigation", menu.Slug)

	_, err = env.svc.CreateMenu(editorCtx(), "Nope")
	assert.ErrorIs(t, err, theatre.ErrForbidden)

	home, err := env.svc.AddMenuItem(ctx, theatre.AddMenuItemRequest{
		MenuID:  menu.ID,
		Title:   "Home",
		URL:     "/",
		Classes: []string{"nav-home"},
		Order:   2,
	})
	require.NoError(t, err)
	assert.Equal(t, theatre.MenuItemCustom, home.Type)
	assert.Equal(t, "Custom Link", home.TypeLabel)

	shows, err := env.svc.AddMenuItem(ctx, theatre.AddMenuItemRequest{
		MenuID:   menu.ID,
		ObjectID: &show.ID,
		Target:   "_blank",
		Order:    1,
	})
	require.NoError(t, err)
	assert.Equal(t, "Hamlet", shows.Title)
	assert.Equal(t, "/productions/hamlet/", shows.URL)
	assert.Equal(t, theatre.MenuItemPostType, shows.Type)
	assert.Equal(t, "Production", shows.TypeLabel)
	assert.Equal(t, string(theatre.KindProduction), shows.Object)
	assert.Equal(t, show.ID.String(), shows.ObjectID)

	childParent := uuid.MustParse(shows.ID)
	child, err := env.svc.AddMenuItem(ctx, theatre.AddMenuItemRequest{
		MenuID:   menu.ID,
		Title:    "Tickets",
		URL:      "https://tickets.example.com",
		ParentID: &childParent,
	})
	require.NoError(t, err)
	assert.Equal(t, shows.ID, child.Parent)
	assert.Equal(t, 3, child.Order, "order defaults to the end of the menu")

	t.Run("Validation", func(t *testing.T) {
		_, err := env.svc.AddMenuItem(ctx, theatre.AddMenuItemRequest{MenuID: menu.ID, Title: "Empty"})
		assert.ErrorIs(t, err, theatre.ErrInvalidInput)

		missing := uuid.New()
		_, err = env.svc.AddMenuItem(ctx, theatre.AddMenuItemRequest{MenuID: menu.ID, ObjectID: &missing})
		assert.ErrorIs(t, err, theatre.ErrInvalidInput)

		_, err = env.svc.AddMenuItem(ctx, theatre.AddMenuItemRequest{MenuID: uuid.New(), Title: "x", URL: "/"})
		assert.ErrorIs(t, err, theatre.ErrNotFound)
	})

	require.NoError(t, env.svc.AssignMenuLocation(ctx, "primary", menu.ID))
	assert.ErrorIs(t, env.svc.AssignMenuLocation(ctx, "footer", uuid.New()), theatre.ErrNotFound)

	view, err := env.svc.GetMenuByLocation(context.Background(), "primary")
	require.NoError(t, err)
	assert.Equal(t, "Main Navigation", view.Name)
	require.Len(t, view.Items, 3)
	assert.Equal(t, "Hamlet", view.Items[0].Title)
	assert.Equal(t, "_blank", view.Items[0].Target)
	assert.Equal(t, "Home", view.Items[1].Title)
	assert.Equal(t, []string{"nav-home"}, view.Items[1].Classes)
	assert.Equal(t, "Tickets", view.Items[2].Title)
	assert.Equal(t, "", view.Items[0].Parent)

	menus, err := env.svc.GetMenus(context.Background())
	require.NoError(t, err)
	assert.Len(t, menus, 1)
	assert.Equal(t, view, menus["primary"])

	t.Run("DanglingObjectIsHidden", func(t *testing.T) {
		require.NoError(t, env.svc.DeleteProduction(ctx, show.ID))
		view, err := env.svc.GetMenuByLocation(context.Background(), "primary")
		require.NoError(t, err)
		require.Len(t, view.Items, 2)
		assert.Equal(t, "Home", view.Items[0].Title)
	})
}
