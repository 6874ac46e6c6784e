package settings_test

import (
	"context"
	"os"
	"testing"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tendant/simple-theatre/pkg/theatre"
	"github.com/tendant/simple-theatre/pkg/theatre/settings"
)

func exerciseStore(t *testing.T, store theatre.SettingsStore) {
	t.Helper()
	ctx := context.Background()

	v, err := store.Get(ctx, "missing", "fallback")
	require.NoError(t, err)
	assert.Equal(t, "fallback", v)

	require.NoError(t, store.Set(ctx, "hero_title", "Now Playing"))
	v, err = store.Get(ctx, "hero_title", "")
	require.NoError(t, err)
	assert.Equal(t, "Now Playing", v)

	require.NoError(t, store.Set(ctx, "hero_carousel_autoplay", false))
	v, err = store.Get(ctx, "hero_carousel_autoplay", true)
	require.NoError(t, err)
	assert.Equal(t, false, v)
}

func TestMemoryStore(t *testing.T) {
	exerciseStore(t, settings.NewMemoryStore(nil))

	store := settings.NewMemoryStore(map[string]any{"hero_media_type": "video"})
	v, err := store.Get(context.Background(), "hero_media_type", "image")
	require.NoError(t, err)
	assert.Equal(t, "video", v)
}

func TestRedisStore(t *testing.T) {
	url := os.Getenv("TEST_REDIS_URL")
	if url == "" {
		t.Skip("TEST_REDIS_URL not set")
	}
	opts, err := redis.ParseURL(url)
	require.NoError(t, err)
	client := redis.NewClient(opts)
	t.Cleanup(func() { client.Close() })

	store := settings.NewRedisStore(client, "theatre-test:")
	exerciseStore(t, store)

	ctx := context.Background()
	require.NoError(t, store.Set(ctx, "nav_menu_locations", map[string]string{"primary": "abc"}))
	v, err := store.Get(ctx, "nav_menu_locations", nil)
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"primary": "abc"}, v)
}
