package memory_test

import (
	"context"
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tendant/simple-theatre/pkg/theatre"
	memorystorage "github.com/tendant/simple-theatre/pkg/theatre/storage/memory"
)

func TestMemoryBackend(t *testing.T) {
	backend := memorystorage.New(memorystorage.WithBaseURL("https://media.example.com/"))
	ctx := context.Background()
	key := "media/1/poster.jpg"

	require.NoError(t, backend.Upload(ctx, key, strings.NewReader("jpeg bytes"), "image/jpeg"))

	mt, ok := backend.MimeType(key)
	assert.True(t, ok)
	assert.Equal(t, "image/jpeg", mt)

	rc, err := backend.Download(ctx, key)
	require.NoError(t, err)
	data, err := io.ReadAll(rc)
	require.NoError(t, err)
	require.NoError(t, rc.Close())
	assert.Equal(t, "jpeg bytes", string(data))

	url, err := backend.GetPreviewURL(ctx, key)
	require.NoError(t, err)
	assert.Equal(t, "https://media.example.com/media/1/poster.jpg", url)

	require.NoError(t, backend.Delete(ctx, key))
	_, err = backend.Download(ctx, key)
	assert.ErrorIs(t, err, memorystorage.ErrObjectNotFound)
	assert.ErrorIs(t, err, theatre.ErrNotFound)
	assert.ErrorIs(t, backend.Delete(ctx, key), memorystorage.ErrObjectNotFound)
}

func TestMemoryBackend_NoBaseURL(t *testing.T) {
	backend := memorystorage.New()
	_, err := backend.GetPreviewURL(context.Background(), "k")
	assert.Error(t, err)
}
