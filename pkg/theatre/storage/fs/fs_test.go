package fs_test

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	fsstorage "github.com/tendant/simple-theatre/pkg/theatre/storage/fs"
)

func setupFSTest(t *testing.T) (*fsstorage.Backend, string) {
	t.Helper()
	dir := t.TempDir()
	backend, err := fsstorage.New(fsstorage.Config{BaseDir: dir, URLPrefix: "https://static.example.com/files/"})
	require.NoError(t, err)
	return backend, dir
}

func TestFSBackend_RoundTrip(t *testing.T) {
	backend, dir := setupFSTest(t)
	ctx := context.Background()
	key := "media/abc/poster.png"

	require.NoError(t, backend.Upload(ctx, key, strings.NewReader("png"), "image/png"))
	_, err := os.Stat(filepath.Join(dir, "media", "abc", "poster.png"))
	require.NoError(t, err)

	rc, err := backend.Download(ctx, key)
	require.NoError(t, err)
	data, err := io.ReadAll(rc)
	require.NoError(t, err)
	require.NoError(t, rc.Close())
	assert.Equal(t, "png", string(data))

	url, err := backend.GetPreviewURL(ctx, key)
	require.NoError(t, err)
	assert.Equal(t, "https://static.example.com/files/media/abc/poster.png", url)

	require.NoError(t, backend.Delete(ctx, key))
	_, err = os.Stat(filepath.Join(dir, "media"))
	assert.True(t, os.IsNotExist(err), "empty directories are removed")

	_, err = backend.Download(ctx, key)
	assert.ErrorIs(t, err, fsstorage.ErrObjectNotFound)
}

func TestFSBackend_RejectsEscapingKeys(t *testing.T) {
	backend, _ := setupFSTest(t)
	err := backend.Upload(context.Background(), "../outside.txt", strings.NewReader("x"), "text/plain")
	assert.Error(t, err)
}

func TestFSBackend_RequiresBaseDir(t *testing.T) {
	_, err := fsstorage.New(fsstorage.Config{})
	assert.Error(t, err)
}
