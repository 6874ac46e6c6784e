package s3

import (
	"context"
	"io"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestS3Backend_Configuration(t *testing.T) {
	ctx := context.Background()

	t.Run("EmptyBucket", func(t *testing.T) {
		_, err := New(ctx, Config{Region: "us-east-1"})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "bucket name is required")
	})

	t.Run("Defaults", func(t *testing.T) {
		backend, err := New(ctx, Config{
			Bucket:          "media",
			AccessKeyID:     "test-key",
			SecretAccessKey: "test-secret",
		})
		require.NoError(t, err)
		assert.Equal(t, "us-east-1", backend.config.Region)
		assert.Equal(t, time.Hour, backend.presignDuration)
	})

	t.Run("PublicBaseURL", func(t *testing.T) {
		backend, err := New(ctx, Config{
			Bucket:          "media",
			AccessKeyID:     "test-key",
			SecretAccessKey: "test-secret",
			PublicBaseURL:   "https://cdn.example.com/media-bucket/",
		})
		require.NoError(t, err)

		url, err := backend.GetPreviewURL(ctx, "media/1/a.jpg")
		require.NoError(t, err)
		assert.Equal(t, "https://cdn.example.com/media-bucket/media/1/a.jpg", url)
	})

	t.Run("PresignedPreview", func(t *testing.T) {
		backend, err := New(ctx, Config{
			Bucket:          "media",
			AccessKeyID:     "test-key",
			SecretAccessKey: "test-secret",
			Endpoint:        "http://localhost:9000",
			UsePathStyle:    true,
		})
		require.NoError(t, err)

		url, err := backend.GetPreviewURL(ctx, "media/1/a.jpg")
		require.NoError(t, err)
		assert.Contains(t, url, "http://localhost:9000/media/media/1/a.jpg")
		assert.Contains(t, url, "X-Amz-Signature")
	})
}

// TestS3Backend_MinIO runs against a live S3-compatible endpoint.
func TestS3Backend_MinIO(t *testing.T) {
	endpoint := os.Getenv("S3_TEST_ENDPOINT")
	if endpoint == "" {
		t.Skip("S3_TEST_ENDPOINT not set")
	}
	ctx := context.Background()
	backend, err := New(ctx, Config{
		Bucket:                 "theatre-test",
		Endpoint:               endpoint,
		UsePathStyle:           true,
		AccessKeyID:            os.Getenv("S3_TEST_ACCESS_KEY"),
		SecretAccessKey:        os.Getenv("S3_TEST_SECRET_KEY"),
		CreateBucketIfNotExist: true,
	})
	require.NoError(t, err)

	key := "media/" + uuid.NewString() + "/hello.txt"
	require.NoError(t, backend.Upload(ctx, key, strings.NewReader("hello"), "text/plain"))

	rc, err := backend.Download(ctx, key)
	require.NoError(t, err)
	data, err := io.ReadAll(rc)
	require.NoError(t, err)
	rc.Close()
	assert.Equal(t, "hello", string(data))

	require.NoError(t, backend.Delete(ctx, key))
	_, err = backend.Download(ctx, key)
	assert.ErrorIs(t, err, ErrObjectNotFound)
}
