package urlstrategy_test

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tendant/simple-theatre/pkg/theatre"
	memorystorage "github.com/tendant/simple-theatre/pkg/theatre/storage/memory"
	"github.com/tendant/simple-theatre/pkg/theatre/urlstrategy"
)

var _ theatre.MediaURLResolver = urlstrategy.Strategy(nil)

func TestStrategies(t *testing.T) {
	ctx := context.Background()
	id := uuid.MustParse("7d7f0f4e-6f2a-4a8e-9a57-2d1d1f0c9b10")
	key := "media/" + id.String() + "/poster.jpg"

	t.Run("CDN", func(t *testing.T) {
		s := urlstrategy.NewCDNStrategy("https://cdn.example.com/")
		url, err := s.MediaURL(ctx, id, key, "s3")
		require.NoError(t, err)
		assert.Equal(t, "https://cdn.example.com/"+key, url)

		_, err = s.MediaURL(ctx, id, "", "s3")
		assert.Error(t, err)
	})

	t.Run("ContentBased", func(t *testing.T) {
		s := urlstrategy.NewContentBasedStrategy("/api/v1/")
		url, err := s.MediaURL(ctx, id, key, "memory")
		require.NoError(t, err)
		assert.Equal(t, "/api/v1/media/"+id.String(), url)
	})

	t.Run("StorageDelegated", func(t *testing.T) {
		store := memorystorage.New(memorystorage.WithBaseURL("https://files.example.com"))
		s := urlstrategy.NewStorageDelegatedStrategy(map[string]urlstrategy.PreviewURLer{"memory": store})

		url, err := s.MediaURL(ctx, id, key, "memory")
		require.NoError(t, err)
		assert.Equal(t, "https://files.example.com/"+key, url)

		_, err = s.MediaURL(ctx, id, key, "s3")
		assert.Error(t, err)
	})
}

func TestNew(t *testing.T) {
	s, err := urlstrategy.New(urlstrategy.Config{})
	require.NoError(t, err)
	assert.IsType(t, &urlstrategy.ContentBasedStrategy{}, s)

	_, err = urlstrategy.New(urlstrategy.Config{Type: urlstrategy.TypeCDN})
	assert.Error(t, err)

	_, err = urlstrategy.New(urlstrategy.Config{Type: urlstrategy.TypeStorageDelegated})
	assert.Error(t, err)

	_, err = urlstrategy.New(urlstrategy.Config{Type: "bogus"})
	assert.Error(t, err)
}
