package urlstrategy

import (
	"context"
	"fmt"

	"github.com/google/uuid"
)

// PreviewURLer is the part of a blob store this strategy needs
type PreviewURLer interface {
	GetPreviewURL(ctx context.Context, objectKey string) (string, error)
}

// StorageDelegatedStrategy asks the owning storage backend for the URL,
// e.g. a presigned S3 link
type StorageDelegatedStrategy struct {
	BlobStores map[string]PreviewURLer
}

// NewStorageDelegatedStrategy creates a new storage-delegated URL strategy
func NewStorageDelegatedStrategy(blobStores map[string]PreviewURLer) *StorageDelegatedStrategy {
	return &StorageDelegatedStrategy{BlobStores: blobStores}
}

// MediaURL delegates to the backend's GetPreviewURL
func (s *StorageDelegatedStrategy) MediaURL(ctx context.Context, mediaID uuid.UUID, objectKey, backend string) (string, error) {
	store, exists := s.BlobStores[backend]
	if !exists {
		return "", fmt.Errorf("storage backend %s not found", backend)
	}
	return store.GetPreviewURL(ctx, objectKey)
}
