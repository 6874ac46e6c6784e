package theatre

import (
	"context"
	"io"

	"github.com/google/uuid"
)

// Repository defines the content store. Implementations return ErrNotFound
// for missing items and must keep metadata entries in insertion order.
type Repository interface {
	// CreateItem stores a new item, assigning item.ID when it is uuid.Nil.
	CreateItem(ctx context.Context, item *Item) error
	GetItem(ctx context.Context, id uuid.UUID) (*Item, error)
	GetItemBySlug(ctx context.Context, kind Kind, slug string) (*Item, error)
	UpdateItem(ctx context.Context, item *Item) error
	// DeleteItem removes the item and all of its metadata permanently.
	DeleteItem(ctx context.Context, id uuid.UUID) error
	// ListItems returns matching items, newest first.
	ListItems(ctx context.Context, query ItemQuery) ([]*Item, error)

	// Metadata operations
	AddMeta(ctx context.Context, itemID uuid.UUID, key, value string) error
	// SetMeta replaces every value of key. No values removes the key.
	SetMeta(ctx context.Context, itemID uuid.UUID, key string, values ...string) error
	GetMeta(ctx context.Context, itemID uuid.UUID) (Metadata, error)
}

// BlobStore defines the interface for media storage backends
type BlobStore interface {
	// Upload stores the content of reader under objectKey
	Upload(ctx context.Context, objectKey string, reader io.Reader, mimeType string) error

	// Download opens the object for reading
	Download(ctx context.Context, objectKey string) (io.ReadCloser, error)

	// Delete removes the object
	Delete(ctx context.Context, objectKey string) error

	// GetPreviewURL returns a URL the object can be fetched from directly
	GetPreviewURL(ctx context.Context, objectKey string) (string, error)
}

// SettingsStore holds site-wide configuration such as hero settings and
// menu locations. Values are JSON compatible (strings, numbers, bools,
// slices and maps of those).
type SettingsStore interface {
	// Get returns the stored value for key, or def when the key is unset.
	Get(ctx context.Context, key string, def any) (any, error)
	Set(ctx context.Context, key string, value any) error
}

// MediaURLResolver turns a stored media object into a public URL.
type MediaURLResolver interface {
	MediaURL(ctx context.Context, mediaID uuid.UUID, objectKey, backend string) (string, error)
}

// EventSink receives domain events after the corresponding write succeeded.
type EventSink interface {
	// ItemCreated is fired when any item is created
	ItemCreated(ctx context.Context, item *Item) error

	// ItemUpdated is fired when an item is updated
	ItemUpdated(ctx context.Context, item *Item) error

	// ItemDeleted is fired when an item is permanently deleted
	ItemDeleted(ctx context.Context, id uuid.UUID, kind Kind) error

	// PageConverted is fired when a page has been converted into a production
	PageConverted(ctx context.Context, pageID uuid.UUID, result *ConversionResult) error
}
