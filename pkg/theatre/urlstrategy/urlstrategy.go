// Package urlstrategy decides how stored media is addressed by clients.
package urlstrategy

import (
	"context"

	"github.com/google/uuid"
)

// Strategy turns a stored media object into a public URL. It satisfies
// theatre.MediaURLResolver.
type Strategy interface {
	MediaURL(ctx context.Context, mediaID uuid.UUID, objectKey, backend string) (string, error)
}
