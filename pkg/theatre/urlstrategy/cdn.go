package urlstrategy

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
)

// CDNStrategy points media URLs straight at a CDN serving the object keys
type CDNStrategy struct {
	CDNBaseURL string // e.g., "https://cdn.example.com"
}

// NewCDNStrategy creates a new CDN URL strategy
func NewCDNStrategy(cdnBaseURL string) *CDNStrategy {
	return &CDNStrategy{CDNBaseURL: strings.TrimSuffix(cdnBaseURL, "/")}
}

// MediaURL returns the CDN URL of the object key
func (s *CDNStrategy) MediaURL(ctx context.Context, mediaID uuid.UUID, objectKey, backend string) (string, error) {
	if s.CDNBaseURL == "" {
		return "", fmt.Errorf("CDN base URL not configured")
	}
	if objectKey == "" {
		return "", fmt.Errorf("media %s has no object key", mediaID)
	}
	return fmt.Sprintf("%s/%s", s.CDNBaseURL, objectKey), nil
}
