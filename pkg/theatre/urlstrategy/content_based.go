package urlstrategy

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
)

// ContentBasedStrategy routes media through the application's own
// GET /media/{id} endpoint
type ContentBasedStrategy struct {
	APIBaseURL string // e.g., "https://api.example.com/api/v1" or "/api/v1"
}

// NewContentBasedStrategy creates a new content-based URL strategy
func NewContentBasedStrategy(apiBaseURL string) *ContentBasedStrategy {
	return &ContentBasedStrategy{APIBaseURL: strings.TrimSuffix(apiBaseURL, "/")}
}

// MediaURL returns the application URL streaming the media item
func (s *ContentBasedStrategy) MediaURL(ctx context.Context, mediaID uuid.UUID, objectKey, backend string) (string, error) {
	if s.APIBaseURL == "" {
		return "", fmt.Errorf("API base URL not configured")
	}
	return fmt.Sprintf("%s/media/%s", s.APIBaseURL, mediaID), nil
}
