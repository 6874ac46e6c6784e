package urlstrategy

import (
	"fmt"
)

// Type names a URL strategy
type Type string

const (
	// CDN strategy for direct CDN URLs
	TypeCDN Type = "cdn"

	// Content-based strategy for application-routed URLs
	TypeContentBased Type = "content-based"

	// Storage-delegated strategy, e.g. presigned URLs
	TypeStorageDelegated Type = "storage-delegated"
)

// Config holds configuration for strategy creation
type Config struct {
	Type       Type
	CDNBaseURL string                  // For CDN strategy
	APIBaseURL string                  // For content-based strategy
	BlobStores map[string]PreviewURLer // For storage-delegated strategy
}

// New creates a URL strategy based on the configuration
func New(config Config) (Strategy, error) {
	switch config.Type {
	case TypeCDN:
		if config.CDNBaseURL == "" {
			return nil, fmt.Errorf("CDN base URL is required for CDN strategy")
		}
		return NewCDNStrategy(config.CDNBaseURL), nil

	case TypeContentBased, "":
		apiBaseURL := config.APIBaseURL
		if apiBaseURL == "" {
			apiBaseURL = "/api/v1"
		}
		return NewContentBasedStrategy(apiBaseURL), nil

	case TypeStorageDelegated:
		if len(config.BlobStores) == 0 {
			return nil, fmt.Errorf("blob stores are required for storage-delegated strategy")
		}
		return NewStorageDelegatedStrategy(config.BlobStores), nil

	default:
		return nil, fmt.Errorf("unknown URL strategy type: %s", config.Type)
	}
}
