package theatre

import (
	"io"

	"github.com/google/uuid"
)

// Request DTOs

// ProductionFilter configures ListProductions.
type ProductionFilter struct {
	// PageSize defaults to DefaultPageSize and is capped at MaxPageSize.
	PageSize int
	// Slug restricts the result to at most one exact match.
	Slug         string
	FeaturedOnly bool
	Category     string
}

// Page size limits for ListProductions.
const (
	DefaultPageSize = 10
	MaxPageSize     = 100
)

// ProjectOption adjusts ProjectProduction.
type ProjectOption func(*projectOptions)

type projectOptions struct {
	includeTrashed bool
}

// IncludeTrashed allows trashed productions to be projected. It only takes
// effect for callers holding CapEditPosts.
func IncludeTrashed() ProjectOption {
	return func(o *projectOptions) {
		o.includeTrashed = true
	}
}

// CreatePageRequest contains parameters for creating a page
type CreatePageRequest struct {
	Title         string
	Body          string
	Excerpt       string
	Status        Status
	CommentStatus string
	PingStatus    string
	ThumbnailID   *uuid.UUID
	Metadata      Metadata
}

// CreateProductionRequest contains parameters for creating a production
type CreateProductionRequest struct {
	Title            string
	Body             string
	Excerpt          string
	Status           Status
	PerformanceDates []string
	VenueID          *uuid.UUID
	BylineIDs        []uuid.UUID
	IsFeatured       bool
	ThumbnailID      *uuid.UUID
	TicketLink       string
	Categories       []string
}

// UpdateProductionRequest contains parameters for updating a production.
// Nil fields are left unchanged.
type UpdateProductionRequest struct {
	ID               uuid.UUID
	Title            *string
	Body             *string
	Excerpt          *string
	Status           *Status
	PerformanceDates []string
	VenueID          *uuid.UUID
	ClearVenue       bool
	BylineIDs        []uuid.UUID
	IsFeatured       *bool
	ThumbnailID      *uuid.UUID
	TicketLink       *string
	Categories       []string
}

// CreateBylineRequest contains parameters for creating a byline
type CreateBylineRequest struct {
	Name        string
	Bio         string
	ThumbnailID *uuid.UUID
	SocialLinks map[string]string
}

// UploadMediaRequest contains parameters for uploading a media asset
type UploadMediaRequest struct {
	Title    string
	FileName string
	MimeType string
	Alt      string
	// Backend names the blob store; empty selects the default.
	Backend string
	Reader  io.Reader
}

// AddMenuItemRequest contains parameters for adding a menu entry.
// Either URL (custom link) or ObjectID (link to an item) must be set.
type AddMenuItemRequest struct {
	MenuID      uuid.UUID
	Title       string
	URL         string
	ObjectID    *uuid.UUID
	ParentID    *uuid.UUID
	Target      string
	Classes     []string
	Description string
	Order       int
}

// HeroSettings is the stored hero configuration.
type HeroSettings struct {
	Mode             string      `json:"type" yaml:"type"`
	ImageID          *uuid.UUID  `json:"image_id,omitempty" yaml:"image_id"`
	ImageAlt         string      `json:"image_alt" yaml:"image_alt"`
	VideoURL         string      `json:"video_url" yaml:"video_url"`
	CarouselImageIDs []uuid.UUID `json:"carousel_image_ids" yaml:"carousel_image_ids"`
	CarouselAutoplay *bool       `json:"carousel_autoplay,omitempty" yaml:"carousel_autoplay"`
	CarouselInterval int         `json:"carousel_interval" yaml:"carousel_interval"`
	Title            string      `json:"title" yaml:"title"`
	Subtitle         string      `json:"subtitle" yaml:"subtitle"`
	CTAMessage       string      `json:"cta_message" yaml:"cta_message"`
	CTALink          string      `json:"cta_link" yaml:"cta_link"`
}
