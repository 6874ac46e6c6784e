package theatre

import (
	"time"

	"github.com/google/uuid"
)

// Kind identifies what an Item represents.
type Kind string

// Item kinds.
const (
	KindPage       Kind = "page"
	KindProduction Kind = "production"
	KindVenue      Kind = "venue"
	KindByline     Kind = "byline"
	KindMedia      Kind = "attachment"
	KindMenu       Kind = "nav_menu"
	KindMenuItem   Kind = "nav_menu_item"
)

// Label returns the singular, human readable name of the kind.
func (k Kind) Label() string {
	switch k {
	case KindPage:
		return "Page"
	case KindProduction:
		return "Production"
	case KindVenue:
		return "Venue"
	case KindByline:
		return "Byline"
	case KindMedia:
		return "Media"
	case KindMenu:
		return "Navigation Menu"
	case KindMenuItem:
		return "Navigation Menu Item"
	default:
		return string(k)
	}
}

// Status is the publication state of an item.
type Status string

// Item statuses.
const (
	StatusDraft     Status = "draft"
	StatusPublished Status = "published"
	StatusTrashed   Status = "trashed"
)

// Valid reports whether s is a known status.
func (s Status) Valid() bool {
	switch s {
	case StatusDraft, StatusPublished, StatusTrashed:
		return true
	}
	return false
}

// Comment and ping settings carried by items.
const (
	DiscussionOpen   = "open"
	DiscussionClosed = "closed"
)

// Metadata keys used by the content model.
const (
	MetaPerformanceDates = "_performance_dates"
	MetaVenue            = "_production_venue"
	MetaBylines          = "_production_bylines"
	MetaFeatured         = "_is_featured"
	MetaTicketLink       = "_ticket_link"
	MetaCategories       = "_production_categories"
	MetaSocialLinks      = "_bylines_social_links"

	MetaMediaObjectKey = "_media_object_key"
	MetaMediaBackend   = "_media_backend"
	MetaMediaMimeType  = "_media_mime_type"
	MetaMediaFileName  = "_media_file_name"
	MetaMediaAlt       = "_media_alt"

	MetaMenuItemMenu     = "_menu_item_menu"
	MetaMenuItemParent   = "_menu_item_parent"
	MetaMenuItemURL      = "_menu_item_url"
	MetaMenuItemTarget   = "_menu_item_target"
	MetaMenuItemClasses  = "_menu_item_classes"
	MetaMenuItemType     = "_menu_item_type"
	MetaMenuItemObject   = "_menu_item_object"
	MetaMenuItemObjectID = "_menu_item_object_id"
)

// Item is the stored representation of every entity.
type Item struct {
	ID            uuid.UUID  `json:"id"`
	Kind          Kind       `json:"kind"`
	Title         string     `json:"title"`
	Slug          string     `json:"slug"`
	Body          string     `json:"body,omitempty"`
	Excerpt       string     `json:"excerpt,omitempty"`
	Status        Status     `json:"status"`
	AuthorID      string     `json:"author_id,omitempty"`
	CommentStatus string     `json:"comment_status,omitempty"`
	PingStatus    string     `json:"ping_status,omitempty"`
	ThumbnailID   *uuid.UUID `json:"thumbnail_id,omitempty"`
	MenuOrder     int        `json:"menu_order"`
	CreatedAt     time.Time  `json:"created_at"`
	UpdatedAt     time.Time  `json:"updated_at"`
}

// MetaEntry is a single metadata value. A key may appear in several entries.
type MetaEntry struct {
	Key   string `json:"key"`
	Value string `json:"value"`
}

// Metadata is an ordered multimap of metadata entries.
type Metadata []MetaEntry

// Get returns the first value stored under key.
func (m Metadata) Get(key string) (string, bool) {
	for _, e := range m {
		if e.Key == key {
			return e.Value, true
		}
	}
	return "", false
}

// Values returns every value stored under key in insertion order.
func (m Metadata) Values(key string) []string {
	var out []string
	for _, e := range m {
		if e.Key == key {
			out = append(out, e.Value)
		}
	}
	return out
}

// Keys returns the distinct keys in order of first appearance.
func (m Metadata) Keys() []string {
	seen := make(map[string]bool, len(m))
	var keys []string
	for _, e := range m {
		if !seen[e.Key] {
			seen[e.Key] = true
			keys = append(keys, e.Key)
		}
	}
	return keys
}

// ItemQuery filters ListItems. Zero values mean "no constraint".
type ItemQuery struct {
	Kinds     []Kind
	Statuses  []Status
	Slug      string
	MetaKey   string
	MetaValue string
	Limit     int
	Offset    int
}

// Page is a generic page item, the source of conversions.
type Page struct {
	ID            uuid.UUID  `json:"id"`
	Title         string     `json:"title"`
	Slug          string     `json:"slug"`
	Body          string     `json:"body"`
	Excerpt       string     `json:"excerpt"`
	Status        Status     `json:"status"`
	AuthorID      string     `json:"author_id"`
	CommentStatus string     `json:"comment_status"`
	PingStatus    string     `json:"ping_status"`
	ThumbnailID   *uuid.UUID `json:"thumbnail_id,omitempty"`
	Metadata      Metadata   `json:"metadata"`
	CreatedAt     time.Time  `json:"created_at"`
	UpdatedAt     time.Time  `json:"updated_at"`
}

// Production is a staged theatrical event.
type Production struct {
	ID               uuid.UUID   `json:"id"`
	Title            string      `json:"title"`
	Slug             string      `json:"slug"`
	Body             string      `json:"body"`
	Excerpt          string      `json:"excerpt"`
	Status           Status      `json:"status"`
	AuthorID         string      `json:"author_id"`
	PerformanceDates []string    `json:"performance_dates"`
	VenueID          *uuid.UUID  `json:"venue_id,omitempty"`
	BylineIDs        []uuid.UUID `json:"byline_ids"`
	IsFeatured       bool        `json:"is_featured"`
	ThumbnailID      *uuid.UUID  `json:"thumbnail_id,omitempty"`
	TicketLink       string      `json:"ticket_link,omitempty"`
	Categories       []string    `json:"categories"`
	CreatedAt        time.Time   `json:"created_at"`
	UpdatedAt        time.Time   `json:"updated_at"`
}

// Venue is a physical performance location.
type Venue struct {
	ID      uuid.UUID `json:"id"`
	Title   string    `json:"title"`
	Slug    string    `json:"slug"`
	Content string    `json:"content"`
	Status  Status    `json:"status"`
}

// Byline is a cast or crew member.
type Byline struct {
	ID          uuid.UUID         `json:"id"`
	Name        string            `json:"name"`
	Slug        string            `json:"slug"`
	Bio         string            `json:"bio"`
	ThumbnailID *uuid.UUID        `json:"thumbnail_id,omitempty"`
	SocialLinks map[string]string `json:"social_links"`
	Status      Status            `json:"status"`
}

// Social platforms accepted in Byline.SocialLinks.
var SocialPlatforms = []string{"twitter", "facebook", "instagram", "linkedin"}

// Media describes a stored asset. The bytes live in a BlobStore.
type Media struct {
	ID        uuid.UUID `json:"id"`
	Title     string    `json:"title"`
	FileName  string    `json:"file_name"`
	MimeType  string    `json:"mime_type"`
	Alt       string    `json:"alt"`
	ObjectKey string    `json:"object_key"`
	Backend   string    `json:"backend"`
}

// Menu is a named navigation menu.
type Menu struct {
	ID   uuid.UUID `json:"id"`
	Name string    `json:"name"`
	Slug string    `json:"slug"`
}

// Menu item types.
const (
	MenuItemCustom   = "custom"
	MenuItemPostType = "post_type"
)
