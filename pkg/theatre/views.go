package theatre

// Read-side projections returned by the Service. These are shaped for API
// serialization; identifiers are rendered as strings.

// FeaturedImage is a resolved thumbnail.
type FeaturedImage struct {
	URL string `json:"url"`
	Alt string `json:"alt"`
}

// BylineView is a resolved byline attached to a production.
type BylineView struct {
	ID          string            `json:"id"`
	Name        string            `json:"name"`
	Slug        string            `json:"slug"`
	Bio         string            `json:"bio,omitempty"`
	Image       *FeaturedImage    `json:"image,omitempty"`
	SocialLinks map[string]string `json:"social_links"`
}

// ProductionView is a fully resolved production.
type ProductionView struct {
	ID               string        `json:"id"`
	Title            string        `json:"title"`
	Slug             string        `json:"slug"`
	Status           Status        `json:"status"`
	Content          string        `json:"content"`
	Excerpt          string        `json:"excerpt"`
	FeaturedImage    FeaturedImage `json:"featured_image"`
	Venue            string        `json:"venue"`
	PerformanceDates []string      `json:"performance_dates"`
	TicketLink       *string       `json:"ticket_link"`
	IsFeatured       bool          `json:"is_featured"`
	Bylines          []BylineView  `json:"bylines"`
	Categories       []string      `json:"categories"`
}

// ProductionSummary identifies a production created by a conversion.
type ProductionSummary struct {
	ID     string `json:"id"`
	Title  string `json:"title"`
	Slug   string `json:"slug"`
	Status Status `json:"status"`
}

// ConversionResult is returned by ConvertPageToProduction.
type ConversionResult struct {
	Production          ProductionSummary `json:"production"`
	OriginalPageDeleted bool              `json:"original_page_deleted"`
}

// TimelineYear groups productions by the year of their first performance.
type TimelineYear struct {
	Year        int               `json:"year"`
	Productions []*ProductionView `json:"productions"`
}

// VenueSummary is returned by CreateVenue.
type VenueSummary struct {
	ID    string `json:"id"`
	Title string `json:"title"`
}

// MediaView is a stored asset with its public URL.
type MediaView struct {
	ID       string `json:"id"`
	Title    string `json:"title"`
	FileName string `json:"file_name"`
	MimeType string `json:"mime_type"`
	Alt      string `json:"alt"`
	URL      string `json:"url"`
}

// MenuItemView is one entry of a navigation menu. Parent refers to another
// entry's ID, or is empty for top-level entries.
type MenuItemView struct {
	ID          string   `json:"id"`
	Title       string   `json:"title"`
	URL         string   `json:"url"`
	Target      string   `json:"target"`
	Classes     []string `json:"classes"`
	Description string   `json:"description"`
	Parent      string   `json:"parent"`
	Order       int      `json:"order"`
	Type        string   `json:"type"`
	TypeLabel   string   `json:"type_label"`
	Object      string   `json:"object"`
	ObjectID    string   `json:"object_id"`
}

// MenuView is a navigation menu with its entries ordered by Order.
type MenuView struct {
	ID    string         `json:"id"`
	Name  string         `json:"name"`
	Items []MenuItemView `json:"items"`
}

// Hero media modes.
const (
	HeroModeImage    = "image"
	HeroModeVideo    = "video"
	HeroModeCarousel = "carousel"
)

// HeroView is the homepage hero configuration. Content holds a HeroImage,
// HeroVideo or HeroCarousel depending on Type.
type HeroView struct {
	Type     string        `json:"type"`
	Content  any           `json:"content"`
	Title    string        `json:"title"`
	Subtitle string        `json:"subtitle"`
	CTA      *CallToAction `json:"cta"`
}

// HeroImage is the content of an image hero.
type HeroImage struct {
	URL string `json:"url"`
	Alt string `json:"alt"`
}

// HeroVideo is the content of a video hero.
type HeroVideo struct {
	URL string `json:"url"`
}

// HeroCarousel is the content of a carousel hero. Interval is in milliseconds.
type HeroCarousel struct {
	Images   []HeroImage `json:"images"`
	Autoplay bool        `json:"autoplay"`
	Interval int         `json:"interval"`
}

// CallToAction is the optional hero button.
type CallToAction struct {
	Message string `json:"message"`
	Link    string `json:"link"`
}

// CleanupResult reports what CleanupContent removed.
type CleanupResult struct {
	Deleted map[Kind]int `json:"deleted"`
}
