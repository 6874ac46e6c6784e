package theatre

import (
	"context"
	"io"

	"github.com/google/uuid"
)

// Service defines the main interface for the theatre content library
type Service interface {
	// Production read operations
	ProjectProduction(ctx context.Context, id uuid.UUID, opts ...ProjectOption) (*ProductionView, error)
	ListProductions(ctx context.Context, filter ProductionFilter) ([]*ProductionView, error)
	ProductionTimeline(ctx context.Context) ([]TimelineYear, error)

	// Production authoring
	CreateProduction(ctx context.Context, req CreateProductionRequest) (*Production, error)
	GetProduction(ctx context.Context, id uuid.UUID) (*Production, error)
	UpdateProduction(ctx context.Context, req UpdateProductionRequest) (*Production, error)
	DeleteProduction(ctx context.Context, id uuid.UUID) error
	SetPerformanceDates(ctx context.Context, id uuid.UUID, dates []string) ([]string, error)

	// Pages and conversion
	CreatePage(ctx context.Context, req CreatePageRequest) (*Page, error)
	GetPage(ctx context.Context, id uuid.UUID) (*Page, error)
	ConvertPageToProduction(ctx context.Context, pageID uuid.UUID, deleteOriginal bool) (*ConversionResult, error)

	// Venues and bylines
	CreateVenue(ctx context.Context, name, address string) (*VenueSummary, error)
	GetVenue(ctx context.Context, id uuid.UUID) (*Venue, error)
	ListVenues(ctx context.Context) ([]*Venue, error)
	CreateByline(ctx context.Context, req CreateBylineRequest) (*Byline, error)
	GetByline(ctx context.Context, id uuid.UUID) (*BylineView, error)

	// Media
	UploadMedia(ctx context.Context, req UploadMediaRequest) (*MediaView, error)
	OpenMedia(ctx context.Context, id uuid.UUID) (io.ReadCloser, *Media, error)

	// Navigation menus
	GetMenuByLocation(ctx context.Context, location string) (*MenuView, error)
	GetMenus(ctx context.Context) (map[string]*MenuView, error)
	CreateMenu(ctx context.Context, name string) (*Menu, error)
	AddMenuItem(ctx context.Context, req AddMenuItemRequest) (*MenuItemView, error)
	AssignMenuLocation(ctx context.Context, location string, menuID uuid.UUID) error

	// Hero media
	GetHeroMedia(ctx context.Context) (*HeroView, error)
	UpdateHeroSettings(ctx context.Context, settings HeroSettings) error

	// Maintenance
	CleanupContent(ctx context.Context) (*CleanupResult, error)
}
