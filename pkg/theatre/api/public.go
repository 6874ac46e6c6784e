package api

import (
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"
	"github.com/google/uuid"
	"github.com/tendant/simple-theatre/pkg/theatre"
)

// PublicHandler serves the read-only site API
type PublicHandler struct {
	service theatre.Service
	logger  *slog.Logger
}

// NewPublicHandler creates a new public handler
func NewPublicHandler(service theatre.Service, logger *slog.Logger) *PublicHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &PublicHandler{service: service, logger: logger}
}

// Routes returns the JSON read routes
func (h *PublicHandler) Routes() chi.Router {
	r := chi.NewRouter()

	r.Get("/hero-media", h.GetHeroMedia)

	r.Get("/productions", h.ListProductions)
	r.Get("/productions/timeline", h.ProductionTimeline)
	r.Get("/productions/{id}", h.GetProduction)

	r.Get("/menus", h.GetMenus)
	r.Get("/menus/{location}", h.GetMenu)

	r.Get("/venues", h.ListVenues)
	r.Get("/venues/{id}", h.GetVenue)
	r.Get("/bylines/{id}", h.GetByline)

	return r
}

func parseID(r *http.Request, param string) (uuid.UUID, error) {
	id, err := uuid.Parse(chi.URLParam(r, param))
	if err != nil {
		return uuid.Nil, errBadID
	}
	return id, nil
}

// parseBool accepts the flag spellings used by query strings
func parseBool(s string) bool {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "1", "true", "yes", "on":
		return true
	}
	return false
}

// GetHeroMedia returns the homepage hero
func (h *PublicHandler) GetHeroMedia(w http.ResponseWriter, r *http.Request) {
	hero, err := h.service.GetHeroMedia(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	render.JSON(w, r, hero)
}

// ListProductions lists published productions. Query parameters:
// per_page, slug, featured and category. A slug match renders the single
// production object; no match renders an empty list.
func (h *PublicHandler) ListProductions(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	filter := theatre.ProductionFilter{
		Slug:         q.Get("slug"),
		FeaturedOnly: parseBool(q.Get("featured")),
		Category:     q.Get("category"),
	}
	if v := q.Get("per_page"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 {
			badRequest(w, r, "per_page must be a positive integer")
			return
		}
		filter.PageSize = n
	}

	views, err := h.service.ListProductions(r.Context(), filter)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if filter.Slug != "" && len(views) == 1 {
		render.JSON(w, r, views[0])
		return
	}
	if views == nil {
		views = []*theatre.ProductionView{}
	}
	render.JSON(w, r, views)
}

// ProductionTimeline groups productions by year
func (h *PublicHandler) ProductionTimeline(w http.ResponseWriter, r *http.Request) {
	years, err := h.service.ProductionTimeline(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	if years == nil {
		years = []theatre.TimelineYear{}
	}
	render.JSON(w, r, years)
}

// GetProduction projects one production. Editors may pass include_trashed=1.
func (h *PublicHandler) GetProduction(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r, "id")
	if err != nil {
		badRequest(w, r, "invalid production id")
		return
	}
	var opts []theatre.ProjectOption
	if parseBool(r.URL.Query().Get("include_trashed")) {
		opts = append(opts, theatre.IncludeTrashed())
	}
	view, err := h.service.ProjectProduction(r.Context(), id, opts...)
	if err != nil {
		writeError(w, r, err)
		return
	}
	render.JSON(w, r, view)
}

// GetMenus returns every assigned menu keyed by location
func (h *PublicHandler) GetMenus(w http.ResponseWriter, r *http.Request) {
	menus, err := h.service.GetMenus(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	render.JSON(w, r, menus)
}

// GetMenu returns the menu assigned to a location
func (h *PublicHandler) GetMenu(w http.ResponseWriter, r *http.Request) {
	menu, err := h.service.GetMenuByLocation(r.Context(), chi.URLParam(r, "location"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	render.JSON(w, r, menu)
}

func (h *PublicHandler) ListVenues(w http.ResponseWriter, r *http.Request) {
	venues, err := h.service.ListVenues(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	if venues == nil {
		venues = []*theatre.Venue{}
	}
	render.JSON(w, r, venues)
}

func (h *PublicHandler) GetVenue(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r, "id")
	if err != nil {
		badRequest(w, r, "invalid venue id")
		return
	}
	venue, err := h.service.GetVenue(r.Context(), id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	render.JSON(w, r, venue)
}

func (h *PublicHandler) GetByline(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r, "id")
	if err != nil {
		badRequest(w, r, "invalid byline id")
		return
	}
	byline, err := h.service.GetByline(r.Context(), id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	render.JSON(w, r, byline)
}

// StreamMedia writes the bytes of a media item
func (h *PublicHandler) StreamMedia(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r, "id")
	if err != nil {
		badRequest(w, r, "invalid media id")
		return
	}
	reader, media, err := h.service.OpenMedia(r.Context(), id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	defer reader.Close()

	w.Header().Set("Content-Type", media.MimeType)
	if media.FileName != "" {
		w.Header().Set("Content-Disposition", "inline; filename=\""+media.FileName+"\"")
	}
	w.Header().Set("Cache-Control", "public, max-age=86400")
	if _, err := io.Copy(w, reader); err != nil {
		h.logger.WarnContext(r.Context(), "media stream interrupted", "media_id", id, "error", err)
	}
}
