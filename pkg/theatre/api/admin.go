package api

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"
	"github.com/google/uuid"
	"github.com/tendant/simple-theatre/pkg/theatre"
	"github.com/tendant/simple-theatre/pkg/theatre/nonce"
)

// NonceHeader carries anti-forgery tokens for the nonce protected actions.
const NonceHeader = "X-Theatre-Nonce"

// Nonce actions.
const (
	ActionConvertPages  = "convert-pages"
	ActionQuickAddVenue = "quick-add-venue"
)

const maxUploadMemory = 32 << 20

// AdminHandler serves authoring routes. Every route requires an
// authenticated principal and most require a capability.
type AdminHandler struct {
	service theatre.Service
	nonces  *nonce.Issuer
	logger  *slog.Logger
}

// NewAdminHandler creates a new admin handler
func NewAdminHandler(service theatre.Service, nonces *nonce.Issuer, logger *slog.Logger) *AdminHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &AdminHandler{service: service, nonces: nonces, logger: logger}
}

// Routes returns the routes mounted under /admin
func (h *AdminHandler) Routes() chi.Router {
	r := chi.NewRouter()

	r.Get("/nonce", h.IssueNonce)

	r.Group(func(r chi.Router) {
		r.Use(RequireCapability(theatre.CapEditPosts))

		r.Post("/pages", h.CreatePage)
		r.Get("/pages/{id}", h.GetPage)

		r.Post("/productions", h.CreateProduction)
		r.Post("/productions/bulk-convert", h.BulkConvert)
		r.Get("/productions/{id}", h.GetProduction)
		r.Put("/productions/{id}", h.UpdateProduction)
		r.Delete("/productions/{id}", h.DeleteProduction)
		r.Put("/productions/{id}/performance-dates", h.SetPerformanceDates)

		r.Post("/venues", h.QuickAddVenue)
		r.Post("/bylines", h.CreateByline)
		r.Post("/media", h.UploadMedia)
	})

	r.Group(func(r chi.Router) {
		r.Use(RequireCapability(theatre.CapManageOptions))

		r.Put("/hero-media", h.UpdateHeroMedia)

		r.Post("/menus", h.CreateMenu)
		r.Post("/menus/{id}/items", h.AddMenuItem)
		r.Put("/menu-locations/{location}", h.AssignMenuLocation)

		r.Post("/cleanup", h.Cleanup)
	})

	return r
}

func decodeJSON(r *http.Request, v interface{}) error {
	if err := render.DecodeJSON(r.Body, v); err != nil && !errors.Is(err, io.EOF) {
		return err
	}
	return nil
}

func optionalUUID(s *string) (*uuid.UUID, error) {
	if s == nil || *s == "" {
		return nil, nil
	}
	id, err := uuid.Parse(*s)
	if err != nil {
		return nil, errBadID
	}
	return &id, nil
}

func uuidList(ids []string) ([]uuid.UUID, error) {
	if ids == nil {
		return nil, nil
	}
	out := make([]uuid.UUID, 0, len(ids))
	for _, s := range ids {
		id, err := uuid.Parse(s)
		if err != nil {
			return nil, errBadID
		}
		out = append(out, id)
	}
	return out, nil
}

// parseDates accepts either a JSON array of dates or a comma separated
// string. A missing value reports ok=false.
func parseDates(raw json.RawMessage) (dates []string, ok bool, err error) {
	if len(raw) == 0 || string(raw) == "null" {
		return nil, false, nil
	}
	var list []string
	if err := json.Unmarshal(raw, &list); err == nil {
		return list, true, nil
	}
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return nil, false, errors.New("performance_dates must be a list or a comma separated string")
	}
	if strings.TrimSpace(s) == "" {
		return []string{}, true, nil
	}
	return []string{s}, true, nil
}

func (h *AdminHandler) principal(r *http.Request) theatre.Principal {
	p, _ := theatre.PrincipalFromContext(r.Context())
	return p
}

// checkNonce verifies the token from the header or the body value
func (h *AdminHandler) checkNonce(w http.ResponseWriter, r *http.Request, action, fromBody string) bool {
	value := r.Header.Get(NonceHeader)
	if value == "" {
		value = fromBody
	}
	if h.nonces == nil {
		return true
	}
	if err := h.nonces.Verify(value, action, h.principal(r).UserID); err != nil {
		h.logger.WarnContext(r.Context(), "rejected nonce", "action", action, "error", err)
		writeErrorCode(w, r, http.StatusForbidden, theatre.CodeForbidden, "invalid or expired nonce")
		return false
	}
	return true
}

// IssueNonce returns a token for the action named in the query string
func (h *AdminHandler) IssueNonce(w http.ResponseWriter, r *http.Request) {
	action := r.URL.Query().Get("action")
	if action == "" {
		badRequest(w, r, "action is required")
		return
	}
	if h.nonces == nil {
		writeErrorCode(w, r, http.StatusNotFound, theatre.CodeNotFound, "nonces are not configured")
		return
	}
	tok, err := h.nonces.Issue(action, h.principal(r).UserID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	render.JSON(w, r, tok)
}

type pageRequest struct {
	Title         string              `json:"title"`
	Body          string              `json:"body"`
	Excerpt       string              `json:"excerpt"`
	Status        string              `json:"status"`
	CommentStatus string              `json:"comment_status"`
	PingStatus    string              `json:"ping_status"`
	ThumbnailID   *string             `json:"thumbnail_id"`
	Metadata      []theatre.MetaEntry `json:"metadata"`
}

func (h *AdminHandler) CreatePage(w http.ResponseWriter, r *http.Request) {
	var req pageRequest
	if err := decodeJSON(r, &req); err != nil {
		badRequest(w, r, err.Error())
		return
	}
	thumb, err := optionalUUID(req.ThumbnailID)
	if err != nil {
		badRequest(w, r, "invalid thumbnail_id")
		return
	}
	page, err := h.service.CreatePage(r.Context(), theatre.CreatePageRequest{
		Title:         req.Title,
		Body:          req.Body,
		Excerpt:       req.Excerpt,
		Status:        theatre.Status(req.Status),
		CommentStatus: req.CommentStatus,
		PingStatus:    req.PingStatus,
		ThumbnailID:   thumb,
		Metadata:      req.Metadata,
	})
	if err != nil {
		writeError(w, r, err)
		return
	}
	render.Status(r, http.StatusCreated)
	render.JSON(w, r, page)
}

func (h *AdminHandler) GetPage(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r, "id")
	if err != nil {
		badRequest(w, r, "invalid page id")
		return
	}
	page, err := h.service.GetPage(r.Context(), id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	render.JSON(w, r, page)
}

type productionRequest struct {
	Title            *string         `json:"title"`
	Body             *string         `json:"body"`
	Excerpt          *string         `json:"excerpt"`
	Status           *string         `json:"status"`
	PerformanceDates json.RawMessage `json:"performance_dates"`
	VenueID          *string         `json:"venue_id"`
	BylineIDs        []string        `json:"byline_ids"`
	IsFeatured       *bool           `json:"is_featured"`
	ThumbnailID      *string         `json:"thumbnail_id"`
	TicketLink       *string         `json:"ticket_link"`
	Categories       []string        `json:"categories"`
}

func deref[T any](p *T) T {
	var zero T
	if p == nil {
		return zero
	}
	return *p
}

func (h *AdminHandler) CreateProduction(w http.ResponseWriter, r *http.Request) {
	var req productionRequest
	if err := decodeJSON(r, &req); err != nil {
		badRequest(w, r, err.Error())
		return
	}
	dates, _, err := parseDates(req.PerformanceDates)
	if err != nil {
		badRequest(w, r, err.Error())
		return
	}
	venue, err := optionalUUID(req.VenueID)
	if err != nil {
		badRequest(w, r, "invalid venue_id")
		return
	}
	thumb, err := optionalUUID(req.ThumbnailID)
	if err != nil {
		badRequest(w, r, "invalid thumbnail_id")
		return
	}
	bylines, err := uuidList(req.BylineIDs)
	if err != nil {
		badRequest(w, r, "invalid byline_ids")
		return
	}

	prod, err := h.service.CreateProduction(r.Context(), theatre.CreateProductionRequest{
		Title:            deref(req.Title),
		Body:             deref(req.Body),
		Excerpt:          deref(req.Excerpt),
		Status:           theatre.Status(deref(req.Status)),
		PerformanceDates: dates,
		VenueID:          venue,
		BylineIDs:        bylines,
		IsFeatured:       deref(req.IsFeatured),
		ThumbnailID:      thumb,
		TicketLink:       deref(req.TicketLink),
		Categories:       req.Categories,
	})
	if err != nil {
		writeError(w, r, err)
		return
	}
	render.Status(r, http.StatusCreated)
	render.JSON(w, r, prod)
}

// GetProduction projects a production including trashed ones
func (h *AdminHandler) GetProduction(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r, "id")
	if err != nil {
		badRequest(w, r, "invalid production id")
		return
	}
	view, err := h.service.ProjectProduction(r.Context(), id, theatre.IncludeTrashed())
	if err != nil {
		writeError(w, r, err)
		return
	}
	render.JSON(w, r, view)
}

// UpdateProduction applies a partial update. An empty venue_id unlinks the
// venue and an empty thumbnail_id clears the image.
func (h *AdminHandler) UpdateProduction(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r, "id")
	if err != nil {
		badRequest(w, r, "invalid production id")
		return
	}
	var req productionRequest
	if err := decodeJSON(r, &req); err != nil {
		badRequest(w, r, err.Error())
		return
	}

	update := theatre.UpdateProductionRequest{
		ID:         id,
		Title:      req.Title,
		Body:       req.Body,
		Excerpt:    req.Excerpt,
		IsFeatured: req.IsFeatured,
		TicketLink: req.TicketLink,
		Categories: req.Categories,
	}
	if req.Status != nil {
		status := theatre.Status(*req.Status)
		update.Status = &status
	}
	if dates, ok, err := parseDates(req.PerformanceDates); err != nil {
		badRequest(w, r, err.Error())
		return
	} else if ok {
		update.PerformanceDates = dates
	}
	if req.VenueID != nil {
		if *req.VenueID == "" {
			update.ClearVenue = true
		} else if update.VenueID, err = optionalUUID(req.VenueID); err != nil {
			badRequest(w, r, "invalid venue_id")
			return
		}
	}
	if req.ThumbnailID != nil {
		if *req.ThumbnailID == "" {
			none := uuid.Nil
			update.ThumbnailID = &none
		} else if update.ThumbnailID, err = optionalUUID(req.ThumbnailID); err != nil {
			badRequest(w, r, "invalid thumbnail_id")
			return
		}
	}
	if update.BylineIDs, err = uuidList(req.BylineIDs); err != nil {
		badRequest(w, r, "invalid byline_ids")
		return
	}

	prod, err := h.service.UpdateProduction(r.Context(), update)
	if err != nil {
		writeError(w, r, err)
		return
	}
	render.JSON(w, r, prod)
}

func (h *AdminHandler) DeleteProduction(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r, "id")
	if err != nil {
		badRequest(w, r, "invalid production id")
		return
	}
	if err := h.service.DeleteProduction(r.Context(), id); err != nil {
		writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *AdminHandler) SetPerformanceDates(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r, "id")
	if err != nil {
		badRequest(w, r, "invalid production id")
		return
	}
	var req struct {
		Dates json.RawMessage `json:"performance_dates"`
	}
	if err := decodeJSON(r, &req); err != nil {
		badRequest(w, r, err.Error())
		return
	}
	dates, _, err := parseDates(req.Dates)
	if err != nil {
		badRequest(w, r, err.Error())
		return
	}
	stored, err := h.service.SetPerformanceDates(r.Context(), id, dates)
	if err != nil {
		writeError(w, r, err)
		return
	}
	render.JSON(w, r, map[string]interface{}{"performance_dates": stored})
}

// QuickAddVenue creates a venue from the production editor
func (h *AdminHandler) QuickAddVenue(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Name    string `json:"name"`
		Address string `json:"address"`
		Nonce   string `json:"nonce"`
	}
	if err := decodeJSON(r, &req); err != nil {
		badRequest(w, r, err.Error())
		return
	}
	if !h.checkNonce(w, r, ActionQuickAddVenue, req.Nonce) {
		return
	}
	venue, err := h.service.CreateVenue(r.Context(), req.Name, req.Address)
	if err != nil {
		writeError(w, r, err)
		return
	}
	render.Status(r, http.StatusCreated)
	render.JSON(w, r, venue)
}

func (h *AdminHandler) CreateByline(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Name        string            `json:"name"`
		Bio         string            `json:"bio"`
		ThumbnailID *string           `json:"thumbnail_id"`
		SocialLinks map[string]string `json:"social_links"`
	}
	if err := decodeJSON(r, &req); err != nil {
		badRequest(w, r, err.Error())
		return
	}
	thumb, err := optionalUUID(req.ThumbnailID)
	if err != nil {
		badRequest(w, r, "invalid thumbnail_id")
		return
	}
	byline, err := h.service.CreateByline(r.Context(), theatre.CreateBylineRequest{
		Name:        req.Name,
		Bio:         req.Bio,
		ThumbnailID: thumb,
		SocialLinks: req.SocialLinks,
	})
	if err != nil {
		writeError(w, r, err)
		return
	}
	render.Status(r, http.StatusCreated)
	render.JSON(w, r, byline)
}

// UploadMedia accepts a multipart form with a "file" part and optional
// title, alt, mime_type and backend fields.
func (h *AdminHandler) UploadMedia(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(maxUploadMemory); err != nil {
		badRequest(w, r, "expected multipart form: "+err.Error())
		return
	}
	file, header, err := r.FormFile("file")
	if err != nil {
		badRequest(w, r, "file is required")
		return
	}
	defer file.Close()

	view, err := h.service.UploadMedia(r.Context(), theatre.UploadMediaRequest{
		Title:    r.FormValue("title"),
		FileName: header.Filename,
		MimeType: r.FormValue("mime_type"),
		Alt:      r.FormValue("alt"),
		Backend:  r.FormValue("backend"),
		Reader:   file,
	})
	if err != nil {
		writeError(w, r, err)
		return
	}
	render.Status(r, http.StatusCreated)
	render.JSON(w, r, view)
}

func (h *AdminHandler) UpdateHeroMedia(w http.ResponseWriter, r *http.Request) {
	var settings theatre.HeroSettings
	if err := decodeJSON(r, &settings); err != nil {
		badRequest(w, r, err.Error())
		return
	}
	if err := h.service.UpdateHeroSettings(r.Context(), settings); err != nil {
		writeError(w, r, err)
		return
	}
	hero, err := h.service.GetHeroMedia(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	render.JSON(w, r, hero)
}

func (h *AdminHandler) CreateMenu(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Name string `json:"name"`
	}
	if err := decodeJSON(r, &req); err != nil {
		badRequest(w, r, err.Error())
		return
	}
	menu, err := h.service.CreateMenu(r.Context(), req.Name)
	if err != nil {
		writeError(w, r, err)
		return
	}
	render.Status(r, http.StatusCreated)
	render.JSON(w, r, menu)
}

func (h *AdminHandler) AddMenuItem(w http.ResponseWriter, r *http.Request) {
	menuID, err := parseID(r, "id")
	if err != nil {
		badRequest(w, r, "invalid menu id")
		return
	}
	var req struct {
		Title       string   `json:"title"`
		URL         string   `json:"url"`
		ObjectID    *string  `json:"object_id"`
		ParentID    *string  `json:"parent_id"`
		Target      string   `json:"target"`
		Classes     []string `json:"classes"`
		Description string   `json:"description"`
		Order       int      `json:"order"`
	}
	if err := decodeJSON(r, &req); err != nil {
		badRequest(w, r, err.Error())
		return
	}
	object, err := optionalUUID(req.ObjectID)
	if err != nil {
		badRequest(w, r, "invalid object_id")
		return
	}
	parent, err := optionalUUID(req.ParentID)
	if err != nil {
		badRequest(w, r, "invalid parent_id")
		return
	}
	item, err := h.service.AddMenuItem(r.Context(), theatre.AddMenuItemRequest{
		MenuID:      menuID,
		Title:       req.Title,
		URL:         req.URL,
		ObjectID:    object,
		ParentID:    parent,
		Target:      req.Target,
		Classes:     req.Classes,
		Description: req.Description,
		Order:       req.Order,
	})
	if err != nil {
		writeError(w, r, err)
		return
	}
	render.Status(r, http.StatusCreated)
	render.JSON(w, r, item)
}

func (h *AdminHandler) AssignMenuLocation(w http.ResponseWriter, r *http.Request) {
	var req struct {
		MenuID string `json:"menu_id"`
	}
	if err := decodeJSON(r, &req); err != nil {
		badRequest(w, r, err.Error())
		return
	}
	menuID, err := uuid.Parse(req.MenuID)
	if err != nil {
		badRequest(w, r, "invalid menu_id")
		return
	}
	location := chi.URLParam(r, "location")
	if err := h.service.AssignMenuLocation(r.Context(), location, menuID); err != nil {
		writeError(w, r, err)
		return
	}
	menu, err := h.service.GetMenuByLocation(r.Context(), location)
	if err != nil {
		writeError(w, r, err)
		return
	}
	render.JSON(w, r, menu)
}

func (h *AdminHandler) Cleanup(w http.ResponseWriter, r *http.Request) {
	result, err := h.service.CleanupContent(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	render.JSON(w, r, result)
}
