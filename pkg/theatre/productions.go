package theatre

import (
	"context"
	"slices"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// productionFromItem decodes the production stored in item and meta.
func productionFromItem(item *Item, meta Metadata) *Production {
	p := &Production{
		ID:          item.ID,
		Title:       item.Title,
		Slug:        item.Slug,
		Body:        item.Body,
		Excerpt:     item.Excerpt,
		Status:      item.Status,
		AuthorID:    item.AuthorID,
		ThumbnailID: item.ThumbnailID,
		BylineIDs:   []uuid.UUID{},
		Categories:  []string{},
		CreatedAt:   item.CreatedAt,
		UpdatedAt:   item.UpdatedAt,
	}

	dates, _ := meta.Get(MetaPerformanceDates)
	p.PerformanceDates = decodePerformanceDates(dates)

	if v, ok := meta.Get(MetaVenue); ok {
		if id, err := uuid.Parse(v); err == nil && id != uuid.Nil {
			p.VenueID = &id
		}
	}
	if v, ok := meta.Get(MetaBylines); ok {
		for _, s := range decodeStrings(v) {
			if id, err := uuid.Parse(s); err == nil {
				p.BylineIDs = append(p.BylineIDs, id)
			}
		}
	}
	featured, _ := meta.Get(MetaFeatured)
	p.IsFeatured = featured == "1"
	p.TicketLink, _ = meta.Get(MetaTicketLink)
	if v, ok := meta.Get(MetaCategories); ok {
		p.Categories = decodeStrings(v)
	}
	return p
}

// project resolves the weak references of a production item.
func (s *service) project(ctx context.Context, item *Item) (*ProductionView, error) {
	meta, err := s.repository.GetMeta(ctx, item.ID)
	if err != nil {
		return nil, &ItemError{ItemID: item.ID, Kind: KindProduction, Op: "get meta", Err: err}
	}
	p := productionFromItem(item, meta)

	view := &ProductionView{
		ID:               p.ID.String(),
		Title:            p.Title,
		Slug:             p.Slug,
		Status:           p.Status,
		Content:          p.Body,
		Excerpt:          excerptFor(item),
		FeaturedImage:    FeaturedImage{Alt: p.Title},
		PerformanceDates: p.PerformanceDates,
		IsFeatured:       p.IsFeatured,
		Bylines:          []BylineView{},
		Categories:       p.Categories,
	}

	if p.ThumbnailID != nil {
		media, url, err := s.resolveMedia(ctx, *p.ThumbnailID)
		if err != nil {
			return nil, err
		}
		if media != nil {
			view.FeaturedImage.URL = url
			if media.Alt != "" {
				view.FeaturedImage.Alt = media.Alt
			}
		}
	}

	if p.VenueID != nil {
		venue, err := s.lookupItem(ctx, *p.VenueID, KindVenue)
		if err != nil {
			return nil, err
		}
		if venue != nil {
			view.Venue = venue.Title
		}
	}

	for _, id := range p.BylineIDs {
		byline, err := s.bylineView(ctx, id)
		if err != nil {
			return nil, err
		}
		if byline != nil {
			view.Bylines = append(view.Bylines, *byline)
		}
	}

	if p.TicketLink != "" {
		link := p.TicketLink
		view.TicketLink = &link
	}
	return view, nil
}

func (s *service) ProjectProduction(ctx context.Context, id uuid.UUID, opts ...ProjectOption) (*ProductionView, error) {
	ctx, span := s.tracer.Start(ctx, "theatre.ProjectProduction",
		trace.WithAttributes(attribute.String("production.id", id.String())))
	defer span.End()

	var o projectOptions
	for _, opt := range opts {
		opt(&o)
	}

	item, err := s.getItemOfKind(ctx, id, KindProduction)
	if err != nil {
		span.RecordError(err)
		return nil, err
	}
	if item.Status == StatusTrashed && !(o.includeTrashed && Authorize(ctx, CapEditPosts) == nil) {
		return nil, &ItemError{ItemID: id, Kind: KindProduction, Op: "get", Err: ErrNotFound}
	}

	view, err := s.project(ctx, item)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}
	return view, nil
}

func (s *service) ListProductions(ctx context.Context, filter ProductionFilter) ([]*ProductionView, error) {
	pageSize := filter.PageSize
	if pageSize <= 0 {
		pageSize = DefaultPageSize
	}
	if pageSize > MaxPageSize {
		pageSize = MaxPageSize
	}

	query := ItemQuery{
		Kinds:    []Kind{KindProduction},
		Statuses: []Status{StatusPublished},
		Limit:    pageSize,
	}
	if filter.Slug != "" {
		query.Slug = filter.Slug
		query.Limit = 1
	}
	if filter.FeaturedOnly {
		query.MetaKey = MetaFeatured
		query.MetaValue = "1"
	}
	category := strings.TrimSpace(filter.Category)
	if category != "" {
		query.Limit = 0
	}

	items, err := s.repository.ListItems(ctx, query)
	if err != nil {
		return nil, err
	}

	views := make([]*ProductionView, 0, len(items))
	for _, item := range items {
		view, err := s.project(ctx, item)
		if err != nil {
			return nil, err
		}
		if category != "" && !hasCategory(view.Categories, category) {
			continue
		}
		views = append(views, view)
		if len(views) == pageSize {
			break
		}
	}
	return views, nil
}

func hasCategory(categories []string, want string) bool {
	return slices.ContainsFunc(categories, func(c string) bool {
		return strings.EqualFold(c, want) || Slugify(c) == Slugify(want)
	})
}

func (s *service) ProductionTimeline(ctx context.Context) ([]TimelineYear, error) {
	items, err := s.repository.ListItems(ctx, ItemQuery{
		Kinds:    []Kind{KindProduction},
		Statuses: []Status{StatusPublished},
	})
	if err != nil {
		return nil, err
	}

	var dated []*ProductionView
	for _, item := range items {
		view, err := s.project(ctx, item)
		if err != nil {
			return nil, err
		}
		if len(view.PerformanceDates) > 0 {
			dated = append(dated, view)
		}
	}
	slices.SortStableFunc(dated, func(a, b *ProductionView) int {
		return strings.Compare(b.PerformanceDates[0], a.PerformanceDates[0])
	})

	timeline := []TimelineYear{}
	for _, view := range dated {
		year := yearOf(view.PerformanceDates[0])
		if n := len(timeline); n == 0 || timeline[n-1].Year != year {
			timeline = append(timeline, TimelineYear{Year: year})
		}
		last := &timeline[len(timeline)-1]
		last.Productions = append(last.Productions, view)
	}
	return timeline, nil
}

func yearOf(date string) int {
	t, err := time.Parse(DateLayout, date)
	if err != nil {
		return 0
	}
	return t.Year()
}

func (s *service) CreateProduction(ctx context.Context, req CreateProductionRequest) (*Production, error) {
	if err := Authorize(ctx, CapEditPosts); err != nil {
		return nil, err
	}
	title := strings.TrimSpace(req.Title)
	if title == "" {
		return nil, invalid("title", "title is required")
	}
	status := req.Status
	if status == "" {
		status = StatusDraft
	}
	if !status.Valid() {
		return nil, invalid("status", "unknown status "+string(status))
	}
	dates, err := NormalizePerformanceDates(req.PerformanceDates)
	if err != nil {
		return nil, err
	}

	meta := Metadata{{Key: MetaPerformanceDates, Value: encodeStrings(dates)}}
	if req.VenueID != nil {
		meta = append(meta, MetaEntry{Key: MetaVenue, Value: req.VenueID.String()})
	}
	meta = append(meta,
		MetaEntry{Key: MetaBylines, Value: encodeUUIDs(req.BylineIDs)},
		MetaEntry{Key: MetaFeatured, Value: flag(req.IsFeatured)},
	)
	if link := strings.TrimSpace(req.TicketLink); link != "" {
		meta = append(meta, MetaEntry{Key: MetaTicketLink, Value: link})
	}
	if len(req.Categories) > 0 {
		meta = append(meta, MetaEntry{Key: MetaCategories, Value: encodeStrings(req.Categories)})
	}

	p, _ := PrincipalFromContext(ctx)
	item := &Item{
		Kind:          KindProduction,
		Title:         title,
		Body:          req.Body,
		Excerpt:       req.Excerpt,
		Status:        status,
		AuthorID:      p.UserID,
		CommentStatus: DiscussionClosed,
		PingStatus:    DiscussionClosed,
		ThumbnailID:   req.ThumbnailID,
	}
	if err := s.createItem(ctx, item, meta); err != nil {
		return nil, err
	}
	return productionFromItem(item, meta), nil
}

func (s *service) GetProduction(ctx context.Context, id uuid.UUID) (*Production, error) {
	item, err := s.getItemOfKind(ctx, id, KindProduction)
	if err != nil {
		return nil, err
	}
	meta, err := s.repository.GetMeta(ctx, id)
	if err != nil {
		return nil, &ItemError{ItemID: id, Kind: KindProduction, Op: "get meta", Err: err}
	}
	return productionFromItem(item, meta), nil
}

func (s *service) UpdateProduction(ctx context.Context, req UpdateProductionRequest) (*Production, error) {
	if err := Authorize(ctx, CapEditPosts); err != nil {
		return nil, err
	}
	item, err := s.getItemOfKind(ctx, req.ID, KindProduction)
	if err != nil {
		return nil, err
	}

	// Validate everything before the first write.
	if req.Title != nil && strings.TrimSpace(*req.Title) == "" {
		return nil, invalid("title", "title is required")
	}
	if req.Status != nil && !req.Status.Valid() {
		return nil, invalid("status", "unknown status "+string(*req.Status))
	}
	var dates []string
	if req.PerformanceDates != nil {
		if dates, err = NormalizePerformanceDates(req.PerformanceDates); err != nil {
			return nil, err
		}
	}

	var metaSets []MetaEntry
	var metaClears []string
	if dates != nil {
		metaSets = append(metaSets, MetaEntry{Key: MetaPerformanceDates, Value: encodeStrings(dates)})
	}
	switch {
	case req.ClearVenue:
		metaClears = append(metaClears, MetaVenue)
	case req.VenueID != nil:
		metaSets = append(metaSets, MetaEntry{Key: MetaVenue, Value: req.VenueID.String()})
	}
	if req.BylineIDs != nil {
		metaSets = append(metaSets, MetaEntry{Key: MetaBylines, Value: encodeUUIDs(req.BylineIDs)})
	}
	if req.IsFeatured != nil {
		metaSets = append(metaSets, MetaEntry{Key: MetaFeatured, Value: flag(*req.IsFeatured)})
	}
	if req.TicketLink != nil {
		if link := strings.TrimSpace(*req.TicketLink); link != "" {
			metaSets = append(metaSets, MetaEntry{Key: MetaTicketLink, Value: link})
		} else {
			metaClears = append(metaClears, MetaTicketLink)
		}
	}
	if req.Categories != nil {
		metaSets = append(metaSets, MetaEntry{Key: MetaCategories, Value: encodeStrings(req.Categories)})
	}

	if req.Title != nil {
		item.Title = strings.TrimSpace(*req.Title)
	}
	if req.Body != nil {
		item.Body = *req.Body
	}
	if req.Excerpt != nil {
		item.Excerpt = *req.Excerpt
	}
	if req.Status != nil {
		item.Status = *req.Status
	}
	if req.ThumbnailID != nil {
		if *req.ThumbnailID == uuid.Nil {
			item.ThumbnailID = nil
		} else {
			thumb := *req.ThumbnailID
			item.ThumbnailID = &thumb
		}
	}

	for _, e := range metaSets {
		if err := s.repository.SetMeta(ctx, item.ID, e.Key, e.Value); err != nil {
			return nil, &ItemError{ItemID: item.ID, Kind: KindProduction, Op: "set meta", Err: err}
		}
	}
	for _, key := range metaClears {
		if err := s.repository.SetMeta(ctx, item.ID, key); err != nil {
			return nil, &ItemError{ItemID: item.ID, Kind: KindProduction, Op: "set meta", Err: err}
		}
	}
	if err := s.updateItem(ctx, item); err != nil {
		return nil, err
	}
	return s.GetProduction(ctx, item.ID)
}

func (s *service) DeleteProduction(ctx context.Context, id uuid.UUID) error {
	if err := Authorize(ctx, CapEditPosts); err != nil {
		return err
	}
	item, err := s.getItemOfKind(ctx, id, KindProduction)
	if err != nil {
		return err
	}
	return s.deleteItem(ctx, item)
}

func (s *service) SetPerformanceDates(ctx context.Context, id uuid.UUID, dates []string) ([]string, error) {
	if err := Authorize(ctx, CapEditPosts); err != nil {
		return nil, err
	}
	item, err := s.getItemOfKind(ctx, id, KindProduction)
	if err != nil {
		return nil, err
	}
	normalized, err := NormalizePerformanceDates(dates)
	if err != nil {
		return nil, err
	}
	if err := s.repository.SetMeta(ctx, id, MetaPerformanceDates, encodeStrings(normalized)); err != nil {
		return nil, &ItemError{ItemID: id, Kind: KindProduction, Op: "set meta", Err: err}
	}
	if err := s.updateItem(ctx, item); err != nil {
		return nil, err
	}
	return normalized, nil
}

func encodeUUIDs(ids []uuid.UUID) string {
	values := make([]string, 0, len(ids))
	for _, id := range ids {
		values = append(values, id.String())
	}
	return encodeStrings(values)
}

func flag(b bool) string {
	if b {
		return "1"
	}
	return "0"
}
