package theatre

import (
	"context"
	"slices"
	"strings"

	"github.com/google/uuid"
)

func venueFromItem(item *Item) *Venue {
	return &Venue{
		ID:      item.ID,
		Title:   item.Title,
		Slug:    item.Slug,
		Content: item.Body,
		Status:  item.Status,
	}
}

// CreateVenue creates a published venue. It does not link the venue to any
// production.
func (s *service) CreateVenue(ctx context.Context, name, address string) (*VenueSummary, error) {
	if err := Authorize(ctx, CapEditPosts); err != nil {
		return nil, err
	}
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, invalid("name", "venue name is required")
	}

	p, _ := PrincipalFromContext(ctx)
	item := &Item{
		Kind:          KindVenue,
		Title:         name,
		Body:          strings.TrimSpace(address),
		Status:        StatusPublished,
		AuthorID:      p.UserID,
		CommentStatus: DiscussionClosed,
		PingStatus:    DiscussionClosed,
	}
	if err := s.createItem(ctx, item, nil); err != nil {
		return nil, err
	}
	return &VenueSummary{ID: item.ID.String(), Title: item.Title}, nil
}

func (s *service) GetVenue(ctx context.Context, id uuid.UUID) (*Venue, error) {
	item, err := s.getItemOfKind(ctx, id, KindVenue)
	if err != nil {
		return nil, err
	}
	if item.Status == StatusTrashed {
		return nil, &ItemError{ItemID: id, Kind: KindVenue, Op: "get", Err: ErrNotFound}
	}
	return venueFromItem(item), nil
}

// ListVenues returns published venues ordered by title.
func (s *service) ListVenues(ctx context.Context) ([]*Venue, error) {
	items, err := s.repository.ListItems(ctx, ItemQuery{
		Kinds:    []Kind{KindVenue},
		Statuses: []Status{StatusPublished},
	})
	if err != nil {
		return nil, err
	}
	venues := make([]*Venue, 0, len(items))
	for _, item := range items {
		venues = append(venues, venueFromItem(item))
	}
	slices.SortStableFunc(venues, func(a, b *Venue) int {
		return strings.Compare(strings.ToLower(a.Title), strings.ToLower(b.Title))
	})
	return venues, nil
}
