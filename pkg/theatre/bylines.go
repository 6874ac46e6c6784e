package theatre

import (
	"context"
	"encoding/json"
	"slices"
	"strings"

	"github.com/google/uuid"
)

func bylineFromItem(item *Item, meta Metadata) *Byline {
	b := &Byline{
		ID:          item.ID,
		Name:        item.Title,
		Slug:        item.Slug,
		Bio:         item.Body,
		ThumbnailID: item.ThumbnailID,
		SocialLinks: map[string]string{},
		Status:      item.Status,
	}
	if v, ok := meta.Get(MetaSocialLinks); ok {
		_ = json.Unmarshal([]byte(v), &b.SocialLinks)
		if b.SocialLinks == nil {
			b.SocialLinks = map[string]string{}
		}
	}
	return b
}

func (s *service) CreateByline(ctx context.Context, req CreateBylineRequest) (*Byline, error) {
	if err := Authorize(ctx, CapEditPosts); err != nil {
		return nil, err
	}
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return nil, invalid("name", "byline name is required")
	}
	links := make(map[string]string, len(req.SocialLinks))
	for platform, url := range req.SocialLinks {
		platform = strings.ToLower(strings.TrimSpace(platform))
		if !slices.Contains(SocialPlatforms, platform) {
			return nil, invalid("social_links", "unsupported platform "+platform)
		}
		if url = strings.TrimSpace(url); url != "" {
			links[platform] = url
		}
	}
	encoded, err := json.Marshal(links)
	if err != nil {
		return nil, err
	}
	meta := Metadata{{Key: MetaSocialLinks, Value: string(encoded)}}

	p, _ := PrincipalFromContext(ctx)
	item := &Item{
		Kind:          KindByline,
		Title:         name,
		Body:          req.Bio,
		Status:        StatusPublished,
		AuthorID:      p.UserID,
		CommentStatus: DiscussionClosed,
		PingStatus:    DiscussionClosed,
		ThumbnailID:   req.ThumbnailID,
	}
	if err := s.createItem(ctx, item, meta); err != nil {
		return nil, err
	}
	return bylineFromItem(item, meta), nil
}

func (s *service) GetByline(ctx context.Context, id uuid.UUID) (*BylineView, error) {
	view, err := s.bylineView(ctx, id)
	if err != nil {
		return nil, err
	}
	if view == nil {
		return nil, &ItemError{ItemID: id, Kind: KindByline, Op: "get", Err: ErrNotFound}
	}
	return view, nil
}

// bylineView resolves a byline reference, returning nil when it dangles.
func (s *service) bylineView(ctx context.Context, id uuid.UUID) (*BylineView, error) {
	item, err := s.lookupItem(ctx, id, KindByline)
	if err != nil || item == nil {
		return nil, err
	}
	meta, err := s.repository.GetMeta(ctx, id)
	if err != nil {
		return nil, &ItemError{ItemID: id, Kind: KindByline, Op: "get meta", Err: err}
	}
	b := bylineFromItem(item, meta)
	view := &BylineView{
		ID:          b.ID.String(),
		Name:        b.Name,
		Slug:        b.Slug,
		Bio:         b.Bio,
		SocialLinks: b.SocialLinks,
	}
	if b.ThumbnailID != nil {
		media, url, err := s.resolveMedia(ctx, *b.ThumbnailID)
		if err != nil {
			return nil, err
		}
		if media != nil {
			alt := media.Alt
			if alt == "" {
				alt = b.Name
			}
			view.Image = &FeaturedImage{URL: url, Alt: alt}
		}
	}
	return view, nil
}
