package theatre

import (
	"context"
	"strings"

	"github.com/google/uuid"
)

func pageFromItem(item *Item, meta Metadata) *Page {
	if meta == nil {
		meta = Metadata{}
	}
	return &Page{
		ID:            item.ID,
		Title:         item.Title,
		Slug:          item.Slug,
		Body:          item.Body,
		Excerpt:       item.Excerpt,
		Status:        item.Status,
		AuthorID:      item.AuthorID,
		CommentStatus: item.CommentStatus,
		PingStatus:    item.PingStatus,
		ThumbnailID:   item.ThumbnailID,
		Metadata:      meta,
		CreatedAt:     item.CreatedAt,
		UpdatedAt:     item.UpdatedAt,
	}
}

func (s *service) CreatePage(ctx context.Context, req CreatePageRequest) (*Page, error) {
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
	for _, e := range req.Metadata {
		if strings.TrimSpace(e.Key) == "" {
			return nil, invalid("metadata", "metadata keys must not be empty")
		}
	}

	p, _ := PrincipalFromContext(ctx)
	item := &Item{
		Kind:          KindPage,
		Title:         title,
		Body:          req.Body,
		Excerpt:       req.Excerpt,
		Status:        status,
		AuthorID:      p.UserID,
		CommentStatus: discussion(req.CommentStatus),
		PingStatus:    discussion(req.PingStatus),
		ThumbnailID:   req.ThumbnailID,
	}
	if err := s.createItem(ctx, item, req.Metadata); err != nil {
		return nil, err
	}
	return pageFromItem(item, append(Metadata{}, req.Metadata...)), nil
}

func (s *service) GetPage(ctx context.Context, id uuid.UUID) (*Page, error) {
	item, err := s.getItemOfKind(ctx, id, KindPage)
	if err != nil {
		return nil, err
	}
	meta, err := s.repository.GetMeta(ctx, id)
	if err != nil {
		return nil, &ItemError{ItemID: id, Kind: KindPage, Op: "get meta", Err: err}
	}
	return pageFromItem(item, meta), nil
}

func discussion(v string) string {
	if v == DiscussionClosed {
		return DiscussionClosed
	}
	return DiscussionOpen
}
