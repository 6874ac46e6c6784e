package theatre

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// ConvertPageToProduction creates a production from a page, copying its
// fields, thumbnail and every metadata value.
//
// A failure after the production was created is reported as an error
// wrapping ErrPartialConversion together with a non-nil result. The
// production is kept and the page is not deleted in that case.
func (s *service) ConvertPageToProduction(ctx context.Context, pageID uuid.UUID, deleteOriginal bool) (*ConversionResult, error) {
	ctx, span := s.tracer.Start(ctx, "theatre.ConvertPageToProduction",
		trace.WithAttributes(
			attribute.String("page.id", pageID.String()),
			attribute.Bool("delete_original", deleteOriginal),
		))
	defer span.End()

	fail := func(err error) error {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return err
	}

	page, err := s.repository.GetItem(ctx, pageID)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, fail(&ConversionError{PageID: pageID, Step: "resolve page", Err: ErrInvalidSource})
		}
		return nil, fail(&ConversionError{PageID: pageID, Step: "resolve page", Err: err})
	}
	if page.Kind != KindPage {
		return nil, fail(&ConversionError{PageID: pageID, Step: "resolve page",
			Err: fmt.Errorf("%w: item is a %s", ErrInvalidSource, page.Kind)})
	}
	if err := Authorize(ctx, CapEditPosts); err != nil {
		return nil, fail(&ConversionError{PageID: pageID, Step: "authorize", Err: err})
	}
	meta, err := s.repository.GetMeta(ctx, pageID)
	if err != nil {
		return nil, fail(&ConversionError{PageID: pageID, Step: "read metadata", Err: err})
	}

	production := &Item{
		Kind:          KindProduction,
		Title:         page.Title,
		Body:          page.Body,
		Excerpt:       page.Excerpt,
		Status:        page.Status,
		AuthorID:      page.AuthorID,
		CommentStatus: page.CommentStatus,
		PingStatus:    page.PingStatus,
	}
	if err := s.createItem(ctx, production, nil); err != nil {
		if !errors.Is(err, ErrCreationFailed) {
			err = fmt.Errorf("%w: %w", ErrCreationFailed, err)
		}
		return nil, fail(&ConversionError{PageID: pageID, Step: "create production", Err: err})
	}
	span.SetAttributes(attribute.String("production.id", production.ID.String()))

	result := &ConversionResult{
		Production: ProductionSummary{
			ID:     production.ID.String(),
			Title:  production.Title,
			Slug:   production.Slug,
			Status: production.Status,
		},
	}
	partial := func(step string, err error) error {
		return fail(&ConversionError{
			PageID:       pageID,
			ProductionID: production.ID,
			Step:         step,
			Err:          fmt.Errorf("%w: %w", ErrPartialConversion, err),
		})
	}

	var copyErr error
	if page.ThumbnailID != nil {
		thumb := *page.ThumbnailID
		production.ThumbnailID = &thumb
		if err := s.updateItem(ctx, production); err != nil {
			copyErr = partial("copy thumbnail", err)
		}
	}
	for _, e := range meta {
		if err := s.repository.AddMeta(ctx, production.ID, e.Key, e.Value); err != nil {
			if copyErr == nil {
				copyErr = partial("copy metadata "+e.Key, err)
			}
			break
		}
	}
	if copyErr != nil {
		s.logger.WarnContext(ctx, "page conversion incomplete",
			"page_id", pageID, "production_id", production.ID, "error", copyErr)
		return result, copyErr
	}

	if deleteOriginal {
		if err := s.deleteItem(ctx, page); err != nil {
			return result, partial("delete original", err)
		}
		result.OriginalPageDeleted = true
	}

	s.fire(ctx, "page converted", func() error { return s.eventSink.PageConverted(ctx, pageID, result) })
	return result, nil
}
