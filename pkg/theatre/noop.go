package theatre

import (
	"context"
	"log/slog"

	"github.com/google/uuid"
)

// NoopEventSink is a no-operation implementation of EventSink
type NoopEventSink struct{}

// NewNoopEventSink creates a new no-operation event sink
func NewNoopEventSink() EventSink {
	return &NoopEventSink{}
}

// ItemCreated does nothing and returns nil
func (n *NoopEventSink) ItemCreated(ctx context.Context, item *Item) error {
	return nil
}

// ItemUpdated does nothing and returns nil
func (n *NoopEventSink) ItemUpdated(ctx context.Context, item *Item) error {
	return nil
}

// ItemDeleted does nothing and returns nil
func (n *NoopEventSink) ItemDeleted(ctx context.Context, id uuid.UUID, kind Kind) error {
	return nil
}

// PageConverted does nothing and returns nil
func (n *NoopEventSink) PageConverted(ctx context.Context, pageID uuid.UUID, result *ConversionResult) error {
	return nil
}

// LoggingEventSink writes every event to a structured logger.
type LoggingEventSink struct {
	logger *slog.Logger
}

// NewLoggingEventSink returns an EventSink that logs at info level.
func NewLoggingEventSink(logger *slog.Logger) EventSink {
	if logger == nil {
		logger = slog.Default()
	}
	return &LoggingEventSink{logger: logger}
}

func (l *LoggingEventSink) ItemCreated(ctx context.Context, item *Item) error {
	l.logger.InfoContext(ctx, "item created", "id", item.ID, "kind", item.Kind, "slug", item.Slug)
	return nil
}

func (l *LoggingEventSink) ItemUpdated(ctx context.Context, item *Item) error {
	l.logger.InfoContext(ctx, "item updated", "id", item.ID, "kind", item.Kind, "status", item.Status)
	return nil
}

func (l *LoggingEventSink) ItemDeleted(ctx context.Context, id uuid.UUID, kind Kind) error {
	l.logger.InfoContext(ctx, "item deleted", "id", id, "kind", kind)
	return nil
}

func (l *LoggingEventSink) PageConverted(ctx context.Context, pageID uuid.UUID, result *ConversionResult) error {
	l.logger.InfoContext(ctx, "page converted",
		"page_id", pageID,
		"production_id", result.Production.ID,
		"original_page_deleted", result.OriginalPageDeleted)
	return nil
}

// MultiEventSink fans events out to several sinks. Every sink is called;
// the first error is returned.
type MultiEventSink []EventSink

func (m MultiEventSink) ItemCreated(ctx context.Context, item *Item) error {
	return m.each(func(s EventSink) error { return s.ItemCreated(ctx, item) })
}

func (m MultiEventSink) ItemUpdated(ctx context.Context, item *Item) error {
	return m.each(func(s EventSink) error { return s.ItemUpdated(ctx, item) })
}

func (m MultiEventSink) ItemDeleted(ctx context.Context, id uuid.UUID, kind Kind) error {
	return m.each(func(s EventSink) error { return s.ItemDeleted(ctx, id, kind) })
}

func (m MultiEventSink) PageConverted(ctx context.Context, pageID uuid.UUID, result *ConversionResult) error {
	return m.each(func(s EventSink) error { return s.PageConverted(ctx, pageID, result) })
}

func (m MultiEventSink) each(call func(EventSink) error) error {
	var first error
	for _, s := range m {
		if err := call(s); err != nil && first == nil {
			first = err
		}
	}
	return first
}
