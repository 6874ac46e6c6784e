package theatre

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"
)

const tracerName = "github.com/tendant/simple-theatre/pkg/theatre"

// service implements the Service interface
type service struct {
	repository     Repository
	settings       SettingsStore
	blobStores     map[string]BlobStore
	defaultBackend string
	urlResolver    MediaURLResolver
	eventSink      EventSink
	logger         *slog.Logger
	tracer         trace.Tracer
	siteURL        string
	now            func() time.Time
}

// Option represents a functional option for configuring the service
type Option func(*service)

// WithRepository sets the content store for the service
func WithRepository(repo Repository) Option {
	return func(s *service) {
		s.repository = repo
	}
}

// WithSettingsStore sets the site settings store
func WithSettingsStore(store SettingsStore) Option {
	return func(s *service) {
		s.settings = store
	}
}

// WithBlobStore adds a media storage backend. The first backend added
// becomes the default unless WithDefaultBackend is given.
func WithBlobStore(name string, store BlobStore) Option {
	return func(s *service) {
		if s.blobStores == nil {
			s.blobStores = make(map[string]BlobStore)
		}
		s.blobStores[name] = store
		if s.defaultBackend == "" {
			s.defaultBackend = name
		}
	}
}

// WithDefaultBackend selects the blob store used when an upload names none
func WithDefaultBackend(name string) Option {
	return func(s *service) {
		s.defaultBackend = name
	}
}

// WithURLResolver sets how media objects are turned into public URLs.
// Without one, the owning blob store's preview URL is used.
func WithURLResolver(resolver MediaURLResolver) Option {
	return func(s *service) {
		s.urlResolver = resolver
	}
}

// WithEventSink sets the event sink for the service
func WithEventSink(sink EventSink) Option {
	return func(s *service) {
		s.eventSink = sink
	}
}

// WithLogger sets the logger used for non-fatal failures
func WithLogger(logger *slog.Logger) Option {
	return func(s *service) {
		s.logger = logger
	}
}

// WithTracer overrides the OpenTelemetry tracer
func WithTracer(tracer trace.Tracer) Option {
	return func(s *service) {
		s.tracer = tracer
	}
}

// WithSiteURL sets the prefix used when building permalinks
func WithSiteURL(siteURL string) Option {
	return func(s *service) {
		s.siteURL = strings.TrimSuffix(siteURL, "/")
	}
}

// WithClock overrides the time source
func WithClock(now func() time.Time) Option {
	return func(s *service) {
		s.now = now
	}
}

// New creates a new service instance with the given options
func New(options ...Option) (Service, error) {
	s := &service{
		blobStores: make(map[string]BlobStore),
		eventSink:  NewNoopEventSink(),
		logger:     slog.Default(),
		tracer:     otel.Tracer(tracerName),
		now:        time.Now,
	}

	for _, option := range options {
		option(s)
	}

	if s.repository == nil {
		return nil, fmt.Errorf("repository is required")
	}
	if s.settings == nil {
		return nil, fmt.Errorf("settings store is required")
	}
	if s.defaultBackend != "" {
		if _, ok := s.blobStores[s.defaultBackend]; !ok {
			return nil, fmt.Errorf("default backend %q is not registered", s.defaultBackend)
		}
	}

	return s, nil
}

// Item helpers

// createItem stores item and its metadata. Timestamps, status and a unique
// slug are filled in.
func (s *service) createItem(ctx context.Context, item *Item, meta Metadata) error {
	now := s.now().UTC()
	item.CreatedAt = now
	item.UpdatedAt = now
	if item.Status == "" {
		item.Status = StatusDraft
	}
	slug, err := s.uniqueSlug(ctx, item.Kind, item.Title, uuid.Nil)
	if err != nil {
		return err
	}
	item.Slug = slug

	if err := s.repository.CreateItem(ctx, item); err != nil {
		return &ItemError{Kind: item.Kind, Op: "create", Err: fmt.Errorf("%w: %w", ErrCreationFailed, err)}
	}
	for _, e := range meta {
		if err := s.repository.AddMeta(ctx, item.ID, e.Key, e.Value); err != nil {
			return &ItemError{ItemID: item.ID, Kind: item.Kind, Op: "add meta", Err: err}
		}
	}

	s.fire(ctx, "item created", func() error { return s.eventSink.ItemCreated(ctx, item) })
	return nil
}

// getItemOfKind returns the item with the given id, or ErrNotFound when it
// is missing or of another kind.
func (s *service) getItemOfKind(ctx context.Context, id uuid.UUID, kind Kind) (*Item, error) {
	item, err := s.repository.GetItem(ctx, id)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, &ItemError{ItemID: id, Kind: kind, Op: "get", Err: ErrNotFound}
		}
		return nil, &ItemError{ItemID: id, Kind: kind, Op: "get", Err: err}
	}
	if item.Kind != kind {
		return nil, &ItemError{ItemID: id, Kind: kind, Op: "get", Err: ErrNotFound}
	}
	return item, nil
}

// lookupItem resolves a weak reference. A missing item is reported as nil
// without an error.
func (s *service) lookupItem(ctx context.Context, id uuid.UUID, kind Kind) (*Item, error) {
	item, err := s.repository.GetItem(ctx, id)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, nil
		}
		return nil, err
	}
	if item.Kind != kind || item.Status == StatusTrashed {
		return nil, nil
	}
	return item, nil
}

func (s *service) uniqueSlug(ctx context.Context, kind Kind, title string, self uuid.UUID) (string, error) {
	base := Slugify(title)
	if base == "" {
		base = strings.ReplaceAll(string(kind), "_", "-")
	}
	slug := base
	for n := 2; ; n++ {
		existing, err := s.repository.GetItemBySlug(ctx, kind, slug)
		if errors.Is(err, ErrNotFound) || (err == nil && existing.ID == self) {
			return slug, nil
		}
		if err != nil {
			return "", fmt.Errorf("check slug %q: %w", slug, err)
		}
		slug = fmt.Sprintf("%s-%d", base, n)
	}
}

func (s *service) updateItem(ctx context.Context, item *Item) error {
	item.UpdatedAt = s.now().UTC()
	if err := s.repository.UpdateItem(ctx, item); err != nil {
		return &ItemError{ItemID: item.ID, Kind: item.Kind, Op: "update", Err: err}
	}
	s.fire(ctx, "item updated", func() error { return s.eventSink.ItemUpdated(ctx, item) })
	return nil
}

func (s *service) deleteItem(ctx context.Context, item *Item) error {
	if err := s.repository.DeleteItem(ctx, item.ID); err != nil {
		return &ItemError{ItemID: item.ID, Kind: item.Kind, Op: "delete", Err: err}
	}
	s.fire(ctx, "item deleted", func() error { return s.eventSink.ItemDeleted(ctx, item.ID, item.Kind) })
	return nil
}

// fire delivers an event. Sink failures are logged and never fail the
// operation that produced the event.
func (s *service) fire(ctx context.Context, event string, send func() error) {
	if s.eventSink == nil {
		return
	}
	if err := send(); err != nil {
		s.logger.WarnContext(ctx, "event delivery failed", "event", event, "error", err)
	}
}

// permalink returns the public path of an item.
func (s *service) permalink(item *Item) string {
	switch item.Kind {
	case KindProduction:
		return fmt.Sprintf("%s/productions/%s/", s.siteURL, item.Slug)
	case KindVenue:
		return fmt.Sprintf("%s/venues/%s/", s.siteURL, item.Slug)
	case KindByline:
		return fmt.Sprintf("%s/bylines/%s/", s.siteURL, item.Slug)
	case KindMedia:
		return fmt.Sprintf("%s/media/%s", s.siteURL, item.ID)
	default:
		return fmt.Sprintf("%s/%s/", s.siteURL, item.Slug)
	}
}
