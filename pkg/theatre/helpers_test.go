package theatre_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"github.com/tendant/simple-theatre/pkg/theatre"
	"github.com/tendant/simple-theatre/pkg/theatre/repo/memory"
	"github.com/tendant/simple-theatre/pkg/theatre/settings"
	memorystorage "github.com/tendant/simple-theatre/pkg/theatre/storage/memory"
	"github.com/tendant/simple-theatre/pkg/theatre/urlstrategy"
)

var (
	editor = theatre.Principal{UserID: "editor", Capabilities: []theatre.Capability{theatre.CapEditPosts}}
	admin  = theatre.Principal{UserID: "admin", Capabilities: []theatre.Capability{theatre.CapManageOptions}}
)

func editorCtx() context.Context {
	return theatre.WithPrincipal(context.Background(), editor)
}

func adminCtx() context.Context {
	return theatre.WithPrincipal(context.Background(), admin)
}

// tickingClock advances one second per call so creation order is stable.
func tickingClock() func() time.Time {
	var mu sync.Mutex
	now := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	return func() time.Time {
		mu.Lock()
		defer mu.Unlock()
		now = now.Add(time.Second)
		return now
	}
}

// recordingSink remembers every event it receives.
type recordingSink struct {
	mu        sync.Mutex
	created   []theatre.Kind
	updated   []uuid.UUID
	deleted   []uuid.UUID
	converted []*theatre.ConversionResult
}

func (r *recordingSink) ItemCreated(ctx context.Context, item *theatre.Item) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.created = append(r.created, item.Kind)
	return nil
}

func (r *recordingSink) ItemUpdated(ctx context.Context, item *theatre.Item) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.updated = append(r.updated, item.ID)
	return nil
}

func (r *recordingSink) ItemDeleted(ctx context.Context, id uuid.UUID, kind theatre.Kind) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.deleted = append(r.deleted, id)
	return nil
}

func (r *recordingSink) PageConverted(ctx context.Context, pageID uuid.UUID, result *theatre.ConversionResult) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.converted = append(r.converted, result)
	return nil
}

type testEnv struct {
	svc      theatre.Service
	repo     theatre.Repository
	settings *settings.MemoryStore
	blobs    *memorystorage.Backend
	events   *recordingSink
}

func setupTestService(t *testing.T) *testEnv {
	t.Helper()
	return setupTestServiceWithRepo(t, memory.New())
}

func setupTestServiceWithRepo(t *testing.T, repo theatre.Repository) *testEnv {
	t.Helper()
	env := &testEnv{
		repo:     repo,
		settings: settings.NewMemoryStore(nil),
		blobs:    memorystorage.New(),
		events:   &recordingSink{},
	}
	svc, err := theatre.New(
		theatre.WithRepository(repo),
		theatre.WithSettingsStore(env.settings),
		theatre.WithBlobStore("memory", env.blobs),
		theatre.WithURLResolver(urlstrategy.NewContentBasedStrategy("/api/v1")),
		theatre.WithEventSink(env.events),
		theatre.WithClock(tickingClock()),
	)
	require.NoError(t, err)
	env.svc = svc
	return env
}

// flakyRepository fails selected operations of an in-memory repository.
type flakyRepository struct {
	*memory.Repository
	failCreateKind theatre.Kind
	failAddMeta    bool
	failUpdate     bool
}

var errStoreDown = errors.New("store unavailable")

func (f *flakyRepository) CreateItem(ctx context.Context, item *theatre.Item) error {
	if f.failCreateKind != "" && item.Kind == f.failCreateKind {
		return errStoreDown
	}
	return f.Repository.CreateItem(ctx, item)
}

func (f *flakyRepository) AddMeta(ctx context.Context, itemID uuid.UUID, key, value string) error {
	if f.failAddMeta {
		return errStoreDown
	}
	return f.Repository.AddMeta(ctx, itemID, key, value)
}

func (f *flakyRepository) UpdateItem(ctx context.Context, item *theatre.Item) error {
	if f.failUpdate {
		return errStoreDown
	}
	return f.Repository.UpdateItem(ctx, item)
}
