package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/jwtauth"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"github.com/tendant/simple-theatre/pkg/theatre"
	"github.com/tendant/simple-theatre/pkg/theatre/nonce"
	"github.com/tendant/simple-theatre/pkg/theatre/repo/memory"
	"github.com/tendant/simple-theatre/pkg/theatre/settings"
	memorystorage "github.com/tendant/simple-theatre/pkg/theatre/storage/memory"
	"github.com/tendant/simple-theatre/pkg/theatre/urlstrategy"
)

const testSecret = "test-secret"

// switchRepository fails AddMeta once failMeta is set
type switchRepository struct {
	*memory.Repository
	failMeta atomic.Bool
}

func (s *switchRepository) AddMeta(ctx context.Context, itemID uuid.UUID, key, value string) error {
	if s.failMeta.Load() {
		return errors.New("meta store unavailable")
	}
	return s.Repository.AddMeta(ctx, itemID, key, value)
}

type testServer struct {
	router chi.Router
	svc    theatre.Service
	repo   *switchRepository
	auth   *jwtauth.JWTAuth
}

func setupTestServer(t *testing.T, opts ...func(*Config)) *testServer {
	t.Helper()
	repo := &switchRepository{Repository: memory.New()}
	svc, err := theatre.New(
		theatre.WithRepository(repo),
		theatre.WithSettingsStore(settings.NewMemoryStore(nil)),
		theatre.WithBlobStore("memory", memorystorage.New()),
		theatre.WithURLResolver(urlstrategy.NewContentBasedStrategy(BasePath)),
	)
	require.NoError(t, err)

	nonces, err := nonce.NewIssuer(testSecret, time.Hour)
	require.NoError(t, err)

	cfg := Config{
		Service: svc,
		Auth:    jwtauth.New("HS256", []byte(testSecret), nil),
		Nonces:  nonces,
	}
	for _, opt := range opts {
		opt(&cfg)
	}
	return &testServer{router: NewRouter(cfg), svc: svc, repo: repo, auth: cfg.Auth}
}

// token signs a bearer token for user holding caps
func (s *testServer) token(t *testing.T, user string, caps ...string) string {
	t.Helper()
	claims := map[string]interface{}{"sub": user, "caps": caps}
	_, signed, err := s.auth.Encode(claims)
	require.NoError(t, err)
	return signed
}

func (s *testServer) editorToken(t *testing.T) string {
	return s.token(t, "editor", string(theatre.CapEditPosts))
}

func (s *testServer) adminToken(t *testing.T) string {
	return s.token(t, "admin", string(theatre.CapManageOptions))
}

func (s *testServer) do(t *testing.T, method, path, token string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(data)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)
	return w
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &v), w.Body.String())
	return v
}

func editorContext() context.Context {
	return theatre.WithPrincipal(context.Background(), theatre.Principal{
		UserID:       "editor",
		Capabilities: []theatre.Capability{theatre.CapEditPosts},
	})
}

func adminContext() context.Context {
	return theatre.WithPrincipal(context.Background(), theatre.Principal{
		UserID:       "admin",
		Capabilities: []theatre.Capability{theatre.CapManageOptions},
	})
}
