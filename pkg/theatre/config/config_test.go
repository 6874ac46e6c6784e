package config

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tendant/simple-theatre/pkg/theatre"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, "development", cfg.Environment)
	assert.Equal(t, DatabaseMemory, cfg.DatabaseType)
	assert.Equal(t, "content-based", cfg.URLStrategy)
	assert.Equal(t, 5*time.Minute, cfg.CacheTTL)
	assert.True(t, cfg.EventLogging)

	backends := cfg.Backends()
	require.Len(t, backends, 1)
	assert.Equal(t, StorageMemory, backends[0].Name)
}

func TestWithPort(t *testing.T) {
	cfg, err := Load(WithPort("9090"))
	require.NoError(t, err)
	assert.Equal(t, "9090", cfg.Port)

	_, err = Load(WithPort(""))
	assert.Error(t, err)
}

func TestWithDatabase(t *testing.T) {
	tests := []struct {
		name      string
		dbType    string
		url       string
		wantError bool
	}{
		{"memory valid", DatabaseMemory, "", false},
		{"postgres valid", DatabasePostgres, "postgresql://localhost/test", false},
		{"postgres missing url", DatabasePostgres, "", true},
		{"sqlite valid", DatabaseSQLite, "site.db", false},
		{"sqlite missing path", DatabaseSQLite, "", true},
		{"invalid type", "mysql", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg, err := Load(WithDatabase(tt.dbType, tt.url))
			if tt.wantError {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.dbType, cfg.DatabaseType)
		})
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		option Option
	}{
		{"s3 without bucket", func(c *ServerConfig) error { c.StorageBackend = StorageS3; return nil }},
		{"fs without dir", func(c *ServerConfig) error { c.StorageBackend = StorageFS; c.StorageDir = ""; return nil }},
		{"unknown storage", func(c *ServerConfig) error { c.StorageBackend = "ftp"; return nil }},
		{"cdn without base url", func(c *ServerConfig) error { c.URLStrategy = "cdn"; return nil }},
		{"unknown url strategy", func(c *ServerConfig) error { c.URLStrategy = "magic"; return nil }},
		{"production without secret", WithEnvironment("production")},
		{"negative burst", WithRateLimit(time.Second, -1)},
		{"duplicate backends", func(c *ServerConfig) error {
			c.StorageBackends = []StorageBackendConfig{
				{Name: "a", Type: StorageMemory},
				{Name: "a", Type: StorageMemory},
			}
			return nil
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(tt.option)
			assert.Error(t, err)
		})
	}

	_, err := Load(WithEnvironment("production"), WithSecrets("0123456789abcdef0123456789abcdef", ""))
	assert.NoError(t, err)
}

func TestWithEnv(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("PORT", "7070")
	t.Setenv("DATABASE_TYPE", "sqlite")
	t.Setenv("SQLITE_PATH", filepath.Join(dir, "theatre.db"))
	t.Setenv("STORAGE_BACKEND", "fs")
	t.Setenv("STORAGE_DIR", filepath.Join(dir, "media"))
	t.Setenv("CACHE_TTL", "30s")
	t.Setenv("RATE_LIMIT_BURST", "3")
	t.Setenv("S3_REGION", "eu-west-1")

	cfg, err := Load(WithEnv())
	require.NoError(t, err)

	assert.Equal(t, "7070", cfg.Port)
	assert.Equal(t, DatabaseSQLite, cfg.DatabaseType)
	assert.Equal(t, filepath.Join(dir, "theatre.db"), cfg.SQLitePath)
	assert.Equal(t, StorageFS, cfg.StorageBackend)
	assert.Equal(t, 30*time.Second, cfg.CacheTTL)
	assert.Equal(t, 3, cfg.RateLimitBurst)
	assert.Equal(t, "eu-west-1", cfg.S3.Region)
	assert.Equal(t, 3600, cfg.S3.PresignDuration)
	assert.True(t, cfg.EventLogging)
}

func TestWithEnv_InvalidValue(t *testing.T) {
	t.Setenv("RATE_LIMIT_BURST", "lots")

	_, err := Load(WithEnv())
	assert.Error(t, err)
}

func TestWithFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "theatre.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
port: "9000"
site_url: https://theatre.example
url_strategy: cdn
cdn_base_url: https://cdn.theatre.example
storage_backends:
  - name: uploads
    type: memory
  - name: archive
    type: memory
`), 0o600))
	t.Setenv("PORT", "9100")

	cfg, err := Load(WithFile(path))
	require.NoError(t, err)

	assert.Equal(t, "9100", cfg.Port, "environment wins over the file")
	assert.Equal(t, "https://theatre.example", cfg.SiteURL)
	assert.Equal(t, "cdn", cfg.URLStrategy)
	backends := cfg.Backends()
	require.Len(t, backends, 2)
	assert.Equal(t, "uploads", backends[0].Name)

	_, err = Load(WithFile(filepath.Join(t.TempDir(), "missing.yaml")))
	assert.Error(t, err)
}

func TestDescription(t *testing.T) {
	text, err := Description()
	require.NoError(t, err)
	assert.Contains(t, text, "DATABASE_TYPE")
	assert.Contains(t, text, "REDIS_URL")
}

func TestBuild_Memory(t *testing.T) {
	cfg, err := Load(WithSecrets("test-secret", ""))
	require.NoError(t, err)

	rt, err := cfg.Build(context.Background(), nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = rt.Close() })

	assert.NotNil(t, rt.Service)
	assert.NotNil(t, rt.Auth)
	assert.NotNil(t, rt.Nonces)
	assert.NotNil(t, rt.Limiter)
	assert.Nil(t, rt.Cache)

	srv := httptest.NewServer(rt.Router())
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/api/v1/hero-media")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestBuild_SQLiteAndFilesystem(t *testing.T) {
	dir := t.TempDir()
	opts := []Option{
		WithDatabase(DatabaseSQLite, filepath.Join(dir, "theatre.db")),
		WithFilesystemStorage(filepath.Join(dir, "media"), ""),
		WithRateLimit(0, 0),
	}
	cfg, err := Load(opts...)
	require.NoError(t, err)

	ctx := theatre.WithPrincipal(context.Background(), theatre.Principal{
		UserID:       "admin",
		Capabilities: []theatre.Capability{theatre.CapManageOptions},
	})

	rt, err := cfg.Build(ctx, nil)
	require.NoError(t, err)
	assert.Nil(t, rt.Limiter)

	venue, err := rt.Service.CreateVenue(ctx, "The Playhouse", "1 Stage Street")
	require.NoError(t, err)
	require.NoError(t, rt.Close())

	rt, err = cfg.Build(ctx, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = rt.Close() })

	venues, err := rt.Service.ListVenues(ctx)
	require.NoError(t, err)
	require.Len(t, venues, 1)
	assert.Equal(t, venue.ID, venues[0].ID.String())
}

func TestBuild_PostgresUnreachable(t *testing.T) {
	cfg, err := Load(WithDatabase(DatabasePostgres, "postgres://nobody@127.0.0.1:1/theatre?connect_timeout=1"))
	require.NoError(t, err)

	_, err = cfg.Build(context.Background(), nil)
	assert.Error(t, err)
}
