package config

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/jwtauth"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/otel"

	"github.com/tendant/simple-theatre/pkg/theatre"
	"github.com/tendant/simple-theatre/pkg/theatre/api"
	"github.com/tendant/simple-theatre/pkg/theatre/eventsink/rabbitmq"
	"github.com/tendant/simple-theatre/pkg/theatre/nonce"
	"github.com/tendant/simple-theatre/pkg/theatre/repo/memory"
	repopg "github.com/tendant/simple-theatre/pkg/theatre/repo/postgres"
	reposqlite "github.com/tendant/simple-theatre/pkg/theatre/repo/sqlite"
	"github.com/tendant/simple-theatre/pkg/theatre/settings"
	fsstorage "github.com/tendant/simple-theatre/pkg/theatre/storage/fs"
	memorystorage "github.com/tendant/simple-theatre/pkg/theatre/storage/memory"
	s3storage "github.com/tendant/simple-theatre/pkg/theatre/storage/s3"
	"github.com/tendant/simple-theatre/pkg/theatre/urlstrategy"
)

// TracerName identifies spans emitted by the theatre service
const TracerName = "github.com/tendant/simple-theatre"

// Runtime holds everything built from a ServerConfig. Close releases the
// database, redis and broker connections.
type Runtime struct {
	Service  theatre.Service
	Settings theatre.SettingsStore
	Auth     *jwtauth.JWTAuth
	Nonces   *nonce.Issuer
	Cache    *api.ResponseCache
	Limiter  *api.RateLimiter

	logger  *slog.Logger
	closers []func() error
}

// Build connects every configured backend and assembles the service.
func (c *ServerConfig) Build(ctx context.Context, logger *slog.Logger) (*Runtime, error) {
	if logger == nil {
		logger = slog.Default()
	}
	rt := &Runtime{logger: logger}
	if err := c.build(ctx, rt); err != nil {
		_ = rt.Close()
		return nil, err
	}
	return rt, nil
}

func (c *ServerConfig) build(ctx context.Context, rt *Runtime) error {
	logger := rt.logger
	options := []theatre.Option{
		theatre.WithLogger(logger),
		theatre.WithSiteURL(c.SiteURL),
		theatre.WithTracer(otel.Tracer(TracerName)),
	}

	repo, err := c.buildRepository(ctx, rt)
	if err != nil {
		return fmt.Errorf("failed to build repository: %w", err)
	}
	options = append(options, theatre.WithRepository(repo))

	backends := c.Backends()
	previewers := make(map[string]urlstrategy.PreviewURLer, len(backends))
	for _, backendConfig := range backends {
		store, err := buildStorageBackend(ctx, backendConfig)
		if err != nil {
			return fmt.Errorf("failed to build storage backend %s: %w", backendConfig.Name, err)
		}
		previewers[backendConfig.Name] = store
		options = append(options, theatre.WithBlobStore(backendConfig.Name, store))
	}
	options = append(options, theatre.WithDefaultBackend(backends[0].Name))

	strategy, err := urlstrategy.New(urlstrategy.Config{
		Type:       urlstrategy.Type(c.URLStrategy),
		CDNBaseURL: c.CDNBaseURL,
		APIBaseURL: strings.TrimSuffix(c.SiteURL, "/") + api.BasePath,
		BlobStores: previewers,
	})
	if err != nil {
		return fmt.Errorf("failed to build url strategy: %w", err)
	}
	options = append(options, theatre.WithURLResolver(strategy))

	if c.RedisURL != "" {
		client, err := NewRedisClient(ctx, c.RedisURL)
		if err != nil {
			return err
		}
		rt.closers = append(rt.closers, client.Close)
		rt.Settings = settings.NewRedisStore(client, "")
		rt.Cache = api.NewResponseCache(client, api.CacheConfig{TTL: c.CacheTTL, Logger: logger})
	} else {
		rt.Settings = settings.NewMemoryStore(nil)
	}
	options = append(options, theatre.WithSettingsStore(rt.Settings))

	var sinks theatre.MultiEventSink
	if c.EventLogging {
		sinks = append(sinks, theatre.NewLoggingEventSink(logger))
	}
	if c.AMQPURL != "" {
		publisher, err := rabbitmq.Dial(rabbitmq.Config{URL: c.AMQPURL, Queue: c.AMQPQueue})
		if err != nil {
			return err
		}
		rt.closers = append(rt.closers, publisher.Close)
		sinks = append(sinks, publisher)
	}
	if len(sinks) > 0 {
		options = append(options, theatre.WithEventSink(sinks))
	}

	secret := c.JWTSecret
	if secret == "" {
		secret = randomSecret()
		logger.Warn("JWT_SECRET not set, using an ephemeral secret; issued tokens will not survive a restart")
	}
	rt.Auth = jwtauth.New("HS256", []byte(secret), nil)

	nonceSecret := c.NonceSecret
	if nonceSecret == "" {
		nonceSecret = secret
	}
	if rt.Nonces, err = nonce.NewIssuer(nonceSecret, c.NonceTTL); err != nil {
		return err
	}

	if c.RateLimitBurst > 0 {
		rt.Limiter = api.NewRateLimiter(c.RateLimitEvery, c.RateLimitBurst)
	}

	rt.Service, err = theatre.New(options...)
	return err
}

// buildRepository creates a Repository based on the configuration
func (c *ServerConfig) buildRepository(ctx context.Context, rt *Runtime) (theatre.Repository, error) {
	switch c.DatabaseType {
	case DatabaseMemory:
		return memory.New(), nil
	case DatabasePostgres:
		pool, err := NewDbPool(ctx, c.DatabaseURL, c.DBSchema)
		if err != nil {
			return nil, err
		}
		rt.closers = append(rt.closers, func() error { pool.Close(); return nil })
		repo := repopg.NewWithPool(pool)
		if err := repo.Migrate(ctx); err != nil {
			return nil, err
		}
		return repo, nil
	case DatabaseSQLite:
		repo, err := reposqlite.Open(ctx, c.SQLitePath)
		if err != nil {
			return nil, err
		}
		rt.closers = append(rt.closers, repo.Close)
		return repo, nil
	default:
		return nil, fmt.Errorf("unsupported database type: %s", c.DatabaseType)
	}
}

// NewDbPool creates a pgx pool, optionally pinned to schema, and pings it.
func NewDbPool(ctx context.Context, databaseURL, schema string) (*pgxpool.Pool, error) {
	cfg, err := pgxpool.ParseConfig(databaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse DATABASE_URL: %w", err)
	}
	if schema != "" {
		cfg.AfterConnect = func(ctx context.Context, conn *pgx.Conn) error {
			_, err := conn.Exec(ctx, "SET search_path TO "+pgx.Identifier{schema}.Sanitize())
			return err
		}
	}
	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create connection pool: %w", err)
	}
	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := pool.Ping(pingCtx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}
	return pool, nil
}

// NewRedisClient parses a redis:// URL and pings the server.
func NewRedisClient(ctx context.Context, redisURL string) (*redis.Client, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse REDIS_URL: %w", err)
	}
	client := redis.NewClient(opts)
	pingCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to ping redis: %w", err)
	}
	return client, nil
}

// buildStorageBackend creates a BlobStore based on the backend configuration
func buildStorageBackend(ctx context.Context, config StorageBackendConfig) (theatre.BlobStore, error) {
	switch config.Type {
	case StorageMemory:
		return memorystorage.New(memorystorage.WithBaseURL(config.URLPrefix)), nil

	case StorageFS:
		return fsstorage.New(fsstorage.Config{
			BaseDir:   config.BaseDir,
			URLPrefix: config.URLPrefix,
		})

	case StorageS3:
		return s3storage.New(ctx, s3storage.Config{
			Region:                 config.S3.Region,
			Bucket:                 config.S3.Bucket,
			AccessKeyID:            config.S3.AccessKeyID,
			SecretAccessKey:        config.S3.SecretAccessKey,
			Endpoint:               config.S3.Endpoint,
			UsePathStyle:           config.S3.UsePathStyle,
			PresignDuration:        config.S3.PresignDuration,
			PublicBaseURL:          config.S3.PublicBaseURL,
			EnableSSE:              config.S3.EnableSSE,
			SSEAlgorithm:           config.S3.SSEAlgorithm,
			SSEKMSKeyID:            config.S3.SSEKMSKeyID,
			CreateBucketIfNotExist: config.S3.CreateBucket,
		})

	default:
		return nil, fmt.Errorf("unsupported storage backend type: %s", config.Type)
	}
}

func randomSecret() string {
	b := make([]byte, 32)
	_, _ = rand.Read(b)
	return hex.EncodeToString(b)
}

// Router mounts the HTTP API for this runtime
func (rt *Runtime) Router() chi.Router {
	return api.NewRouter(api.Config{
		Service: rt.Service,
		Auth:    rt.Auth,
		Nonces:  rt.Nonces,
		Cache:   rt.Cache,
		Limiter: rt.Limiter,
		Logger:  rt.logger,
	})
}

// Close releases connections in reverse order of acquisition
func (rt *Runtime) Close() error {
	var errs []error
	for i := len(rt.closers) - 1; i >= 0; i-- {
		if err := rt.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	rt.closers = nil
	return errors.Join(errs...)
}
