package api

import (
	"bytes"
	"context"
	"crypto/sha1"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

// DefaultCachePrefix namespaces cached responses in Redis.
const DefaultCachePrefix = "theatre:http"

// ResponseCache stores successful public GET responses in Redis. Any
// successful write through PurgeOnWrite drops every cached entry.
type ResponseCache struct {
	rdb     redis.UniversalClient
	prefix  string
	ttl     time.Duration
	maxBody int
	logger  *slog.Logger
}

type CacheConfig struct {
	Prefix       string
	TTL          time.Duration
	MaxBodyBytes int
	Logger       *slog.Logger
}

func NewResponseCache(rdb redis.UniversalClient, cfg CacheConfig) *ResponseCache {
	c := &ResponseCache{
		rdb:     rdb,
		prefix:  cfg.Prefix,
		ttl:     cfg.TTL,
		maxBody: cfg.MaxBodyBytes,
		logger:  cfg.Logger,
	}
	if c.prefix == "" {
		c.prefix = DefaultCachePrefix
	}
	if c.ttl <= 0 {
		c.ttl = 5 * time.Minute
	}
	if c.maxBody <= 0 {
		c.maxBody = 1 << 20
	}
	if c.logger == nil {
		c.logger = slog.Default()
	}
	return c
}

type cachedResponse struct {
	Status int         `json:"status"`
	Header http.Header `json:"header"`
	Body   []byte      `json:"body"`
}

// captureWriter copies the response while forwarding it to the client
type captureWriter struct {
	http.ResponseWriter
	status   int
	buf      bytes.Buffer
	overflow bool
	limit    int
}

func (cw *captureWriter) WriteHeader(code int) {
	cw.status = code
	cw.ResponseWriter.WriteHeader(code)
}

func (cw *captureWriter) Write(b []byte) (int, error) {
	if !cw.overflow {
		if cw.buf.Len()+len(b) > cw.limit {
			cw.overflow = true
			cw.buf.Reset()
		} else {
			cw.buf.Write(b)
		}
	}
	return cw.ResponseWriter.Write(b)
}

func (c *ResponseCache) key(r *http.Request) string {
	sum := sha1.Sum([]byte(r.URL.Path + "?" + r.URL.RawQuery))
	return fmt.Sprintf("%s:%x", c.prefix, sum[:])
}

// Middleware serves GET requests from the cache and fills it on a miss.
// Authenticated requests bypass the cache.
func (c *ResponseCache) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet || r.Header.Get("Authorization") != "" {
			next.ServeHTTP(w, r)
			return
		}
		ctx := r.Context()
		key := c.key(r)

		if bs, err := c.rdb.Get(ctx, key).Bytes(); err == nil {
			var cached cachedResponse
			if err := json.Unmarshal(bs, &cached); err == nil {
				for k, vals := range cached.Header {
					if !replayable(k) {
						continue
					}
					for _, v := range vals {
						w.Header().Add(k, v)
					}
				}
				w.Header().Set("X-Cache", "HIT")
				w.WriteHeader(cached.Status)
				_, _ = w.Write(cached.Body)
				return
			}
		} else if !errors.Is(err, redis.Nil) {
			c.logger.WarnContext(ctx, "response cache unavailable", "error", err)
			next.ServeHTTP(w, r)
			return
		}

		w.Header().Set("X-Cache", "MISS")
		cw := &captureWriter{ResponseWriter: w, status: http.StatusOK, limit: c.maxBody}
		next.ServeHTTP(cw, r)

		if cw.status != http.StatusOK || cw.overflow {
			return
		}
		header := make(http.Header)
		for k, vals := range w.Header() {
			if replayable(k) {
				header[k] = append([]string(nil), vals...)
			}
		}
		payload, err := json.Marshal(cachedResponse{Status: cw.status, Header: header, Body: cw.buf.Bytes()})
		if err != nil {
			return
		}
		if err := c.rdb.Set(ctx, key, payload, c.ttl).Err(); err != nil {
			c.logger.WarnContext(ctx, "failed to cache response", "key", key, "error", err)
		}
	})
}

// replayable reports whether a stored header may be sent to another caller.
// CORS and Vary headers belong to the request that filled the entry.
func replayable(key string) bool {
	key = http.CanonicalHeaderKey(key)
	switch {
	case key == "Content-Length", key == "X-Request-Id", key == "X-Cache", key == "Vary":
		return false
	case strings.HasPrefix(key, "Access-Control-"):
		return false
	}
	return true
}

// Purge removes every cached response
func (c *ResponseCache) Purge(ctx context.Context) error {
	iter := c.rdb.Scan(ctx, 0, c.prefix+":*", 100).Iterator()
	var keys []string
	for iter.Next(ctx) {
		keys = append(keys, iter.Val())
	}
	if err := iter.Err(); err != nil {
		return err
	}
	if len(keys) == 0 {
		return nil
	}
	return c.rdb.Del(ctx, keys...).Err()
}

// PurgeOnWrite purges the cache after successful non-GET requests
func (c *ResponseCache) PurgeOnWrite(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		rw := newResponseWriter(w)
		next.ServeHTTP(rw, r)
		if r.Method == http.MethodGet || rw.statusCode >= http.StatusBadRequest {
			return
		}
		if err := c.Purge(r.Context()); err != nil {
			c.logger.WarnContext(r.Context(), "failed to purge response cache", "error", err)
		}
	})
}
