package api

import (
	"log/slog"
	"net"
	"net/http"
	"runtime/debug"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/go-chi/cors"
	"github.com/go-chi/jwtauth"
	"github.com/tendant/simple-theatre/pkg/theatre"
	"golang.org/x/time/rate"
)

// responseWriter captures the status code and response size
type responseWriter struct {
	http.ResponseWriter
	statusCode   int
	bytesWritten int64
}

func newResponseWriter(w http.ResponseWriter) *responseWriter {
	return &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}
}

func (rw *responseWriter) WriteHeader(statusCode int) {
	rw.statusCode = statusCode
	rw.ResponseWriter.WriteHeader(statusCode)
}

func (rw *responseWriter) Write(b []byte) (int, error) {
	n, err := rw.ResponseWriter.Write(b)
	rw.bytesWritten += int64(n)
	return n, err
}

// Logger logs one line per request
func Logger(logger *slog.Logger) func(http.Handler) http.Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			rw := newResponseWriter(w)

			next.ServeHTTP(rw, r)

			level := slog.LevelInfo
			if rw.statusCode >= http.StatusInternalServerError {
				level = slog.LevelError
			}
			logger.LogAttrs(r.Context(), level, "http request",
				slog.String("method", r.Method),
				slog.String("path", r.URL.Path),
				slog.Int("status", rw.statusCode),
				slog.Duration("duration", time.Since(start)),
				slog.Int64("bytes", rw.bytesWritten),
				slog.String("request_id", RequestIDFromContext(r.Context())),
			)
		})
	}
}

// Recoverer turns panics into 500 responses
func Recoverer(logger *slog.Logger) func(http.Handler) http.Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				if rec := recover(); rec != nil {
					if rec == http.ErrAbortHandler {
						panic(rec)
					}
					logger.ErrorContext(r.Context(), "panic",
						"panic", rec,
						"request_id", RequestIDFromContext(r.Context()),
						"stack", string(debug.Stack()))
					writeErrorCode(w, r, http.StatusInternalServerError, theatre.CodeInternal,
						"An internal server error occurred")
				}
			}()
			next.ServeHTTP(w, r)
		})
	}
}

// CORS reflects the request origin and allows credentials
func CORS() func(http.Handler) http.Handler {
	return cors.Handler(cors.Options{
		AllowOriginFunc: func(r *http.Request, origin string) bool {
			return true
		},
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Request-ID", NonceHeader},
		ExposedHeaders:   []string{"X-Request-ID", "X-Cache"},
		AllowCredentials: true,
		MaxAge:           300,
	})
}

// Authenticate verifies an optional bearer token and, when it is valid,
// stores the caller as a theatre.Principal. The token's "sub" claim is the
// user id and "caps" lists capabilities, as an array or a space separated
// string. Requests without a valid token continue anonymously.
func Authenticate(ja *jwtauth.JWTAuth) func(http.Handler) http.Handler {
	verify := jwtauth.Verifier(ja)
	return func(next http.Handler) http.Handler {
		attach := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token, claims, err := jwtauth.FromContext(r.Context())
			if err != nil || token == nil {
				next.ServeHTTP(w, r)
				return
			}
			p := principalFromClaims(claims)
			next.ServeHTTP(w, r.WithContext(theatre.WithPrincipal(r.Context(), p)))
		})
		return verify(attach)
	}
}

func principalFromClaims(claims map[string]interface{}) theatre.Principal {
	p := theatre.Principal{}
	p.UserID, _ = claims["sub"].(string)

	switch caps := claims["caps"].(type) {
	case []interface{}:
		for _, c := range caps {
			if s, ok := c.(string); ok && s != "" {
				p.Capabilities = append(p.Capabilities, theatre.Capability(s))
			}
		}
	case []string:
		for _, s := range caps {
			p.Capabilities = append(p.Capabilities, theatre.Capability(s))
		}
	case string:
		for _, s := range strings.Fields(caps) {
			p.Capabilities = append(p.Capabilities, theatre.Capability(s))
		}
	}
	return p
}

// RequireAuth rejects anonymous requests with 401
func RequireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if _, ok := theatre.PrincipalFromContext(r.Context()); !ok {
			writeErrorCode(w, r, http.StatusUnauthorized, CodeUnauthorized, "authentication required")
			return
		}
		next.ServeHTTP(w, r)
	})
}

// RequireCapability rejects callers lacking c with 403
func RequireCapability(c theatre.Capability) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if err := theatre.Authorize(r.Context(), c); err != nil {
				writeError(w, r, err)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// RateLimiter throttles write requests per caller with a token bucket.
// Buckets idle long enough to have refilled are dropped.
type RateLimiter struct {
	mu        sync.Mutex
	every     time.Duration
	burst     int
	idle      time.Duration
	lastSweep time.Time
	now       func() time.Time
	limiters  map[string]*callerLimiter
}

type callerLimiter struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// NewRateLimiter allows burst requests at once and one more every interval
func NewRateLimiter(every time.Duration, burst int) *RateLimiter {
	if burst <= 0 {
		burst = 1
	}
	idle := every * time.Duration(burst)
	if idle < time.Minute {
		idle = time.Minute
	}
	return &RateLimiter{
		every:    every,
		burst:    burst,
		idle:     idle,
		now:      time.Now,
		limiters: make(map[string]*callerLimiter),
	}
}

func (rl *RateLimiter) limiter(key string) *rate.Limiter {
	rl.mu.Lock()
	defer rl.mu.Unlock()
	now := rl.now()
	if now.Sub(rl.lastSweep) >= rl.idle {
		rl.sweep(now)
	}
	c, ok := rl.limiters[key]
	if !ok {
		c = &callerLimiter{limiter: rate.NewLimiter(rate.Every(rl.every), rl.burst)}
		rl.limiters[key] = c
	}
	c.lastSeen = now
	return c.limiter
}

// sweep drops buckets unused for the idle period. Callers hold rl.mu.
func (rl *RateLimiter) sweep(now time.Time) {
	for key, c := range rl.limiters {
		if now.Sub(c.lastSeen) >= rl.idle {
			delete(rl.limiters, key)
		}
	}
	rl.lastSweep = now
}

// Len reports how many callers are being tracked
func (rl *RateLimiter) Len() int {
	rl.mu.Lock()
	defer rl.mu.Unlock()
	return len(rl.limiters)
}

// rateKey prefers the authenticated user over the client address
func rateKey(r *http.Request) string {
	if p, ok := theatre.PrincipalFromContext(r.Context()); ok && p.UserID != "" {
		return "user:" + p.UserID
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		host = r.RemoteAddr
	}
	return "ip:" + host
}

func (rl *RateLimiter) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !rl.limiter(rateKey(r)).Allow() {
			w.Header().Set("Retry-After", retryAfter(rl.every))
			writeErrorCode(w, r, http.StatusTooManyRequests, CodeRateLimited, "rate limit exceeded")
			return
		}
		next.ServeHTTP(w, r)
	})
}

func retryAfter(d time.Duration) string {
	secs := int(d.Round(time.Second) / time.Second)
	if secs < 1 {
		secs = 1
	}
	return strconv.Itoa(secs)
}
