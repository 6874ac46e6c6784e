package api

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/jwtauth"
	"github.com/tendant/simple-theatre/pkg/theatre"
	"github.com/tendant/simple-theatre/pkg/theatre/nonce"
)

// BasePath is where the API is mounted.
const BasePath = "/api/v1"

// Config wires the HTTP API. Cache and Limiter are optional.
type Config struct {
	Service theatre.Service
	Auth    *jwtauth.JWTAuth
	Nonces  *nonce.Issuer
	Cache   *ResponseCache
	Limiter *RateLimiter
	Logger  *slog.Logger
}

// NewRouter builds the complete API router
func NewRouter(cfg Config) chi.Router {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	public := NewPublicHandler(cfg.Service, logger)
	admin := NewAdminHandler(cfg.Service, cfg.Nonces, logger)

	r := chi.NewRouter()
	r.Use(RequestID)
	r.Use(middleware.RealIP)
	r.Use(Logger(logger))
	r.Use(Recoverer(logger))
	r.Use(CORS())
	if cfg.Auth != nil {
		r.Use(Authenticate(cfg.Auth))
	}

	r.Route(BasePath, func(r chi.Router) {
		r.Get("/media/{id}", public.StreamMedia)

		r.Group(func(r chi.Router) {
			if cfg.Cache != nil {
				r.Use(cfg.Cache.Middleware)
			}
			r.Mount("/", public.Routes())
		})

		r.Group(func(r chi.Router) {
			r.Use(RequireAuth)
			if cfg.Limiter != nil {
				r.Use(cfg.Limiter.Middleware)
			}
			if cfg.Cache != nil {
				r.Use(cfg.Cache.PurgeOnWrite)
			}
			r.With(RequireCapability(theatre.CapEditPosts)).
				Post("/convert-page-to-production/{id}", admin.ConvertPage)
			r.Mount("/admin", admin.Routes())
		})
	})

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		writeErrorCode(w, r, http.StatusNotFound, theatre.CodeNotFound, "route not found")
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		writeErrorCode(w, r, http.StatusMethodNotAllowed, theatre.CodeInvalidInput, "method not allowed")
	})
	return r
}
