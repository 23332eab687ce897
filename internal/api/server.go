// Package api provides the HTTP API server and handlers for the Basegroup application.
package api

import (
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/danielgtaylor/huma/v2"
	"github.com/danielgtaylor/huma/v2/adapters/humachi"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/basegroupapp/basegroup-server/internal/service"
	"github.com/basegroupapp/basegroup-server/internal/store"
)

// Services groups all business logic services used by the API server.
// This reduces the parameter count for NewServer and improves testability.
type Services struct {
	Instance *service.InstanceService
	Auth     *service.AuthService
	Dataset  *service.DatasetService
	Files    *service.FileService
}

// Server holds dependencies for HTTP handlers.
type Server struct {
	store           *store.Store
	services        *Services
	router          *chi.Mux
	api             huma.API
	logger          *slog.Logger
	authRateLimiter *RateLimiter
	maxUploadBytes  int64
}

// NewServer creates a new HTTP server with all routes configured.
// maxUploadBytes bounds the raw size of uploaded dataset files; zero or
// negative falls back to the built-in default.
func NewServer(st *store.Store, services *Services, maxUploadBytes int64, logger *slog.Logger) *Server {
	router := chi.NewRouter()

	router.Use(middleware.RequestID)
	router.Use(middleware.RealIP)
	router.Use(middleware.Recoverer)
	router.Use(middleware.Compress(5))
	router.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: false,
		MaxAge:           300,
	}))
	router.Use(authMiddleware(services.Auth))

	authRateLimiter := NewRateLimiter(20, time.Minute, 10)
	router.Use(pathRateLimit("/api/v1/auth/", authRateLimiter, logger))

	humaConfig := huma.DefaultConfig("Basegroup API", service.ServerVersion)
	humaConfig.Components.SecuritySchemes = map[string]*huma.SecurityScheme{
		"bearer": {
			Type:         "http",
			Scheme:       "bearer",
			BearerFormat: "PASETO",
		},
	}
	humaConfig.Transformers = append(humaConfig.Transformers, EnvelopeTransformer)

	api := humachi.New(router, humaConfig)
	RegisterErrorHandler()

	s := &Server{
		store:           st,
		services:        services,
		router:          router,
		api:             api,
		logger:          logger,
		authRateLimiter: authRateLimiter,
		maxUploadBytes:  maxUploadBytes,
	}

	s.registerHealthRoutes()
	s.registerInstanceRoutes()
	s.registerAuthRoutes()
	s.registerDatasetRoutes()
	s.registerQueryRoutes()

	return s
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// Close releases server-held resources.
func (s *Server) Close() {
	s.authRateLimiter.Stop()
}

// pathRateLimit applies the limiter only to paths under prefix. Login and
// refresh take the brunt of credential stuffing; the rest of the API is
// already behind auth.
func pathRateLimit(prefix string, limiter *RateLimiter, logger *slog.Logger) func(http.Handler) http.Handler {
	limit := RateLimitMiddleware(limiter, logger)
	return func(next http.Handler) http.Handler {
		limited := limit(next)
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if strings.HasPrefix(r.URL.Path, prefix) {
				limited.ServeHTTP(w, r)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
