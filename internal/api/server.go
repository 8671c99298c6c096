// Package api provides the HTTP API server and handlers for the Recipebook server.
package api

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/danielgtaylor/huma/v2"
	"github.com/danielgtaylor/huma/v2/adapters/humachi"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/recipebook/recipebook-server/internal/logger"
	"github.com/recipebook/recipebook-server/internal/metrics"
	"github.com/recipebook/recipebook-server/internal/store"
)

// defaultMaxUploadBytes applies when Options leaves the upload limit unset.
const defaultMaxUploadBytes = 10 << 20

// Options tunes the HTTP surface.
type Options struct {
	CORSOrigins    []string
	MaxUploadBytes int64
	// Metrics is optional. When set, requests are measured and /metrics is served.
	Metrics *metrics.Metrics
}

// Server holds dependencies for HTTP handlers.
type Server struct {
	store          store.Store
	services       *Services
	metrics        *metrics.Metrics
	router         *chi.Mux
	api            huma.API
	maxUploadBytes int64
	logger         *slog.Logger
}

// NewServer creates a new HTTP server with all routes configured.
func NewServer(st store.Store, services *Services, opts Options, log *slog.Logger) *Server {
	log = logger.OrDiscard(log)
	if opts.MaxUploadBytes <= 0 {
		opts.MaxUploadBytes = defaultMaxUploadBytes
	}

	s := &Server{
		store:          st,
		services:       services,
		metrics:        opts.Metrics,
		router:         chi.NewRouter(),
		maxUploadBytes: opts.MaxUploadBytes,
		logger:         log,
	}

	s.setupMiddleware(opts.CORSOrigins)

	humaConfig := huma.DefaultConfig("Recipebook API", "1.0.0")
	humaConfig.Components.SecuritySchemes = map[string]*huma.SecurityScheme{
		"bearer": {
			Type:         "http",
			Scheme:       "bearer",
			BearerFormat: "PASETO",
		},
	}
	s.api = humachi.New(s.router, humaConfig)
	RegisterErrorHandler(log)

	s.setupRoutes()
	return s
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// API exposes the huma API, mainly for tests and OpenAPI export.
func (s *Server) API() huma.API {
	return s.api
}

func (s *Server) setupMiddleware(origins []string) {
	if len(origins) == 0 {
		origins = []string{"*"}
	}

	s.router.Use(middleware.RequestID)
	s.router.Use(middleware.RealIP)
	s.router.Use(logger.RequestLogger(s.logger))
	s.router.Use(middleware.Recoverer)
	s.router.Use(cors.Handler(cors.Options{
		AllowedOrigins:   origins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Request-ID"},
		ExposedHeaders:   []string{"X-Request-ID"},
		AllowCredentials: false,
		MaxAge:           int((5 * time.Minute).Seconds()),
	}))
	if s.metrics != nil {
		s.router.Use(s.metrics.Middleware)
	}
}

func (s *Server) setupRoutes() {
	if s.metrics != nil {
		s.router.Handle("/metrics", s.metrics.Handler())
	}

	s.registerHealthRoutes()
	s.registerUserRoutes()
	s.registerTagRoutes()
	s.registerIngredientRoutes()
	s.registerRecipeRoutes()
	s.registerImageRoutes()
	s.registerAdminRoutes()
	s.registerSearchRoutes()
}
