// Package api provides the HTTP API server and handlers for the Pintree admin server.
package api

import (
	"log/slog"
	"net/http"

	"github.com/danielgtaylor/huma/v2"
	"github.com/danielgtaylor/huma/v2/adapters/humachi"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/pintree/pintree-admin/internal/sse"
	"github.com/pintree/pintree-admin/internal/store/sqlite"
)

// Config holds the HTTP-level settings of the server.
type Config struct {
	AllowedOrigins   []string
	Version          string
	ImportsPerMinute int
}

// Server holds dependencies for HTTP handlers.
type Server struct {
	store      *sqlite.Store
	services   *Services
	sseManager *sse.Manager
	sseHandler *sse.Handler
	router     *chi.Mux
	api        huma.API
	logger     *slog.Logger
}

// NewServer creates a new HTTP server with all routes configured.
func NewServer(st *sqlite.Store, services *Services, sseManager *sse.Manager, cfg Config, logger *slog.Logger) *Server {
	if cfg.Version == "" {
		cfg.Version = "1.0.0"
	}

	s := &Server{
		store:      st,
		services:   services,
		sseManager: sseManager,
		router:     chi.NewRouter(),
		logger:     logger,
	}
	if sseManager != nil {
		s.sseHandler = sse.NewHandler(sseManager, logger)
	}

	s.setupMiddleware(cfg)

	humaConfig := huma.DefaultConfig("Pintree Admin API", cfg.Version)
	humaConfig.Info.Description = "Bookmark collection imports and the collection persistence endpoints."
	s.api = humachi.New(s.router, humaConfig)

	RegisterErrorHandler()
	s.registerRoutes()

	return s
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// API exposes the huma API, mainly for OpenAPI generation.
func (s *Server) API() huma.API {
	return s.api
}

func (s *Server) setupMiddleware(cfg Config) {
	s.router.Use(middleware.RequestID)
	s.router.Use(middleware.RealIP)
	s.router.Use(s.requestLogger)
	s.router.Use(middleware.Recoverer)
	s.router.Use(s.importRateLimit(newImportLimiter(cfg.ImportsPerMinute)))
	s.router.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.AllowedOrigins,
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders:   []string{"Accept", "Content-Type", "X-Request-Id"},
		ExposedHeaders:   []string{"X-Request-Id"},
		AllowCredentials: false,
		MaxAge:           300,
	}))
}

func (s *Server) registerRoutes() {
	s.registerHealthRoutes()
	s.registerImportRoutes()
	s.registerCollectionRoutes()
	s.registerPersistenceRoutes()

	// The event stream is a long-lived response, so it bypasses huma.
	if s.sseHandler != nil {
		s.router.Get("/api/admin/imports/events", s.sseHandler.ServeHTTP)
	}
}
