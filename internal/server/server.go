// Package server exposes the queue repository over HTTP.
package server

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/ukaji3/sheetqueue-go/internal/config"
	"github.com/ukaji3/sheetqueue-go/pkg/sheetqueue"
)

// Server is the HTTP server for the queue.
type Server struct {
	repo   *sheetqueue.Repository
	cfg    config.ServerConfig
	router *chi.Mux
	server *http.Server
	now    func() time.Time
}

// New creates a Server over repo.
func New(repo *sheetqueue.Repository, cfg config.ServerConfig) *Server {
	s := &Server{
		repo:   repo,
		cfg:    cfg,
		router: chi.NewRouter(),
		now:    time.Now,
	}
	s.setupMiddleware()
	s.setupRoutes()

	s.server = &http.Server{
		Addr:         cfg.Addr(),
		Handler:      s.router,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
		IdleTimeout:  cfg.IdleTimeout,
	}
	return s
}

// setupMiddleware configures middleware for all routes.
func (s *Server) setupMiddleware() {
	s.router.Use(middleware.RequestID)
	s.router.Use(middleware.RealIP)
	s.router.Use(requestLogger)
	s.router.Use(middleware.Recoverer)
	if s.cfg.RequestTimeout > 0 {
		s.router.Use(middleware.Timeout(s.cfg.RequestTimeout))
	}
}

// setupRoutes configures all HTTP routes.
func (s *Server) setupRoutes() {
	s.router.Get("/healthz", s.handleHealth)

	s.router.Get("/config", s.handleGetConfig)
	s.router.Put("/config", s.handleSaveConfig)

	s.router.Post("/blacklist/{userID}", s.handleBlacklistAdd)
	s.router.Delete("/blacklist/{userID}", s.handleBlacklistRemove)

	s.router.Route("/entries", func(r chi.Router) {
		r.Get("/", s.handleListEntries)
		r.Post("/", s.handlePushEntry)
		r.Get("/count", s.handleCountEntries)
	})
}

// Start begins listening for HTTP requests.
func (s *Server) Start() error {
	slog.Info("server starting", "addr", s.server.Addr)
	return s.server.ListenAndServe()
}

// Shutdown gracefully stops the server.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.server.Shutdown(ctx)
}

// Router returns the underlying chi router for testing.
func (s *Server) Router() *chi.Mux {
	return s.router
}
