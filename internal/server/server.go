// Package server implements the capture server: a local stand-in for the
// provenance store that accepts the same document endpoints and journals
// everything it receives.
package server

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/me/dfanalyzer/internal/store"
	"github.com/me/dfanalyzer/pkg/client"
)

// maxBodyBytes bounds a single received document.
const maxBodyBytes = 10 << 20

// Server is the capture HTTP server.
type Server struct {
	router    chi.Router
	logger    *slog.Logger
	store     store.Store
	startTime time.Time
}

// New creates a new Server with all routes registered.
func New(st store.Store, logger *slog.Logger) *Server {
	s := &Server{
		router:    chi.NewRouter(),
		logger:    logger.With("component", "server"),
		store:     st,
		startTime: time.Now(),
	}
	s.routes()
	return s
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// Handler returns the http.Handler for this server.
func (s *Server) Handler() http.Handler {
	return s.router
}

func (s *Server) routes() {
	r := s.router

	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(requestIDMiddleware)
	r.Use(loggingMiddleware(s.logger))

	// Document endpoints, same paths as the provenance store.
	r.Post(client.TaskPath, s.handleTaskDocument)
	r.Post(client.DataflowPath, s.handleDataflowDocument)

	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/health", s.handleHealth)
		r.Get("/documents", s.handleListDocuments)
		r.Get("/documents/{id}", s.handleGetDocument)
	})
}
