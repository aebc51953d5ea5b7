// Package web provides the HTTP server and JSON handlers for the order
// import engine.
package web

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/inkforge/fulfillment/internal/config"
	"github.com/inkforge/fulfillment/internal/importer"
	"github.com/inkforge/fulfillment/internal/web/middleware"
)

// SellerDirectory looks up sellers for the admin target-seller
// override.
type SellerDirectory interface {
	SellerExists(ctx context.Context, sellerID string) (bool, error)
}

// Server is the HTTP server for the import API.
type Server struct {
	engine  *importer.Engine
	sellers SellerDirectory
	cfg     *config.Config
	router  *chi.Mux
	server  *http.Server
}

// NewServer wires routes and middleware around the engine.
func NewServer(engine *importer.Engine, sellers SellerDirectory, resolver middleware.SessionResolver, cfg *config.Config) *Server {
	s := &Server{
		engine:  engine,
		sellers: sellers,
		cfg:     cfg,
		router:  chi.NewRouter(),
	}

	s.router.Use(chimw.RequestID)
	s.router.Use(chimw.RealIP)
	s.router.Use(middleware.Logger)
	s.router.Use(chimw.Recoverer)
	s.router.Use(chimw.Timeout(cfg.Server.RequestTimeout))

	s.router.Get("/healthz", s.handleHealth)

	s.router.Route("/api/import", func(r chi.Router) {
		r.Use(middleware.Auth(resolver))
		r.Post("/dry-run", s.handleDryRun)
		r.Post("/commit", s.handleCommit)
	})

	s.server = &http.Server{
		Addr:         cfg.Server.Addr(),
		Handler:      s.router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}
	return s
}

// Start runs the HTTP server until it is shut down.
func (s *Server) Start() error {
	return s.server.ListenAndServe()
}

// Shutdown gracefully stops the server.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.server.Shutdown(ctx)
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
