// Package server exposes registered lifecycle controllers over a small JSON
// admin API. The engine itself is transport-agnostic; this surface exists so
// back-office frontends have something to talk to out of the box.
package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/rs/cors"
	"github.com/rs/zerolog/log"

	"github.com/recordbase/recordbase/internal/config"
	"github.com/recordbase/recordbase/internal/server/middleware"
)

// Server is the HTTP server hosting the admin API.
type Server struct {
	router     chi.Router
	api        chi.Router
	httpServer *http.Server
	cfg        *config.Config
}

// New creates a Server with the global middleware stack wired. Entity routes
// are added afterwards with Mount.
func New(ctx context.Context, cfg *config.Config) *Server {
	router := chi.NewRouter()

	// Global middleware stack.
	router.Use(chimw.RequestID)
	router.Use(chimw.RealIP)
	router.Use(chimw.Logger)
	router.Use(chimw.Recoverer)
	router.Use(cors.New(cors.Options{
		AllowedOrigins:   cfg.Server.CORSOrigins,
		AllowedMethods:   []string{"GET", "POST", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Request-ID"},
		ExposedHeaders:   []string{"X-Request-ID"},
		AllowCredentials: true,
		MaxAge:           300,
	}).Handler)

	var api chi.Router
	router.Route("/api/v1", func(r chi.Router) {
		r.Use(middleware.Auth(cfg.JWT.Secret))
		r.Use(middleware.RateLimitByUser(ctx, 100, 200))
		api = r
	})

	return &Server{
		router: router,
		api:    api,
		cfg:    cfg,
		httpServer: &http.Server{
			Addr:         cfg.Server.Addr,
			Handler:      router,
			ReadTimeout:  cfg.Server.ReadTimeout,
			WriteTimeout: cfg.Server.WriteTimeout,
		},
	}
}

// Router returns the root router, mainly for tests.
func (s *Server) Router() http.Handler { return s.router }

// Start begins serving and blocks until the listener stops.
func (s *Server) Start() error {
	log.Info().Str("addr", s.cfg.Server.Addr).Msg("admin API listening")

	err := s.httpServer.ListenAndServe()
	if err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("server.Start: %w", err)
	}
	return nil
}

// Shutdown drains in-flight requests.
func (s *Server) Shutdown(ctx context.Context) error {
	err := s.httpServer.Shutdown(ctx)
	if err != nil {
		return fmt.Errorf("server.Shutdown: %w", err)
	}
	return nil
}
