// Package server exposes the operator control surface: configuration
// read/write, manual job triggering, and log tailing.
package server

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"golang.org/x/time/rate"

	"github.com/automailhq/automail/internal/config"
	apperrors "github.com/automailhq/automail/internal/errors"
	"github.com/automailhq/automail/internal/schedule"
	"github.com/automailhq/automail/pkg/joblog"
	"github.com/automailhq/automail/pkg/pipeline"
)

// Options carries the server's collaborators.
type Options struct {
	Store     *config.Store
	Runner    *pipeline.Runner
	Log       *joblog.Log
	Scheduler *schedule.Scheduler
	Version   string
}

// Server is the HTTP control surface.
type Server struct {
	host string
	port int
	opts Options

	router chi.Router

	// limiter bounds manual trigger requests; bursts beyond it get 429.
	limiter *rate.Limiter
}

// New builds the server and its routes.
func New(host string, port int, opts Options) *Server {
	s := &Server{
		host:    host,
		port:    port,
		opts:    opts,
		limiter: rate.NewLimiter(rate.Every(time.Second), 3),
	}

	r := chi.NewRouter()
	r.Use(chimw.RequestID)
	r.Use(chimw.Recoverer)
	r.NotFound(apperrors.NotFoundHandler())
	r.MethodNotAllowed(apperrors.MethodNotAllowedHandler())

	r.Get("/health", s.handleHealth)
	r.Get("/version", s.handleVersion)

	r.Route("/api", func(r chi.Router) {
		r.Get("/config", s.handleGetConfig)
		r.Post("/config", s.handleSaveConfig)
		r.Post("/run", s.handleRun)
		r.Get("/logs", s.handleLogs)
	})

	s.router = r
	return s
}

// Handler returns the root handler, mainly for tests.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Port returns the configured listen port.
func (s *Server) Port() int {
	return s.port
}

// ListenAndServe blocks until ctx is cancelled, then shuts down gracefully.
func (s *Server) ListenAndServe(ctx context.Context) error {
	srv := &http.Server{
		Addr:         fmt.Sprintf("%s:%d", s.host, s.port),
		Handler:      s.router,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	}
}
