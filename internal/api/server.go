// Package api serves the local admin HTTP surface: health, daemon status,
// a live event feed over SSE, and a passthrough for compositor actions.
// It binds to loopback by default and carries no authentication.
package api

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"niriglue/internal/events"
	"niriglue/internal/niri"
)

// Dispatch exposes the dispatch loop's observable state.
type Dispatch interface {
	Running() bool
	EventCount() int64
}

// Requester forwards one request to the compositor and returns its reply.
// niri.Request bound to a socket path satisfies it.
type Requester func(req any) (niri.Reply, error)

// Config holds the admin server settings.
type Config struct {
	Listen            string
	Version           string
	ConfigFingerprint string
}

// Server is the admin HTTP server.
type Server struct {
	config    Config
	hub       *events.Hub
	dispatch  Dispatch
	request   Requester
	logger    *slog.Logger
	server    *http.Server
	startedAt time.Time
}

func New(config Config, hub *events.Hub, dispatch Dispatch, request Requester, logger *slog.Logger) *Server {
	return &Server{
		config:    config,
		hub:       hub,
		dispatch:  dispatch,
		request:   request,
		logger:    logger,
		startedAt: time.Now(),
	}
}

// Start runs the server until ctx is cancelled, then shuts down gracefully.
func (s *Server) Start(ctx context.Context) error {
	s.server = &http.Server{
		Addr:         s.config.Listen,
		Handler:      s.setupRoutes(),
		ReadTimeout:  10 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	s.logger.Info("admin server starting", "listen", s.config.Listen)

	errCh := make(chan error, 1)
	go func() {
		if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	select {
	case <-ctx.Done():
		s.logger.Info("admin server shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := s.server.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("server shutdown failed: %w", err)
		}
		return ctx.Err()
	case err := <-errCh:
		return fmt.Errorf("server error: %w", err)
	}
}

func (s *Server) setupRoutes() *chi.Mux {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(s.loggingMiddleware)
	r.Use(middleware.Recoverer)

	r.Get("/healthz", s.handleHealthz)
	r.Route("/v1", func(r chi.Router) {
		r.Get("/status", s.handleStatus)
		r.Get("/events", s.handleEvents)
		r.Post("/action", s.handleAction)
	})

	return r
}

func (s *Server) loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)
		s.logger.Debug("http request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.Status(),
			"duration_ms", time.Since(start).Milliseconds(),
			"request_id", middleware.GetReqID(r.Context()),
		)
	})
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func (s *Server) writeError(w http.ResponseWriter, status int, msg string) {
	s.writeJSON(w, status, ErrorResponse{Error: msg})
}
