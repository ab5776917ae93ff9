// Package api exposes a small admin HTTP surface: health and metrics.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/aio-labs/aio-bot/internal/flow"
	"github.com/aio-labs/aio-bot/internal/observability"
)

// Server serves the admin endpoints.
type Server struct {
	addr     string
	sessions *flow.SessionManager
	srv      *http.Server
}

// NewServer creates the admin server bound to addr.
func NewServer(addr string, sessions *flow.SessionManager) *Server {
	s := &Server{addr: addr, sessions: sessions}
	s.srv = &http.Server{
		Addr:              addr,
		Handler:           s.routes(),
		ReadHeaderTimeout: 5 * time.Second,
	}
	return s
}

func (s *Server) routes() *chi.Mux {
	r := chi.NewRouter()
	r.Get("/health", s.handleHealth)
	r.Method(http.MethodGet, "/metrics", observability.MetricsHandler())
	return r
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]any{
		"status":   "ok",
		"sessions": s.sessions.Count(),
	})
}

// Start begins serving in the background.
func (s *Server) Start() {
	go func() {
		slog.Info("api.Server: listening", "addr", s.addr)
		if err := s.srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("api.Server: serve failed", "error", err)
		}
	}()
}

// Stop shuts the server down gracefully.
func (s *Server) Stop(ctx context.Context) error {
	return s.srv.Shutdown(ctx)
}
