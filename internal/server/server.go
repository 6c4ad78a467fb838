package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/castordeluca/coinwatch/internal/stats"
)

// Server serves the read-side HTTP API.
type Server struct {
	engine *stats.Engine
	logger *slog.Logger
	http   *http.Server
}

// New creates a Server listening on the given port.
func New(port int, engine *stats.Engine, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}

	s := &Server{
		engine: engine,
		logger: logger,
	}

	r := chi.NewRouter()
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)

	r.Get("/health", s.handleHealth)
	r.Get("/coins", s.handleCoins)
	r.Get("/stats", s.handleStats)
	r.Get("/deviation", s.handleDeviation)
	r.Get("/history", s.handleHistory)
	r.Get("/compare", s.handleCompare)

	s.http = &http.Server{
		Addr:         fmt.Sprintf(":%d", port),
		Handler:      r,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
	}

	return s
}

// Handler exposes the route tree; tests mount it on httptest servers.
func (s *Server) Handler() http.Handler {
	return s.http.Handler
}

// Start begins serving in a background goroutine.
func (s *Server) Start() {
	go func() {
		s.logger.Info("http server listening", "addr", s.http.Addr)
		if err := s.http.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.Error("http server failed", "err", err)
		}
	}()
}

// Stop shuts the server down gracefully, bounded by ctx.
func (s *Server) Stop(ctx context.Context) error {
	return s.http.Shutdown(ctx)
}
