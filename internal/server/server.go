// Package server hosts the dashboard: a landing page, a small read-only
// JSON API over the opportunity log, and a WebSocket feed of live detection
// events.
package server

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/Gourav2004/Polygon-Arbitrage-Opportunity-Detector-Bot/internal/domain"
	"github.com/Gourav2004/Polygon-Arbitrage-Opportunity-Detector-Bot/internal/server/handler"
	"github.com/Gourav2004/Polygon-Arbitrage-Opportunity-Detector-Bot/internal/server/middleware"
	"github.com/Gourav2004/Polygon-Arbitrage-Opportunity-Detector-Bot/internal/server/ws"
)

// Config holds the HTTP server configuration.
type Config struct {
	Port        int
	CORSOrigins []string

	// RateLimiter enables per-IP limiting when non-nil.
	RateLimiter       domain.RateLimiter
	RequestsPerMinute int
}

// Handlers aggregates the endpoint handlers the server registers.
type Handlers struct {
	Opportunities *handler.OpportunityHandler
	Status        *handler.StatusHandler
	Health        *handler.HealthHandler
	Exports       *handler.ExportsHandler
}

// Server is the dashboard HTTP + WebSocket server.
type Server struct {
	httpServer *http.Server
	logger     *slog.Logger
}

// New registers all routes and builds the middleware chain. wsHub may be nil
// to run without the live feed.
func New(cfg Config, handlers Handlers, wsHub *ws.Hub, logger *slog.Logger) *Server {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /{$}", handler.Index)

	mux.HandleFunc("GET /api/opportunities", handlers.Opportunities.List)
	// The first dashboard fetched a bare array from /opportunities; keep the
	// alias so old bookmarks and scripts stay alive.
	mux.HandleFunc("GET /opportunities", handlers.Opportunities.ListLegacy)

	mux.HandleFunc("GET /api/status", handlers.Status.GetStatus)
	mux.HandleFunc("GET /api/health", handlers.Health.Check)
	mux.HandleFunc("GET /api/exports", handlers.Exports.List)

	if wsHub != nil {
		mux.HandleFunc("GET /ws", wsHub.HandleWS)
	}

	var h http.Handler = mux
	if cfg.RateLimiter != nil && cfg.RequestsPerMinute > 0 {
		h = middleware.RateLimit(cfg.RateLimiter, cfg.RequestsPerMinute, time.Minute)(h)
	}
	h = middleware.Logging(logger)(h)
	h = middleware.CORS(cfg.CORSOrigins)(h)

	return &Server{
		httpServer: &http.Server{
			Addr:         fmt.Sprintf(":%d", cfg.Port),
			Handler:      h,
			ReadTimeout:  15 * time.Second,
			WriteTimeout: 30 * time.Second,
			IdleTimeout:  60 * time.Second,
		},
		logger: logger.With(slog.String("component", "server")),
	}
}

// Start listens until the server errors or Shutdown is called.
func (s *Server) Start() error {
	s.logger.Info("listening", slog.String("addr", s.httpServer.Addr))
	if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("server: listen: %w", err)
	}
	return nil
}

// Shutdown drains in-flight requests within the context deadline.
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("shutting down")
	if err := s.httpServer.Shutdown(ctx); err != nil {
		return fmt.Errorf("server: shutdown: %w", err)
	}
	return nil
}
