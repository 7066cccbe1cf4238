// Package server is the HTTP surface of the Hookboard dashboard backend.
//
// DESIGN: Plain net/http with a middleware chain (applied in order):
//  1. panicRecovery:     Catch panics, return 500, log stack trace
//  2. rateLimit:         Per-IP token bucket rate limiting
//  3. loggingMiddleware: Log request/response with timing
//  4. security:          Security headers, CORS for local dashboard UIs
//
// The server binds loopback only - this is a local management tool, not
// a network service.
package server

import (
	"context"
	"fmt"
	"net/http"

	"github.com/oselz/hookboard/internal/config"
	"github.com/oselz/hookboard/internal/events"
	"github.com/oselz/hookboard/internal/hookgen"
	"github.com/oselz/hookboard/internal/monitoring"
	"github.com/oselz/hookboard/internal/settings"
	"github.com/oselz/hookboard/internal/stats"
)

const (
	// HeaderRequestID carries the request correlation ID.
	HeaderRequestID = "X-Request-ID"

	// RateLimitPerSecond is the per-IP request budget. Generous for a
	// single-user dashboard, tight enough to stop a runaway client.
	RateLimitPerSecond = 50

	// MaxRateLimitBuckets bounds rate limiter memory.
	MaxRateLimitBuckets = 10000

	// maxRequestBody bounds inbound JSON bodies.
	maxRequestBody = 1 << 20 // 1 MB
)

// Server is the dashboard HTTP server and its wired dependencies.
type Server struct {
	cfg      *config.Config
	logger   *monitoring.Logger
	metrics  *monitoring.MetricsCollector
	alerts   *monitoring.AlertManager
	tracker  *monitoring.Tracker
	hub      *events.Hub
	service  *hookgen.Service
	settings *settings.Manager
	store    *stats.Store
	tokens   *stats.TokenCounter

	rateLimiter *rateLimiter
	httpServer  *http.Server
}

// Deps carries the wired subsystems into New. All fields are required
// except Store, which may be nil when the stats database is disabled.
type Deps struct {
	Logger   *monitoring.Logger
	Metrics  *monitoring.MetricsCollector
	Alerts   *monitoring.AlertManager
	Tracker  *monitoring.Tracker
	Hub      *events.Hub
	Service  *hookgen.Service
	Settings *settings.Manager
	Store    *stats.Store
	Tokens   *stats.TokenCounter
}

// New creates the server with its routes and middleware chain.
func New(cfg *config.Config, deps Deps) *Server {
	s := &Server{
		cfg:         cfg,
		logger:      deps.Logger,
		metrics:     deps.Metrics,
		alerts:      deps.Alerts,
		tracker:     deps.Tracker,
		hub:         deps.Hub,
		service:     deps.Service,
		settings:    deps.Settings,
		store:       deps.Store,
		tokens:      deps.Tokens,
		rateLimiter: newRateLimiter(RateLimitPerSecond),
	}

	mux := http.NewServeMux()
	s.registerRoutes(mux)

	var handler http.Handler = mux
	handler = s.security(handler)
	handler = s.loggingMiddleware(handler)
	handler = s.rateLimit(handler)
	handler = s.panicRecovery(handler)

	s.httpServer = &http.Server{
		Addr:         fmt.Sprintf("127.0.0.1:%d", cfg.Server.Port),
		Handler:      handler,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}
	return s
}

func (s *Server) registerRoutes(mux *http.ServeMux) {
	mux.HandleFunc("GET /health", s.handleHealth)
	mux.HandleFunc("GET /api/metrics", s.handleMetrics)

	mux.HandleFunc("POST /api/hooks/generate", s.handleGenerateHook)
	mux.HandleFunc("GET /api/hooks/availability", s.handleAvailability)

	mux.HandleFunc("GET /api/settings/{scope}", s.handleGetSettings)
	mux.HandleFunc("PATCH /api/settings/{scope}", s.handlePatchSettings)
	mux.HandleFunc("GET /api/instructions", s.handleGetInstructions)
	mux.HandleFunc("PUT /api/instructions", s.handlePutInstructions)

	mux.HandleFunc("GET /api/mcp/{scope}/servers", s.handleListMCPServers)
	mux.HandleFunc("POST /api/mcp/{scope}/servers", s.handleAddMCPServer)
	mux.HandleFunc("DELETE /api/mcp/{scope}/servers/{name}", s.handleRemoveMCPServer)

	mux.HandleFunc("GET /api/stats/usage", s.handleUsageStats)
	mux.HandleFunc("GET /api/stats/recent", s.handleRecentGenerations)

	mux.Handle("GET /api/events", s.hub)
}

// Start begins serving. Blocks until Shutdown or a listener error.
func (s *Server) Start() error {
	s.logger.Info().Str("addr", s.httpServer.Addr).Msg("Dashboard server listening")
	return s.httpServer.ListenAndServe()
}

// Shutdown drains in-flight requests and disconnects event subscribers.
func (s *Server) Shutdown(ctx context.Context) error {
	s.hub.Close()
	return s.httpServer.Shutdown(ctx)
}
