// Package server implements the HTTP transport for the watchtower gateway.
//
// The MCP protocol itself is served by the streamable HTTP handler mounted
// at /mcp; this package wraps it with the operational surface: health
// probes, Prometheus metrics, request IDs, logging, and panic recovery.
package server

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	mcpserver "github.com/mark3labs/mcp-go/server"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/obsidianops/watchtower/internal/telemetry"
)

// ReadyChecker reports whether the system is ready to serve traffic.
type ReadyChecker func(ctx context.Context) error

// Deps holds all dependencies for the HTTP server.
type Deps struct {
	MCP        *mcpserver.MCPServer
	ReadyCheck ReadyChecker         // nil = always ready (for tests)
	Metrics    *telemetry.Metrics   // nil = no request metrics
	Registry   *prometheus.Registry // nil = no /metrics endpoint
}

// New creates an http.Handler with all routes and middleware wired.
func New(deps Deps) http.Handler {
	s := &server{deps: deps}

	r := chi.NewRouter()

	r.Use(s.recovery)
	r.Use(s.requestID)
	r.Use(s.logging)
	if deps.Metrics != nil {
		r.Use(metricsMiddleware(deps.Metrics))
	}

	r.Get("/healthz", s.handleHealthz)
	r.Get("/readyz", s.handleReadyz)

	if deps.Registry != nil {
		r.Handle("/metrics", promhttp.HandlerFor(deps.Registry, promhttp.HandlerOpts{}))
	}

	if deps.MCP != nil {
		streamable := mcpserver.NewStreamableHTTPServer(deps.MCP,
			mcpserver.WithEndpointPath("/mcp"),
		)
		r.Handle("/mcp", streamable)
	}

	return r
}

type server struct {
	deps Deps
}
