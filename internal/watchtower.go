// Package watchtower holds the small set of types shared across the MCP
// gateway: request-scoped context helpers and the audit record written for
// every tool invocation.
package watchtower

import (
	"context"
	"time"
)

type contextKey int

const requestIDKey contextKey = iota

// ContextWithRequestID stores a request ID in the context.
func ContextWithRequestID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, requestIDKey, id)
}

// RequestIDFromContext returns the request ID, or "" when absent.
func RequestIDFromContext(ctx context.Context) string {
	id, _ := ctx.Value(requestIDKey).(string)
	return id
}

// AuditRecord describes one tool invocation for the audit trail.
// ID is assigned by the recorder at flush time; callers leave it empty.
type AuditRecord struct {
	ID         string
	Tool       string
	Endpoint   string
	CacheHit   bool
	DurationMS int64
	Error      string
	CreatedAt  time.Time
}
