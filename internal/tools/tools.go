// Package tools registers the MCP tools and prompts exposed by the gateway.
//
// Read tools are memoized through the named API caches; write tools bypass
// the cache and invalidate the affected read entries. Every invocation is
// counted, timed, and recorded to the audit trail when one is configured.
package tools

import (
	"context"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	watchtower "github.com/obsidianops/watchtower/internal"
	"github.com/obsidianops/watchtower/internal/cache"
	"github.com/obsidianops/watchtower/internal/netmon"
	"github.com/obsidianops/watchtower/internal/risk"
	"github.com/obsidianops/watchtower/internal/telemetry"
)

// Auditor records tool invocations asynchronously.
type Auditor interface {
	Record(watchtower.AuditRecord)
}

// AuditReader reads back recent invocations for the audit_recent tool.
type AuditReader interface {
	RecentAudit(ctx context.Context, limit int) ([]watchtower.AuditRecord, error)
}

// Deps holds everything the tool layer needs. Monitor and Risk may each be
// nil, in which case their tool families are not registered. A registered
// family's named caches (APICache for monitor tools, RiskCache and
// VendorCache for risk tools) must be non-nil. General is optional: without
// it the version lookup simply goes upstream every time. Metrics, Audit,
// and AuditLog are optional.
type Deps struct {
	Monitor *netmon.Client
	Risk    *risk.Client

	APICache    *cache.APICache
	RiskCache   *cache.APICache
	VendorCache *cache.APICache
	General     *cache.Cache[[]byte]

	Metrics  *telemetry.Metrics
	Audit    Auditor
	AuditLog AuditReader
}

// Register wires all tools and prompts onto the MCP server.
func Register(s *server.MCPServer, deps Deps) {
	t := &toolset{deps: deps}

	if deps.Monitor != nil {
		t.registerMonitorTools(s)
	}
	if deps.Risk != nil {
		t.registerRiskTools(s)
	}
	t.registerAdminTools(s)
	registerPrompts(s)
}

type toolset struct {
	deps Deps
}

// cached serves a read tool through the given cache: a live entry
// short-circuits the upstream call, a miss populates it. The upstream error
// is reported through the tool result, not the protocol error channel, so
// the assistant can see what went wrong.
func (t *toolset) cached(ctx context.Context, tool, endpoint string, params map[string]any, c *cache.APICache, fn cache.FetchFunc) (*mcp.CallToolResult, error) {
	start := time.Now()
	hit := c.Has(c.Key(endpoint, params))

	data, err := c.Fetch(ctx, endpoint, params, fn, 0)
	t.observe(tool, endpoint, hit, start, err)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(string(data)), nil
}

// direct serves a write tool: no caching, and the given caches are cleared
// afterwards so stale reads cannot survive a successful mutation.
func (t *toolset) direct(ctx context.Context, tool, endpoint string, fn cache.FetchFunc, invalidate ...*cache.APICache) (*mcp.CallToolResult, error) {
	start := time.Now()

	data, err := fn(ctx)
	t.observe(tool, endpoint, false, start, err)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	for _, c := range invalidate {
		c.Clear()
	}
	return mcp.NewToolResultText(string(data)), nil
}

func (t *toolset) observe(tool, endpoint string, hit bool, start time.Time, err error) {
	elapsed := time.Since(start)

	if m := t.deps.Metrics; m != nil {
		outcome := "ok"
		if err != nil {
			outcome = "error"
		}
		m.ToolCalls.WithLabelValues(tool, outcome).Inc()
		m.ToolDuration.WithLabelValues(tool).Observe(elapsed.Seconds())
		if err != nil {
			m.UpstreamErrors.WithLabelValues(platformOf(tool)).Inc()
		}
	}

	if a := t.deps.Audit; a != nil {
		rec := watchtower.AuditRecord{
			Tool:       tool,
			Endpoint:   endpoint,
			CacheHit:   hit,
			DurationMS: elapsed.Milliseconds(),
			CreatedAt:  start,
		}
		if err != nil {
			rec.Error = err.Error()
		}
		a.Record(rec)
	}
}

func platformOf(tool string) string {
	if len(tool) >= 5 && tool[:5] == "risk_" {
		return "risk"
	}
	return "monitor"
}
