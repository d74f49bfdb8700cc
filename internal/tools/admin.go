package tools

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
)

// registerAdminTools registers the introspection tools: cache statistics,
// cache invalidation, and the invocation audit trail.
func (t *toolset) registerAdminTools(s *server.MCPServer) {
	s.AddTool(mcp.NewTool("cache_stats",
		mcp.WithDescription("Report hit/miss/eviction statistics for every named cache."),
	), t.handleCacheStats)

	s.AddTool(mcp.NewTool("cache_clear",
		mcp.WithDescription("Clear one named cache (api, risk, vendor, or general)."),
		mcp.WithString("cache", mcp.Required(), mcp.Description("Cache name.")),
	), t.handleCacheClear)

	if t.deps.AuditLog != nil {
		s.AddTool(mcp.NewTool("audit_recent",
			mcp.WithDescription("List the most recent tool invocations from the audit trail."),
			mcp.WithNumber("limit", mcp.DefaultNumber(50)),
		), t.handleAuditRecent)
	}
}

func (t *toolset) handleCacheStats(_ context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	stats := map[string]any{}
	if c := t.deps.APICache; c != nil {
		stats["api"] = c.Stats()
	}
	if c := t.deps.RiskCache; c != nil {
		stats["risk"] = c.Stats()
	}
	if c := t.deps.VendorCache; c != nil {
		stats["vendor"] = c.Stats()
	}
	if c := t.deps.General; c != nil {
		stats["general"] = c.Stats()
	}

	data, err := json.MarshalIndent(stats, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshal cache stats: %w", err)
	}
	return mcp.NewToolResultText(string(data)), nil
}

func (t *toolset) handleCacheClear(_ context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	name, err := req.RequireString("cache")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	switch name {
	case "api":
		if t.deps.APICache != nil {
			t.deps.APICache.Clear()
		}
	case "risk":
		if t.deps.RiskCache != nil {
			t.deps.RiskCache.Clear()
		}
	case "vendor":
		if t.deps.VendorCache != nil {
			t.deps.VendorCache.Clear()
		}
	case "general":
		if t.deps.General != nil {
			t.deps.General.Clear()
		}
	default:
		return mcp.NewToolResultError(fmt.Sprintf("unknown cache %q", name)), nil
	}
	return mcp.NewToolResultText(fmt.Sprintf("cache %q cleared", name)), nil
}

func (t *toolset) handleAuditRecent(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	records, err := t.deps.AuditLog.RecentAudit(ctx, req.GetInt("limit", 50))
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	type row struct {
		Tool       string `json:"tool"`
		Endpoint   string `json:"endpoint"`
		CacheHit   bool   `json:"cache_hit"`
		DurationMS int64  `json:"duration_ms"`
		Error      string `json:"error,omitempty"`
		CreatedAt  string `json:"created_at"`
	}
	rows := make([]row, len(records))
	for i, r := range records {
		rows[i] = row{
			Tool:       r.Tool,
			Endpoint:   r.Endpoint,
			CacheHit:   r.CacheHit,
			DurationMS: r.DurationMS,
			Error:      r.Error,
			CreatedAt:  r.CreatedAt.Format("2006-01-02T15:04:05Z07:00"),
		}
	}

	data, err := json.MarshalIndent(rows, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshal audit rows: %w", err)
	}
	return mcp.NewToolResultText(string(data)), nil
}
