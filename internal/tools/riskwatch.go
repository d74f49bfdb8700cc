package tools

import (
	"context"
	"net/url"
	"strconv"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
)

// registerRiskTools registers the cyber-risk tool family. Ratings and
// findings go through the risk cache; the vendor portfolio has its own
// cache with a longer TTL since portfolio membership changes rarely.
func (t *toolset) registerRiskTools(s *server.MCPServer) {
	s.AddTool(mcp.NewTool("risk_rating",
		mcp.WithDescription("Get the current security rating for a company."),
		mcp.WithString("company_guid", mcp.Required(), mcp.Description("Company GUID on the risk platform.")),
	), t.handleRiskRating)

	s.AddTool(mcp.NewTool("risk_portfolio",
		mcp.WithDescription("List the monitored vendor portfolio."),
		mcp.WithNumber("limit", mcp.Description("Maximum number of vendors to return."), mcp.DefaultNumber(100)),
	), t.handleRiskPortfolio)

	s.AddTool(mcp.NewTool("risk_findings",
		mcp.WithDescription("List risk findings for a company, optionally filtered by severity."),
		mcp.WithString("company_guid", mcp.Required()),
		mcp.WithString("severity", mcp.Description("Severity filter: minor, moderate, material, or severe.")),
		mcp.WithNumber("limit", mcp.DefaultNumber(100)),
	), t.handleRiskFindings)

	s.AddTool(mcp.NewTool("risk_alerts",
		mcp.WithDescription("List the latest portfolio alerts."),
		mcp.WithNumber("limit", mcp.DefaultNumber(100)),
	), t.handleRiskAlerts)
}

func (t *toolset) handleRiskRating(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	guid, err := req.RequireString("company_guid")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	params := map[string]any{"company_guid": guid}
	return t.cached(ctx, "risk_rating", "/ratings", params, t.deps.RiskCache, func(ctx context.Context) ([]byte, error) {
		return t.deps.Risk.Rating(ctx, guid)
	})
}

func (t *toolset) handleRiskPortfolio(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	limit := req.GetInt("limit", 100)
	params := map[string]any{"limit": limit}
	return t.cached(ctx, "risk_portfolio", "/portfolio", params, t.deps.VendorCache, func(ctx context.Context) ([]byte, error) {
		return t.deps.Risk.Portfolio(ctx, url.Values{"limit": {strconv.Itoa(limit)}})
	})
}

func (t *toolset) handleRiskFindings(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	guid, err := req.RequireString("company_guid")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	limit := req.GetInt("limit", 100)
	severity := req.GetString("severity", "")

	params := map[string]any{"company_guid": guid, "limit": limit}
	query := url.Values{"limit": {strconv.Itoa(limit)}}
	if severity != "" {
		params["severity"] = severity
		query.Set("severity", severity)
	}
	return t.cached(ctx, "risk_findings", "/findings", params, t.deps.RiskCache, func(ctx context.Context) ([]byte, error) {
		return t.deps.Risk.Findings(ctx, guid, query)
	})
}

func (t *toolset) handleRiskAlerts(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	limit := req.GetInt("limit", 100)
	params := map[string]any{"limit": limit}
	return t.cached(ctx, "risk_alerts", "/alerts", params, t.deps.RiskCache, func(ctx context.Context) ([]byte, error) {
		return t.deps.Risk.Alerts(ctx, url.Values{"limit": {strconv.Itoa(limit)}})
	})
}
