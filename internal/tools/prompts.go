package tools

import (
	"context"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
)

// registerPrompts registers the reusable prompt templates. These are static
// text with argument substitution; the assistant drives the actual tool use.
func registerPrompts(s *server.MCPServer) {
	s.AddPrompt(mcp.NewPrompt("incident_triage",
		mcp.WithPromptDescription("Guide an incident triage for a monitored host."),
		mcp.WithArgument("host", mcp.ArgumentDescription("Host name or ID to triage."), mcp.RequiredArgument()),
	), handleIncidentTriagePrompt)

	s.AddPrompt(mcp.NewPrompt("vendor_risk_review",
		mcp.WithPromptDescription("Review a vendor's cyber-risk posture."),
		mcp.WithArgument("company", mcp.ArgumentDescription("Company GUID on the risk platform."), mcp.RequiredArgument()),
	), handleVendorRiskReviewPrompt)
}

func handleIncidentTriagePrompt(_ context.Context, req mcp.GetPromptRequest) (*mcp.GetPromptResult, error) {
	host := req.Params.Arguments["host"]
	if host == "" {
		return nil, fmt.Errorf("incident_triage: host argument is required")
	}

	text := fmt.Sprintf(`Triage the current incidents on host %q:
1. Use monitor_host_get to confirm the host exists and is monitored.
2. Use monitor_problem_get and monitor_trigger_get (only_problems=true) to list active problems.
3. For the most severe problem, use monitor_item_get and monitor_history_get to inspect the underlying metric.
4. Summarize root-cause hypotheses and, if remediation requires downtime, propose a monitor_maintenance_create window.`, host)

	return mcp.NewGetPromptResult("Incident triage runbook", []mcp.PromptMessage{
		mcp.NewPromptMessage(mcp.RoleUser, mcp.NewTextContent(text)),
	}), nil
}

func handleVendorRiskReviewPrompt(_ context.Context, req mcp.GetPromptRequest) (*mcp.GetPromptResult, error) {
	company := req.Params.Arguments["company"]
	if company == "" {
		return nil, fmt.Errorf("vendor_risk_review: company argument is required")
	}

	text := fmt.Sprintf(`Review the risk posture of company %s:
1. Use risk_rating to get the current rating and its trend.
2. Use risk_findings (severity=severe, then material) to list the top findings.
3. Use risk_alerts to check for recent portfolio alerts affecting this vendor.
4. Produce a short assessment: rating, top 3 risks, and recommended follow-ups.`, company)

	return mcp.NewGetPromptResult("Vendor risk review", []mcp.PromptMessage{
		mcp.NewPromptMessage(mcp.RoleUser, mcp.NewTextContent(text)),
	}), nil
}
