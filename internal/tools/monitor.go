package tools

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
)

// registerMonitorTools registers the network-monitoring tool family. Read
// tools memoize through the API cache; create/update/delete/execute go
// straight upstream and clear it.
func (t *toolset) registerMonitorTools(s *server.MCPServer) {
	s.AddTool(mcp.NewTool("monitor_host_get",
		mcp.WithDescription("List monitored hosts, optionally filtered by name substring."),
		mcp.WithString("search", mcp.Description("Substring to match against host names.")),
		mcp.WithNumber("limit", mcp.Description("Maximum number of hosts to return."), mcp.DefaultNumber(100)),
	), t.handleHostGet)

	s.AddTool(mcp.NewTool("monitor_host_create",
		mcp.WithDescription("Create a host with an agent interface in the given host group."),
		mcp.WithString("host", mcp.Required(), mcp.Description("Technical host name.")),
		mcp.WithString("group_id", mcp.Required(), mcp.Description("Host group ID.")),
		mcp.WithString("ip", mcp.Required(), mcp.Description("Agent interface IP address.")),
	), t.handleHostCreate)

	s.AddTool(mcp.NewTool("monitor_host_update",
		mcp.WithDescription("Update a host's visible name or enabled status."),
		mcp.WithString("host_id", mcp.Required(), mcp.Description("Host ID to update.")),
		mcp.WithString("name", mcp.Description("New visible name.")),
		mcp.WithNumber("status", mcp.Description("0 = monitored, 1 = unmonitored."), mcp.DefaultNumber(-1)),
	), t.handleHostUpdate)

	s.AddTool(mcp.NewTool("monitor_host_delete",
		mcp.WithDescription("Delete hosts by ID."),
		mcp.WithString("host_ids", mcp.Required(), mcp.Description("Comma-separated host IDs.")),
	), t.handleHostDelete)

	s.AddTool(mcp.NewTool("monitor_item_get",
		mcp.WithDescription("List items (collected metrics) for a host."),
		mcp.WithString("host_id", mcp.Description("Host ID to list items for.")),
		mcp.WithString("search", mcp.Description("Substring to match against item names.")),
		mcp.WithNumber("limit", mcp.DefaultNumber(100)),
	), t.handleItemGet)

	s.AddTool(mcp.NewTool("monitor_trigger_get",
		mcp.WithDescription("List triggers, optionally only those currently in problem state."),
		mcp.WithString("host_id", mcp.Description("Restrict to one host.")),
		mcp.WithBoolean("only_problems", mcp.Description("Return only triggers in problem state.")),
		mcp.WithNumber("limit", mcp.DefaultNumber(100)),
	), t.handleTriggerGet)

	s.AddTool(mcp.NewTool("monitor_problem_get",
		mcp.WithDescription("List current problems, most recent first."),
		mcp.WithNumber("severity", mcp.Description("Minimum severity (0-5)."), mcp.DefaultNumber(0)),
		mcp.WithNumber("limit", mcp.DefaultNumber(100)),
	), t.handleProblemGet)

	s.AddTool(mcp.NewTool("monitor_history_get",
		mcp.WithDescription("Fetch recent history values for an item."),
		mcp.WithString("item_id", mcp.Required(), mcp.Description("Item ID.")),
		mcp.WithNumber("history", mcp.Description("Value type: 0 float, 1 char, 2 log, 3 uint, 4 text."), mcp.DefaultNumber(0)),
		mcp.WithNumber("limit", mcp.DefaultNumber(100)),
	), t.handleHistoryGet)

	s.AddTool(mcp.NewTool("monitor_user_get",
		mcp.WithDescription("List users of the monitoring platform."),
		mcp.WithNumber("limit", mcp.DefaultNumber(100)),
	), t.handleUserGet)

	s.AddTool(mcp.NewTool("monitor_script_get",
		mcp.WithDescription("List global scripts."),
	), t.handleScriptGet)

	s.AddTool(mcp.NewTool("monitor_script_execute",
		mcp.WithDescription("Execute a global script against a host. This runs a command on the target."),
		mcp.WithString("script_id", mcp.Required()),
		mcp.WithString("host_id", mcp.Required()),
	), t.handleScriptExecute)

	s.AddTool(mcp.NewTool("monitor_discovery_get",
		mcp.WithDescription("List network discovery rules."),
	), t.handleDiscoveryGet)

	s.AddTool(mcp.NewTool("monitor_maintenance_get",
		mcp.WithDescription("List maintenance windows."),
	), t.handleMaintenanceGet)

	s.AddTool(mcp.NewTool("monitor_maintenance_create",
		mcp.WithDescription("Create a maintenance window for the given hosts, starting now."),
		mcp.WithString("name", mcp.Required(), mcp.Description("Maintenance window name.")),
		mcp.WithString("host_ids", mcp.Required(), mcp.Description("Comma-separated host IDs.")),
		mcp.WithNumber("duration_minutes", mcp.Description("Window length in minutes."), mcp.DefaultNumber(60)),
	), t.handleMaintenanceCreate)

	s.AddTool(mcp.NewTool("monitor_maintenance_delete",
		mcp.WithDescription("Delete maintenance windows by ID."),
		mcp.WithString("maintenance_ids", mcp.Required(), mcp.Description("Comma-separated maintenance IDs.")),
	), t.handleMaintenanceDelete)

	s.AddTool(mcp.NewTool("monitor_dashboard_get",
		mcp.WithDescription("List dashboards."),
	), t.handleDashboardGet)

	s.AddTool(mcp.NewTool("monitor_service_get",
		mcp.WithDescription("List business services and their status."),
	), t.handleServiceGet)

	s.AddTool(mcp.NewTool("monitor_version",
		mcp.WithDescription("Return the monitoring platform API version."),
	), t.handleVersion)
}

func (t *toolset) handleHostGet(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	params := map[string]any{
		"output": "extend",
		"limit":  req.GetInt("limit", 100),
	}
	if search := req.GetString("search", ""); search != "" {
		params["search"] = map[string]any{"host": search}
	}
	return t.cached(ctx, "monitor_host_get", "host.get", params, t.deps.APICache, func(ctx context.Context) ([]byte, error) {
		return t.deps.Monitor.HostGet(ctx, params)
	})
}

func (t *toolset) handleHostCreate(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	host, err := req.RequireString("host")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	groupID, err := req.RequireString("group_id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	ip, err := req.RequireString("ip")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	params := map[string]any{
		"host":   host,
		"groups": []map[string]any{{"groupid": groupID}},
		"interfaces": []map[string]any{{
			"type": 1, "main": 1, "useip": 1,
			"ip": ip, "dns": "", "port": "10050",
		}},
	}
	return t.direct(ctx, "monitor_host_create", "host.create", func(ctx context.Context) ([]byte, error) {
		return t.deps.Monitor.HostCreate(ctx, params)
	}, t.deps.APICache)
}

func (t *toolset) handleHostUpdate(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	hostID, err := req.RequireString("host_id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	params := map[string]any{"hostid": hostID}
	if name := req.GetString("name", ""); name != "" {
		params["name"] = name
	}
	if status := req.GetInt("status", -1); status >= 0 {
		params["status"] = status
	}
	return t.direct(ctx, "monitor_host_update", "host.update", func(ctx context.Context) ([]byte, error) {
		return t.deps.Monitor.HostUpdate(ctx, params)
	}, t.deps.APICache)
}

func (t *toolset) handleHostDelete(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	ids, err := requireIDList(req, "host_ids")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return t.direct(ctx, "monitor_host_delete", "host.delete", func(ctx context.Context) ([]byte, error) {
		return t.deps.Monitor.HostDelete(ctx, ids)
	}, t.deps.APICache)
}

func (t *toolset) handleItemGet(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	params := map[string]any{
		"output": "extend",
		"limit":  req.GetInt("limit", 100),
	}
	if hostID := req.GetString("host_id", ""); hostID != "" {
		params["hostids"] = hostID
	}
	if search := req.GetString("search", ""); search != "" {
		params["search"] = map[string]any{"name": search}
	}
	return t.cached(ctx, "monitor_item_get", "item.get", params, t.deps.APICache, func(ctx context.Context) ([]byte, error) {
		return t.deps.Monitor.ItemGet(ctx, params)
	})
}

func (t *toolset) handleTriggerGet(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	params := map[string]any{
		"output": "extend",
		"limit":  req.GetInt("limit", 100),
	}
	if hostID := req.GetString("host_id", ""); hostID != "" {
		params["hostids"] = hostID
	}
	if req.GetBool("only_problems", false) {
		params["filter"] = map[string]any{"value": 1}
		params["only_true"] = true
	}
	return t.cached(ctx, "monitor_trigger_get", "trigger.get", params, t.deps.APICache, func(ctx context.Context) ([]byte, error) {
		return t.deps.Monitor.TriggerGet(ctx, params)
	})
}

func (t *toolset) handleProblemGet(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	params := map[string]any{
		"output":    "extend",
		"limit":     req.GetInt("limit", 100),
		"sortfield": []string{"eventid"},
		"sortorder": "DESC",
	}
	if sev := req.GetInt("severity", 0); sev > 0 {
		params["severities"] = severitiesFrom(sev)
	}
	return t.cached(ctx, "monitor_problem_get", "problem.get", params, t.deps.APICache, func(ctx context.Context) ([]byte, error) {
		return t.deps.Monitor.ProblemGet(ctx, params)
	})
}

func (t *toolset) handleHistoryGet(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	itemID, err := req.RequireString("item_id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	params := map[string]any{
		"itemids":   itemID,
		"history":   req.GetInt("history", 0),
		"limit":     req.GetInt("limit", 100),
		"sortfield": "clock",
		"sortorder": "DESC",
	}
	return t.cached(ctx, "monitor_history_get", "history.get", params, t.deps.APICache, func(ctx context.Context) ([]byte, error) {
		return t.deps.Monitor.HistoryGet(ctx, params)
	})
}

func (t *toolset) handleUserGet(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	params := map[string]any{
		"output": "extend",
		"limit":  req.GetInt("limit", 100),
	}
	return t.cached(ctx, "monitor_user_get", "user.get", params, t.deps.APICache, func(ctx context.Context) ([]byte, error) {
		return t.deps.Monitor.UserGet(ctx, params)
	})
}

func (t *toolset) handleScriptGet(ctx context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	params := map[string]any{"output": "extend"}
	return t.cached(ctx, "monitor_script_get", "script.get", params, t.deps.APICache, func(ctx context.Context) ([]byte, error) {
		return t.deps.Monitor.ScriptGet(ctx, params)
	})
}

func (t *toolset) handleScriptExecute(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	scriptID, err := req.RequireString("script_id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	hostID, err := req.RequireString("host_id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return t.direct(ctx, "monitor_script_execute", "script.execute", func(ctx context.Context) ([]byte, error) {
		return t.deps.Monitor.ScriptExecute(ctx, scriptID, hostID)
	})
}

func (t *toolset) handleDiscoveryGet(ctx context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	params := map[string]any{"output": "extend", "selectDChecks": "extend"}
	return t.cached(ctx, "monitor_discovery_get", "drule.get", params, t.deps.APICache, func(ctx context.Context) ([]byte, error) {
		return t.deps.Monitor.DiscoveryRuleGet(ctx, params)
	})
}

func (t *toolset) handleMaintenanceGet(ctx context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	params := map[string]any{"output": "extend", "selectHosts": "extend"}
	return t.cached(ctx, "monitor_maintenance_get", "maintenance.get", params, t.deps.APICache, func(ctx context.Context) ([]byte, error) {
		return t.deps.Monitor.MaintenanceGet(ctx, params)
	})
}

func (t *toolset) handleMaintenanceCreate(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	name, err := req.RequireString("name")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	ids, err := requireIDList(req, "host_ids")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	duration := req.GetInt("duration_minutes", 60)
	now := time.Now().Unix()
	hosts := make([]map[string]any, len(ids))
	for i, id := range ids {
		hosts[i] = map[string]any{"hostid": id}
	}
	params := map[string]any{
		"name":             name,
		"active_since":     now,
		"active_till":      now + int64(duration)*60,
		"hosts":            hosts,
		"timeperiods":      []map[string]any{{"timeperiod_type": 0, "period": duration * 60}},
		"maintenance_type": 0,
	}
	return t.direct(ctx, "monitor_maintenance_create", "maintenance.create", func(ctx context.Context) ([]byte, error) {
		return t.deps.Monitor.MaintenanceCreate(ctx, params)
	}, t.deps.APICache)
}

func (t *toolset) handleMaintenanceDelete(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	ids, err := requireIDList(req, "maintenance_ids")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return t.direct(ctx, "monitor_maintenance_delete", "maintenance.delete", func(ctx context.Context) ([]byte, error) {
		return t.deps.Monitor.MaintenanceDelete(ctx, ids)
	}, t.deps.APICache)
}

func (t *toolset) handleDashboardGet(ctx context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	params := map[string]any{"output": "extend"}
	return t.cached(ctx, "monitor_dashboard_get", "dashboard.get", params, t.deps.APICache, func(ctx context.Context) ([]byte, error) {
		return t.deps.Monitor.DashboardGet(ctx, params)
	})
}

func (t *toolset) handleServiceGet(ctx context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	params := map[string]any{"output": "extend"}
	return t.cached(ctx, "monitor_service_get", "service.get", params, t.deps.APICache, func(ctx context.Context) ([]byte, error) {
		return t.deps.Monitor.ServiceGet(ctx, params)
	})
}

// handleVersion memoizes through the general-purpose cache directly: the
// version string is tiny, endpoint-less, and worth keeping out of the API
// cache's LRU pressure. Without a general cache the lookup goes upstream
// every time.
func (t *toolset) handleVersion(ctx context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	const key = "monitor:version"
	start := time.Now()

	if c := t.deps.General; c != nil {
		if data, ok := c.Get(key); ok {
			t.observe("monitor_version", "apiinfo.version", true, start, nil)
			return mcp.NewToolResultText(string(data)), nil
		}
	}

	data, err := t.deps.Monitor.Version(ctx)
	t.observe("monitor_version", "apiinfo.version", false, start, err)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if t.deps.General != nil {
		t.deps.General.Set(key, data, time.Hour)
	}
	return mcp.NewToolResultText(string(data)), nil
}

// requireIDList parses a required comma-separated ID argument.
func requireIDList(req mcp.CallToolRequest, arg string) ([]string, error) {
	raw, err := req.RequireString(arg)
	if err != nil {
		return nil, err
	}
	parts := strings.Split(raw, ",")
	ids := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			ids = append(ids, p)
		}
	}
	if len(ids) == 0 {
		return nil, fmt.Errorf("%s: no IDs given", arg)
	}
	return ids, nil
}

// severitiesFrom expands a minimum severity into the explicit list form the
// API expects.
func severitiesFrom(minimum int) []int {
	var out []int
	for s := minimum; s <= 5; s++ {
		out = append(out, s)
	}
	return out
}
