package netmon

import (
	"context"
	"encoding/json"
)

// The methods below are thin parameter-forwarding wrappers over Call; the
// platform's own get/create/update/delete semantics apply unchanged. Params
// maps are passed through verbatim so callers keep the full query surface
// (search, filter, output, limit, ...).

func (c *Client) HostGet(ctx context.Context, params map[string]any) (json.RawMessage, error) {
	return c.Call(ctx, "host.get", params)
}

func (c *Client) HostCreate(ctx context.Context, params map[string]any) (json.RawMessage, error) {
	return c.Call(ctx, "host.create", params)
}

func (c *Client) HostUpdate(ctx context.Context, params map[string]any) (json.RawMessage, error) {
	return c.Call(ctx, "host.update", params)
}

func (c *Client) HostDelete(ctx context.Context, ids []string) (json.RawMessage, error) {
	return c.Call(ctx, "host.delete", ids)
}

func (c *Client) ItemGet(ctx context.Context, params map[string]any) (json.RawMessage, error) {
	return c.Call(ctx, "item.get", params)
}

func (c *Client) TriggerGet(ctx context.Context, params map[string]any) (json.RawMessage, error) {
	return c.Call(ctx, "trigger.get", params)
}

func (c *Client) ProblemGet(ctx context.Context, params map[string]any) (json.RawMessage, error) {
	return c.Call(ctx, "problem.get", params)
}

func (c *Client) HistoryGet(ctx context.Context, params map[string]any) (json.RawMessage, error) {
	return c.Call(ctx, "history.get", params)
}

func (c *Client) UserGet(ctx context.Context, params map[string]any) (json.RawMessage, error) {
	return c.Call(ctx, "user.get", params)
}

func (c *Client) ScriptGet(ctx context.Context, params map[string]any) (json.RawMessage, error) {
	return c.Call(ctx, "script.get", params)
}

// ScriptExecute runs a global script against a host. Never cached: execution
// has side effects on the target.
func (c *Client) ScriptExecute(ctx context.Context, scriptID, hostID string) (json.RawMessage, error) {
	return c.Call(ctx, "script.execute", map[string]any{
		"scriptid": scriptID,
		"hostid":   hostID,
	})
}

func (c *Client) DiscoveryRuleGet(ctx context.Context, params map[string]any) (json.RawMessage, error) {
	return c.Call(ctx, "drule.get", params)
}

func (c *Client) MaintenanceGet(ctx context.Context, params map[string]any) (json.RawMessage, error) {
	return c.Call(ctx, "maintenance.get", params)
}

func (c *Client) MaintenanceCreate(ctx context.Context, params map[string]any) (json.RawMessage, error) {
	return c.Call(ctx, "maintenance.create", params)
}

func (c *Client) MaintenanceDelete(ctx context.Context, ids []string) (json.RawMessage, error) {
	return c.Call(ctx, "maintenance.delete", ids)
}

func (c *Client) DashboardGet(ctx context.Context, params map[string]any) (json.RawMessage, error) {
	return c.Call(ctx, "dashboard.get", params)
}

func (c *Client) ServiceGet(ctx context.Context, params map[string]any) (json.RawMessage, error) {
	return c.Call(ctx, "service.get", params)
}

// Version returns the API version string. The method is unauthenticated.
func (c *Client) Version(ctx context.Context) (json.RawMessage, error) {
	return c.Call(ctx, "apiinfo.version", []any{})
}
