// Package netmon implements a JSON-RPC 2.0 client for the network-monitoring
// platform API.
package netmon

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync/atomic"
	"time"

	"github.com/rs/dnscache"
	"github.com/tidwall/gjson"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/obsidianops/watchtower/internal/telemetry"
	"github.com/obsidianops/watchtower/internal/upstream"
)

const rpcVersion = "2.0"

// Config holds client settings. Token is a long-lived API token; when empty,
// the client logs in with Username/Password and keeps the session token.
type Config struct {
	URL      string
	Token    string
	Username string
	Password string
	Timeout  time.Duration
}

// Client is a JSON-RPC 2.0 client for the monitoring API.
//
// The session token obtained by Login is stored atomically so concurrent
// tool invocations can share one client.
type Client struct {
	url      string
	username string
	password string
	token    atomic.Pointer[string]
	http     *http.Client
	nextID   atomic.Int64
}

// APIError is a JSON-RPC error object returned by the platform.
type APIError struct {
	Code    int64
	Message string
	Data    string
}

func (e *APIError) Error() string {
	if e.Data != "" {
		return fmt.Sprintf("netmon: %s: %s (code %d)", e.Message, e.Data, e.Code)
	}
	return fmt.Sprintf("netmon: %s (code %d)", e.Message, e.Code)
}

// New creates a Client. If resolver is non-nil, DNS lookups are cached.
func New(cfg Config, resolver *dnscache.Resolver) *Client {
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 30 * time.Second
	}
	c := &Client{
		url:      strings.TrimRight(cfg.URL, "/"),
		username: cfg.Username,
		password: cfg.Password,
		http: &http.Client{
			Transport: upstream.NewTransport(resolver),
			Timeout:   timeout,
		},
	}
	if cfg.Token != "" {
		tok := cfg.Token
		c.token.Store(&tok)
	}
	return c
}

type rpcRequest struct {
	Version string `json:"jsonrpc"`
	Method  string `json:"method"`
	Params  any    `json:"params"`
	ID      int64  `json:"id"`
	Auth    string `json:"auth,omitempty"`
}

// Login authenticates with username/password and stores the session token.
// It is a no-op when a static API token was configured.
func (c *Client) Login(ctx context.Context) error {
	if c.token.Load() != nil {
		return nil
	}
	if c.username == "" {
		return fmt.Errorf("netmon: no token and no username configured")
	}

	result, err := c.call(ctx, "user.login", map[string]any{
		"username": c.username,
		"password": c.password,
	}, "")
	if err != nil {
		return fmt.Errorf("netmon: login: %w", err)
	}

	var tok string
	if err := json.Unmarshal(result, &tok); err != nil {
		return fmt.Errorf("netmon: login: unexpected result: %w", err)
	}
	c.token.Store(&tok)
	return nil
}

// Call invokes method with params and returns the raw result payload.
// Methods other than apiinfo.version carry the auth token; callers that
// configured username/password must Login first.
func (c *Client) Call(ctx context.Context, method string, params any) (json.RawMessage, error) {
	auth := ""
	if method != "apiinfo.version" {
		if tok := c.token.Load(); tok != nil {
			auth = *tok
		}
	}
	return c.call(ctx, method, params, auth)
}

var tracer = telemetry.Tracer("netmon")

func (c *Client) call(ctx context.Context, method string, params any, auth string) (json.RawMessage, error) {
	ctx, span := tracer.Start(ctx, "netmon.call")
	span.SetAttributes(attribute.String("rpc.method", method))
	defer span.End()

	if params == nil {
		params = map[string]any{}
	}
	body, err := json.Marshal(rpcRequest{
		Version: rpcVersion,
		Method:  method,
		Params:  params,
		ID:      c.nextID.Add(1),
		Auth:    auth,
	})
	if err != nil {
		return nil, fmt.Errorf("netmon: marshal request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("netmon: create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json-rpc")

	resp, err := c.http.Do(httpReq)
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		return nil, fmt.Errorf("netmon: %s: %w", method, err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("netmon: read response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		span.SetStatus(codes.Error, resp.Status)
		return nil, fmt.Errorf("netmon: %s: unexpected status %d", method, resp.StatusCode)
	}

	if e := gjson.GetBytes(respBody, "error"); e.Exists() {
		apiErr := &APIError{
			Code:    e.Get("code").Int(),
			Message: e.Get("message").String(),
			Data:    e.Get("data").String(),
		}
		span.SetStatus(codes.Error, apiErr.Message)
		return nil, apiErr
	}

	result := gjson.GetBytes(respBody, "result")
	if !result.Exists() {
		return nil, fmt.Errorf("netmon: %s: response has neither result nor error", method)
	}
	return json.RawMessage(result.Raw), nil
}
