// Package risk implements a REST client for the cyber-risk platform API.
package risk

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/rs/dnscache"
	"github.com/tidwall/gjson"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/clientcredentials"

	"github.com/obsidianops/watchtower/internal/telemetry"
	"github.com/obsidianops/watchtower/internal/upstream"
)

// Config holds client settings. Token is a static bearer token; OAuth, when
// non-nil, switches to client-credentials and takes precedence.
type Config struct {
	URL     string
	Token   string
	OAuth   *OAuthConfig
	Timeout time.Duration
}

// OAuthConfig holds OAuth2 client-credentials settings.
type OAuthConfig struct {
	ClientID     string
	ClientSecret string
	TokenURL     string
}

// Client is a REST client for the risk platform.
type Client struct {
	baseURL string
	token   string
	http    *http.Client
}

// APIError is a non-2xx response from the platform.
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("risk: %s (status %d)", e.Message, e.Status)
}

// New creates a Client. With OAuth configured, token acquisition and refresh
// are handled by the oauth2 transport; otherwise the static token is sent as
// a bearer credential. If resolver is non-nil, DNS lookups are cached.
func New(cfg Config, resolver *dnscache.Resolver) *Client {
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 30 * time.Second
	}

	base := upstream.NewTransport(resolver)
	httpClient := &http.Client{Transport: base, Timeout: timeout}

	token := cfg.Token
	if cfg.OAuth != nil {
		cc := clientcredentials.Config{
			ClientID:     cfg.OAuth.ClientID,
			ClientSecret: cfg.OAuth.ClientSecret,
			TokenURL:     cfg.OAuth.TokenURL,
		}
		ctx := context.WithValue(context.Background(), oauth2.HTTPClient, httpClient)
		httpClient = cc.Client(ctx)
		httpClient.Timeout = timeout
		token = "" // the oauth2 transport injects Authorization
	}

	return &Client{
		baseURL: strings.TrimRight(cfg.URL, "/"),
		token:   token,
		http:    httpClient,
	}
}

var tracer = telemetry.Tracer("risk")

func (c *Client) get(ctx context.Context, path string, query url.Values) (json.RawMessage, error) {
	ctx, span := tracer.Start(ctx, "risk.get")
	span.SetAttributes(attribute.String("http.route", path))
	defer span.End()

	u := c.baseURL + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, fmt.Errorf("risk: create request: %w", err)
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		return nil, fmt.Errorf("risk: %s: %w", path, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("risk: read response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		msg := gjson.GetBytes(body, "message").String()
		if msg == "" {
			msg = http.StatusText(resp.StatusCode)
		}
		span.SetStatus(codes.Error, msg)
		return nil, &APIError{Status: resp.StatusCode, Message: msg}
	}
	return json.RawMessage(body), nil
}

// Rating returns the current risk rating for a company.
func (c *Client) Rating(ctx context.Context, companyGUID string) (json.RawMessage, error) {
	return c.get(ctx, "/ratings/"+url.PathEscape(companyGUID), nil)
}

// Portfolio returns the monitored vendor portfolio.
func (c *Client) Portfolio(ctx context.Context, query url.Values) (json.RawMessage, error) {
	return c.get(ctx, "/portfolio", query)
}

// Findings returns risk findings for a company.
func (c *Client) Findings(ctx context.Context, companyGUID string, query url.Values) (json.RawMessage, error) {
	return c.get(ctx, "/companies/"+url.PathEscape(companyGUID)+"/findings", query)
}

// Alerts returns the latest portfolio alerts.
func (c *Client) Alerts(ctx context.Context, query url.Values) (json.RawMessage, error) {
	return c.get(ctx, "/alerts", query)
}
