package netmon

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/tidwall/gjson"
)

// newTestServer returns a server that captures the last request body and
// replies with the given response for every call.
func newTestServer(t *testing.T, response string) (*httptest.Server, *[]byte) {
	t.Helper()
	var last []byte
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		last = body
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(response))
	}))
	t.Cleanup(srv.Close)
	return srv, &last
}

func TestCall_Result(t *testing.T) {
	t.Parallel()

	srv, last := newTestServer(t, `{"jsonrpc":"2.0","result":[{"hostid":"10084"}],"id":1}`)
	c := New(Config{URL: srv.URL, Token: "tok"}, nil)

	result, err := c.HostGet(context.Background(), map[string]any{"limit": 1})
	if err != nil {
		t.Fatal(err)
	}
	if got := gjson.GetBytes(result, "0.hostid").String(); got != "10084" {
		t.Errorf("hostid = %q, want %q", got, "10084")
	}

	req := gjson.ParseBytes(*last)
	if got := req.Get("method").String(); got != "host.get" {
		t.Errorf("method = %q, want %q", got, "host.get")
	}
	if got := req.Get("auth").String(); got != "tok" {
		t.Errorf("auth = %q, want configured token", got)
	}
	if got := req.Get("jsonrpc").String(); got != "2.0" {
		t.Errorf("jsonrpc = %q, want 2.0", got)
	}
}

func TestCall_APIError(t *testing.T) {
	t.Parallel()

	srv, _ := newTestServer(t, `{"jsonrpc":"2.0","error":{"code":-32602,"message":"Invalid params.","data":"No permissions."},"id":1}`)
	c := New(Config{URL: srv.URL, Token: "tok"}, nil)

	_, err := c.ItemGet(context.Background(), nil)
	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("err = %v, want *APIError", err)
	}
	if apiErr.Code != -32602 {
		t.Errorf("code = %d, want -32602", apiErr.Code)
	}
	if apiErr.Data != "No permissions." {
		t.Errorf("data = %q, want %q", apiErr.Data, "No permissions.")
	}
}

func TestCall_HTTPError(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	t.Cleanup(srv.Close)

	c := New(Config{URL: srv.URL, Token: "tok"}, nil)
	if _, err := c.HostGet(context.Background(), nil); err == nil {
		t.Fatal("expected error on non-200 status")
	}
}

func TestLogin(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		req := gjson.ParseBytes(body)
		switch req.Get("method").String() {
		case "user.login":
			if got := req.Get("params.username").String(); got != "admin" {
				t.Errorf("username = %q, want %q", got, "admin")
			}
			json.NewEncoder(w).Encode(map[string]any{"jsonrpc": "2.0", "result": "session-abc", "id": 1})
		case "host.get":
			if got := req.Get("auth").String(); got != "session-abc" {
				t.Errorf("auth = %q, want session token from login", got)
			}
			json.NewEncoder(w).Encode(map[string]any{"jsonrpc": "2.0", "result": []any{}, "id": 2})
		default:
			t.Errorf("unexpected method %q", req.Get("method").String())
		}
	}))
	t.Cleanup(srv.Close)

	c := New(Config{URL: srv.URL, Username: "admin", Password: "pw"}, nil)
	ctx := context.Background()
	if err := c.Login(ctx); err != nil {
		t.Fatal(err)
	}
	if _, err := c.HostGet(ctx, nil); err != nil {
		t.Fatal(err)
	}
}

func TestVersion_Unauthenticated(t *testing.T) {
	t.Parallel()

	srv, last := newTestServer(t, `{"jsonrpc":"2.0","result":"7.0.0","id":1}`)
	c := New(Config{URL: srv.URL, Token: "tok"}, nil)

	result, err := c.Version(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if string(result) != `"7.0.0"` {
		t.Errorf("result = %s, want \"7.0.0\"", result)
	}
	if gjson.GetBytes(*last, "auth").Exists() {
		t.Error("apiinfo.version must not carry an auth token")
	}
}
