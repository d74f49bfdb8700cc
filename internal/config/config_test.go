package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "test.yaml")
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoad(t *testing.T) {
	t.Parallel()

	path := writeConfig(t, `
transport: http
server:
  addr: ":9090"
  read_timeout: 10s
monitor:
  url: https://monitor.example.com/api_jsonrpc.php
  token: tok-123
risk:
  url: https://risk.example.com/v2
  token: rk-456
database:
  dsn: ":memory:"
caches:
  api:
    capacity: 50
    default_ttl: 30s
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}

	if cfg.Transport != TransportHTTP {
		t.Errorf("transport = %q, want %q", cfg.Transport, TransportHTTP)
	}
	if cfg.Server.Addr != ":9090" {
		t.Errorf("addr = %q, want %q", cfg.Server.Addr, ":9090")
	}
	if cfg.Monitor.Token != "tok-123" {
		t.Errorf("monitor token = %q, want %q", cfg.Monitor.Token, "tok-123")
	}
	if cfg.Caches.API.Capacity != 50 {
		t.Errorf("api cache capacity = %d, want 50", cfg.Caches.API.Capacity)
	}
	if cfg.Caches.API.DefaultTTL != 30*time.Second {
		t.Errorf("api cache ttl = %s, want 30s", cfg.Caches.API.DefaultTTL)
	}
	// Unset sections keep their defaults.
	if cfg.Caches.Vendor.DefaultTTL != 30*time.Minute {
		t.Errorf("vendor cache ttl = %s, want 30m default", cfg.Caches.Vendor.DefaultTTL)
	}
	if cfg.Server.WriteTimeout != 60*time.Second {
		t.Errorf("write timeout = %s, want 60s default", cfg.Server.WriteTimeout)
	}
}

func TestLoad_DefaultTransport(t *testing.T) {
	t.Parallel()

	path := writeConfig(t, `
monitor:
  url: https://monitor.example.com/api_jsonrpc.php
  token: tok
`)
	cfg, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Transport != TransportStdio {
		t.Errorf("transport = %q, want stdio default", cfg.Transport)
	}
}

func TestExpandEnv(t *testing.T) {
	t.Setenv("WT_TEST_TOKEN", "secret-token")

	path := writeConfig(t, `
monitor:
  url: https://monitor.example.com/api_jsonrpc.php
  token: ${WT_TEST_TOKEN}
`)
	cfg, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Monitor.Token != "secret-token" {
		t.Errorf("token = %q, want expanded env value", cfg.Monitor.Token)
	}
}

func TestExpandEnv_UnsetKeptVerbatim(t *testing.T) {
	t.Parallel()

	data := expandEnv([]byte("token: ${WT_DEFINITELY_UNSET_VAR}"))
	if string(data) != "token: ${WT_DEFINITELY_UNSET_VAR}" {
		t.Errorf("unset variable should be left verbatim, got %q", data)
	}
}

func TestValidate(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		body    string
		wantErr string
	}{
		{
			name:    "unknown transport",
			body:    "transport: grpc\nmonitor:\n  url: https://m\n  token: t\n",
			wantErr: "transport",
		},
		{
			name:    "monitor without auth",
			body:    "monitor:\n  url: https://m\n",
			wantErr: "monitor",
		},
		{
			name:    "risk without auth",
			body:    "risk:\n  url: https://r\n",
			wantErr: "risk",
		},
		{
			name:    "incomplete oauth",
			body:    "risk:\n  url: https://r\n  oauth:\n    client_id: id\n",
			wantErr: "risk.oauth",
		},
		{
			name:    "no upstreams",
			body:    "transport: stdio\n",
			wantErr: "at least one",
		},
		{
			name:    "negative capacity",
			body:    "monitor:\n  url: https://m\n  token: t\ncaches:\n  api:\n    capacity: -5\n",
			wantErr: "caches.api",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			_, err := Load(writeConfig(t, tt.body))
			if err == nil {
				t.Fatal("expected validation error")
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("err = %q, want it to mention %q", err, tt.wantErr)
			}
		})
	}
}
