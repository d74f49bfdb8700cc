// Package config handles YAML configuration loading with environment variable expansion.
package config

import (
	"fmt"
	"os"
	"regexp"
	"time"

	"go.yaml.in/yaml/v3"
)

// Transport identifiers accepted in the config file.
const (
	TransportStdio = "stdio"
	TransportHTTP  = "http"
)

// Config is the top-level gateway configuration.
type Config struct {
	Transport string          `yaml:"transport"` // "stdio" or "http"
	Server    ServerConfig    `yaml:"server"`
	Monitor   MonitorConfig   `yaml:"monitor"`
	Risk      RiskConfig      `yaml:"risk"`
	Database  DatabaseConfig  `yaml:"database"`
	Caches    CachesConfig    `yaml:"caches"`
	Telemetry TelemetryConfig `yaml:"telemetry"`
}

// ServerConfig holds HTTP server settings (http transport only).
type ServerConfig struct {
	Addr            string        `yaml:"addr"`
	ReadTimeout     time.Duration `yaml:"read_timeout"`
	WriteTimeout    time.Duration `yaml:"write_timeout"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
}

// MonitorConfig points at the network-monitoring platform's JSON-RPC API.
// Either an API token or a username/password pair must be provided; the
// token wins when both are set.
type MonitorConfig struct {
	URL      string        `yaml:"url"`
	Token    string        `yaml:"token"`
	Username string        `yaml:"username"`
	Password string        `yaml:"password"`
	Timeout  time.Duration `yaml:"timeout"`
}

// RiskConfig points at the cyber-risk platform's REST API. Auth is a static
// bearer token, or OAuth2 client credentials when OAuth is set.
type RiskConfig struct {
	URL     string        `yaml:"url"`
	Token   string        `yaml:"token"`
	OAuth   *OAuthEntry   `yaml:"oauth"`
	Timeout time.Duration `yaml:"timeout"`
}

// OAuthEntry configures OAuth2 client-credentials authentication.
type OAuthEntry struct {
	ClientID     string `yaml:"client_id"`
	ClientSecret string `yaml:"client_secret"`
	TokenURL     string `yaml:"token_url"`
}

// DatabaseConfig holds SQLite settings for the invocation audit trail.
// An empty DSN disables auditing.
type DatabaseConfig struct {
	DSN string `yaml:"dsn"` // file path or ":memory:"
}

// CacheEntry sizes one named cache. Zero values select the engine defaults.
type CacheEntry struct {
	Capacity        int           `yaml:"capacity"`
	DefaultTTL      time.Duration `yaml:"default_ttl"`
	CleanupInterval time.Duration `yaml:"cleanup_interval"`
}

// CachesConfig sizes the named cache instances.
type CachesConfig struct {
	API     CacheEntry `yaml:"api"`
	Risk    CacheEntry `yaml:"risk"`
	Vendor  CacheEntry `yaml:"vendor"`
	General CacheEntry `yaml:"general"`
}

// TelemetryConfig holds observability settings.
type TelemetryConfig struct {
	Metrics MetricsConfig `yaml:"metrics"`
	Tracing TracingConfig `yaml:"tracing"`
}

// MetricsConfig controls Prometheus metrics.
type MetricsConfig struct {
	Enabled bool `yaml:"enabled"`
}

// TracingConfig controls OpenTelemetry tracing.
type TracingConfig struct {
	Enabled    bool    `yaml:"enabled"`
	Endpoint   string  `yaml:"endpoint"`    // OTLP gRPC endpoint
	SampleRate float64 `yaml:"sample_rate"` // 0.0 to 1.0
}

var envPattern = regexp.MustCompile(`\$\{([^}]+)\}`)

// expandEnv replaces ${VAR} patterns with environment variable values.
func expandEnv(data []byte) []byte {
	return envPattern.ReplaceAllFunc(data, func(match []byte) []byte {
		varName := string(match[2 : len(match)-1])
		if val, ok := os.LookupEnv(varName); ok {
			return []byte(val)
		}
		return match
	})
}

// Load reads and parses a YAML config file, expanding environment variables.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	data = expandEnv(data)

	cfg := &Config{
		Transport: TransportStdio,
		Server: ServerConfig{
			Addr:            ":8080",
			ReadTimeout:     30 * time.Second,
			WriteTimeout:    60 * time.Second,
			ShutdownTimeout: 30 * time.Second,
		},
		Monitor: MonitorConfig{
			Timeout: 30 * time.Second,
		},
		Risk: RiskConfig{
			Timeout: 30 * time.Second,
		},
		Caches: CachesConfig{
			API:     CacheEntry{Capacity: 500, DefaultTTL: time.Minute},
			Risk:    CacheEntry{Capacity: 200, DefaultTTL: 15 * time.Minute},
			Vendor:  CacheEntry{Capacity: 200, DefaultTTL: 30 * time.Minute},
			General: CacheEntry{Capacity: 1000, DefaultTTL: 5 * time.Minute},
		},
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate fails fast on configurations that would only surface as runtime
// errors later (unknown transport, unauthenticated upstreams, bad sizing).
func (c *Config) Validate() error {
	switch c.Transport {
	case TransportStdio, TransportHTTP:
	default:
		return fmt.Errorf("transport: unknown value %q", c.Transport)
	}

	if c.Monitor.URL != "" && c.Monitor.Token == "" && c.Monitor.Username == "" {
		return fmt.Errorf("monitor: token or username/password required")
	}
	if c.Risk.URL != "" && c.Risk.Token == "" && c.Risk.OAuth == nil {
		return fmt.Errorf("risk: token or oauth credentials required")
	}
	if c.Risk.OAuth != nil {
		if c.Risk.OAuth.ClientID == "" || c.Risk.OAuth.ClientSecret == "" || c.Risk.OAuth.TokenURL == "" {
			return fmt.Errorf("risk.oauth: client_id, client_secret, and token_url are all required")
		}
	}
	if c.Monitor.URL == "" && c.Risk.URL == "" {
		return fmt.Errorf("at least one of monitor.url or risk.url must be set")
	}

	for name, e := range map[string]CacheEntry{
		"api": c.Caches.API, "risk": c.Caches.Risk, "vendor": c.Caches.Vendor, "general": c.Caches.General,
	} {
		if e.Capacity < 0 {
			return fmt.Errorf("caches.%s: capacity must not be negative", name)
		}
		if e.DefaultTTL < 0 {
			return fmt.Errorf("caches.%s: default_ttl must not be negative", name)
		}
	}
	return nil
}
