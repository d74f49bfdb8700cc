package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	mcpserver "github.com/mark3labs/mcp-go/server"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/dnscache"

	"github.com/obsidianops/watchtower/internal/cache"
	"github.com/obsidianops/watchtower/internal/config"
	"github.com/obsidianops/watchtower/internal/netmon"
	"github.com/obsidianops/watchtower/internal/risk"
	"github.com/obsidianops/watchtower/internal/server"
	"github.com/obsidianops/watchtower/internal/storage"
	"github.com/obsidianops/watchtower/internal/storage/sqlite"
	"github.com/obsidianops/watchtower/internal/telemetry"
	"github.com/obsidianops/watchtower/internal/tools"
	"github.com/obsidianops/watchtower/internal/worker"
)

func run(configPath string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}

	slog.Info("starting watchtower", "version", version, "transport", cfg.Transport)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Tracing
	if cfg.Telemetry.Tracing.Enabled {
		shutdown, err := telemetry.SetupTracing(ctx, cfg.Telemetry.Tracing.Endpoint, cfg.Telemetry.Tracing.SampleRate)
		if err != nil {
			return err
		}
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := shutdown(shutdownCtx); err != nil {
				slog.Warn("tracer shutdown", "error", err)
			}
		}()
	}

	// Metrics
	var (
		registry *prometheus.Registry
		metrics  *telemetry.Metrics
	)
	if cfg.Telemetry.Metrics.Enabled {
		registry = prometheus.NewRegistry()
		metrics = telemetry.NewMetrics(registry)
	}

	// Named caches
	apiCache, err := cache.NewAPI(cacheConfig(cfg.Caches.API))
	if err != nil {
		return err
	}
	defer apiCache.Destroy()

	riskCache, err := cache.NewAPI(cacheConfig(cfg.Caches.Risk))
	if err != nil {
		return err
	}
	defer riskCache.Destroy()

	vendorCache, err := cache.NewAPI(cacheConfig(cfg.Caches.Vendor))
	if err != nil {
		return err
	}
	defer vendorCache.Destroy()

	generalCache, err := cache.New[[]byte](cacheConfig(cfg.Caches.General))
	if err != nil {
		return err
	}
	defer generalCache.Destroy()

	if registry != nil {
		registry.MustRegister(telemetry.NewCacheCollector(map[string]telemetry.StatsSource{
			"api":     apiCache,
			"risk":    riskCache,
			"vendor":  vendorCache,
			"general": generalCache,
		}))
	}

	// Shared cached-DNS resolver for the upstream clients.
	resolver := &dnscache.Resolver{}
	go func() {
		ticker := time.NewTicker(5 * time.Minute)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				resolver.Refresh(true)
			}
		}
	}()

	// Upstream clients
	var monitor *netmon.Client
	if cfg.Monitor.URL != "" {
		monitor = netmon.New(netmon.Config{
			URL:      cfg.Monitor.URL,
			Token:    cfg.Monitor.Token,
			Username: cfg.Monitor.Username,
			Password: cfg.Monitor.Password,
			Timeout:  cfg.Monitor.Timeout,
		}, resolver)
		if cfg.Monitor.Token == "" {
			if err := monitor.Login(ctx); err != nil {
				return err
			}
		}
	}

	var riskClient *risk.Client
	if cfg.Risk.URL != "" {
		rc := risk.Config{
			URL:     cfg.Risk.URL,
			Token:   cfg.Risk.Token,
			Timeout: cfg.Risk.Timeout,
		}
		if o := cfg.Risk.OAuth; o != nil {
			rc.OAuth = &risk.OAuthConfig{
				ClientID:     o.ClientID,
				ClientSecret: o.ClientSecret,
				TokenURL:     o.TokenURL,
			}
		}
		riskClient = risk.New(rc, resolver)
	}

	deps := tools.Deps{
		Monitor:     monitor,
		Risk:        riskClient,
		APICache:    apiCache,
		RiskCache:   riskCache,
		VendorCache: vendorCache,
		General:     generalCache,
		Metrics:     metrics,
	}

	// Audit trail
	var readyCheck server.ReadyChecker
	workerDone := make(chan struct{})
	if cfg.Database.DSN != "" {
		var store storage.AuditStore
		store, err = sqlite.New(cfg.Database.DSN)
		if err != nil {
			return err
		}
		defer store.Close()

		recorder := worker.NewAuditRecorder(store)
		deps.Audit = recorder
		deps.AuditLog = store
		readyCheck = store.Ping

		runner := worker.NewRunner(recorder)
		go func() {
			defer close(workerDone)
			if err := runner.Run(ctx); err != nil {
				slog.Error("worker runner", "error", err)
			}
		}()
	} else {
		close(workerDone)
	}

	// MCP server
	s := mcpserver.NewMCPServer("watchtower", version,
		mcpserver.WithToolCapabilities(false),
		mcpserver.WithPromptCapabilities(false),
		mcpserver.WithRecovery(),
	)
	tools.Register(s, deps)

	switch cfg.Transport {
	case config.TransportStdio:
		err = mcpserver.ServeStdio(s)
	case config.TransportHTTP:
		err = serveHTTP(ctx, cfg, s, readyCheck, metrics, registry)
	}

	// Stop the workers and let the audit recorder drain.
	cancel()
	<-workerDone

	slog.Info("watchtower stopped")
	return err
}

// cacheConfig maps a config entry onto the engine's Config. Zero values
// flow through unchanged and select the engine defaults.
func cacheConfig(e config.CacheEntry) cache.Config {
	return cache.Config{
		Capacity:        e.Capacity,
		DefaultTTL:      e.DefaultTTL,
		CleanupInterval: e.CleanupInterval,
	}
}

func serveHTTP(ctx context.Context, cfg *config.Config, s *mcpserver.MCPServer, readyCheck server.ReadyChecker, metrics *telemetry.Metrics, registry *prometheus.Registry) error {
	handler := server.New(server.Deps{
		MCP:        s,
		ReadyCheck: readyCheck,
		Metrics:    metrics,
		Registry:   registry,
	})

	srv := &http.Server{
		Addr:         cfg.Server.Addr,
		Handler:      handler,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	slog.Info("watchtower ready", "addr", cfg.Server.Addr)

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGTERM, syscall.SIGINT)

	select {
	case sig := <-sigCh:
		slog.Info("shutting down", "signal", sig)
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
