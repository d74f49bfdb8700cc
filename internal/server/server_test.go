package server

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/obsidianops/watchtower/internal/telemetry"
)

func TestHealthz(t *testing.T) {
	t.Parallel()

	h := New(Deps{})
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))

	if rec.Code != http.StatusOK {
		t.Errorf("status = %d, want 200", rec.Code)
	}
	if body := rec.Body.String(); body != "ok" {
		t.Errorf("body = %q, want ok", body)
	}
}

func TestReadyz(t *testing.T) {
	t.Parallel()

	h := New(Deps{})
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/readyz", nil))

	if rec.Code != http.StatusOK {
		t.Errorf("status = %d, want 200 with nil ReadyCheck", rec.Code)
	}
}

func TestReadyz_NotReady(t *testing.T) {
	t.Parallel()

	h := New(Deps{
		ReadyCheck: func(context.Context) error { return errors.New("db down") },
	})
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/readyz", nil))

	if rec.Code != http.StatusServiceUnavailable {
		t.Errorf("status = %d, want 503", rec.Code)
	}
	if body := rec.Body.String(); body != "not ready" {
		t.Errorf("body = %q, want not ready", body)
	}
}

func TestRequestID_Generated(t *testing.T) {
	t.Parallel()

	h := New(Deps{})
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))

	if id := rec.Header().Get("X-Request-Id"); id == "" {
		t.Error("response should carry a generated request ID")
	}
}

func TestRequestID_Preserved(t *testing.T) {
	t.Parallel()

	h := New(Deps{})
	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	req.Header.Set("X-Request-Id", "client-supplied")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	if id := rec.Header().Get("X-Request-Id"); id != "client-supplied" {
		t.Errorf("request ID = %q, want client-supplied", id)
	}
}

func TestMetricsEndpoint(t *testing.T) {
	t.Parallel()

	reg := prometheus.NewRegistry()
	m := telemetry.NewMetrics(reg)
	h := New(Deps{Metrics: m, Registry: reg})

	// Generate one request so the counters have something to show.
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	body, _ := io.ReadAll(rec.Body)
	if !strings.Contains(string(body), "watchtower_requests_total") {
		t.Error("metrics output should include watchtower_requests_total")
	}
}

func TestMetricsEndpoint_Disabled(t *testing.T) {
	t.Parallel()

	h := New(Deps{})
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	if rec.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404 without a registry", rec.Code)
	}
}
