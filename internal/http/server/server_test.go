package server

import (
	"net/http"
	"strings"
	"testing"

	"labops/internal/config"
	"labops/internal/tokens"
)

func minimalConfig() config.Config {
	cfg := config.Default()
	cfg.Cache.Enabled = false
	cfg.PDF.TimeoutSecs = 1
	return cfg
}

func TestNew_RoutesAndJSON404(t *testing.T) {
	app := New(Deps{Config: minimalConfig(), Redis: nil})

	reqStats, _ := http.NewRequest(http.MethodGet, "/v1/chrome/stats", nil)
	respStats, err := app.Test(reqStats)
	if err != nil {
		t.Fatalf("stats request failed: %v", err)
	}
	if respStats.StatusCode != http.StatusOK {
		t.Fatalf("expected /v1/chrome/stats 200, got %d", respStats.StatusCode)
	}

	req404, _ := http.NewRequest(http.MethodGet, "/does-not-exist", nil)
	resp404, err := app.Test(req404)
	if err != nil {
		t.Fatalf("404 request failed: %v", err)
	}
	if resp404.StatusCode != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", resp404.StatusCode)
	}
	if got := resp404.Header.Get("Content-Type"); got == "" {
		t.Fatalf("expected JSON error response content type")
	}
}

func TestNew_DashboardServed(t *testing.T) {
	app := New(Deps{Config: minimalConfig()})

	req, _ := http.NewRequest(http.MethodGet, "/v1/dashboard", nil)
	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("dashboard request failed: %v", err)
	}
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected dashboard 200, got %d", resp.StatusCode)
	}
	if ct := resp.Header.Get("Content-Type"); !strings.Contains(ct, "text/html") {
		t.Fatalf("expected html content type, got %q", ct)
	}
}

func TestNew_FinanceWithoutBackendIs503(t *testing.T) {
	app := New(Deps{Config: minimalConfig()})

	req, _ := http.NewRequest(http.MethodGet, "/v1/finance/banks", nil)
	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("banks request failed: %v", err)
	}
	if resp.StatusCode != http.StatusServiceUnavailable {
		t.Fatalf("expected 503 without finance backend, got %d", resp.StatusCode)
	}
}

func TestNew_CloseReportScopeGate(t *testing.T) {
	tc := tokens.NewCache()
	tc.Replace(map[string]tokens.Entry{
		"finance-key": {RateLimit: 10, Scope: tokens.Scope{"close": true}},
		"viewer-key":  {RateLimit: 5},
	})
	app := New(Deps{Config: minimalConfig(), Tokens: tc})

	anon, _ := http.NewRequest(http.MethodPost, "/v1/close/report", nil)
	resp, err := app.Test(anon)
	if err != nil {
		t.Fatalf("anonymous request failed: %v", err)
	}
	if resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("expected anonymous close to be 401, got %d", resp.StatusCode)
	}

	viewer, _ := http.NewRequest(http.MethodPost, "/v1/close/report", nil)
	viewer.Header.Set("X-API-Key", "viewer-key")
	resp, err = app.Test(viewer)
	if err != nil {
		t.Fatalf("viewer request failed: %v", err)
	}
	if resp.StatusCode != http.StatusForbidden {
		t.Fatalf("expected close without scope to be 403, got %d", resp.StatusCode)
	}

	// The scoped token clears the gate and fails later, on the missing
	// Odoo backend.
	closer, _ := http.NewRequest(http.MethodPost, "/v1/close/report", nil)
	closer.Header.Set("X-API-Key", "finance-key")
	resp, err = app.Test(closer)
	if err != nil {
		t.Fatalf("scoped request failed: %v", err)
	}
	if resp.StatusCode != http.StatusServiceUnavailable {
		t.Fatalf("expected scoped close without backend to be 503, got %d", resp.StatusCode)
	}
}

func TestNew_HealthAndAuthCheck(t *testing.T) {
	app := New(Deps{Config: minimalConfig()})

	health, _ := http.NewRequest(http.MethodGet, "/ops/health", nil)
	resp, err := app.Test(health)
	if err != nil {
		t.Fatalf("health request failed: %v", err)
	}
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected /ops/health 200, got %d", resp.StatusCode)
	}

	check, _ := http.NewRequest(http.MethodGet, "/v1/auth/check", nil)
	resp, err = app.Test(check)
	if err != nil {
		t.Fatalf("auth check failed: %v", err)
	}
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected /v1/auth/check 200, got %d", resp.StatusCode)
	}
	if mode := resp.Header.Get("X-Auth-Mode"); mode != "public" {
		t.Fatalf("expected public auth mode, got %q", mode)
	}
}
