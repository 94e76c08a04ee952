package handlers

import (
	"io"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gofiber/fiber/v2"

	"labops/internal/config"
)

func dashboardApp() *fiber.App {
	app := fiber.New()
	app.Get("/dashboard", Dashboard(config.Dashboard{
		Title:  "LAB Groep Dashboard",
		Icon:   "📊",
		Layout: "wide",
	}))
	return app
}

func TestDashboard_RendersShell(t *testing.T) {
	app := dashboardApp()

	resp, err := app.Test(httptest.NewRequest("GET", "/dashboard", nil))
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	if resp.StatusCode != fiber.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	if ct := resp.Header.Get("Content-Type"); !strings.HasPrefix(ct, "text/html") {
		t.Fatalf("expected text/html, got %q", ct)
	}

	body, _ := io.ReadAll(resp.Body)
	html := string(body)
	if !strings.Contains(html, "<title>LAB Groep Dashboard</title>") {
		t.Fatalf("expected page title in shell")
	}
	if !strings.Contains(html, "layout-wide") {
		t.Fatalf("expected wide layout class")
	}
	if !strings.Contains(html, "/v1/finance/banks") {
		t.Fatalf("expected dataset links in shell")
	}
	if strings.Contains(html, "sidebar-collapsed") {
		t.Fatalf("sidebar should start expanded")
	}
}

func TestDashboard_LayoutOverride(t *testing.T) {
	app := dashboardApp()

	resp, err := app.Test(httptest.NewRequest("GET", "/dashboard?layout=centered", nil))
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	if resp.StatusCode != fiber.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	body, _ := io.ReadAll(resp.Body)
	if !strings.Contains(string(body), "layout-centered") {
		t.Fatalf("expected centered layout class after override")
	}
}

func TestDashboard_InvalidLayoutRejected(t *testing.T) {
	app := dashboardApp()

	resp, err := app.Test(httptest.NewRequest("GET", "/dashboard?layout=diagonal", nil))
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	if resp.StatusCode != fiber.StatusBadRequest {
		t.Fatalf("expected 400 for invalid layout, got %d", resp.StatusCode)
	}
}

func TestDashboard_CollapsedSidebar(t *testing.T) {
	app := fiber.New()
	app.Get("/dashboard", Dashboard(config.Dashboard{
		Title:            "LAB Groep Dashboard",
		Icon:             "📊",
		Layout:           "centered",
		SidebarCollapsed: true,
	}))

	resp, err := app.Test(httptest.NewRequest("GET", "/dashboard", nil))
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	body, _ := io.ReadAll(resp.Body)
	if !strings.Contains(string(body), "sidebar-collapsed") {
		t.Fatalf("expected collapsed sidebar class")
	}
}

func TestDashboard_BadConfigIs500(t *testing.T) {
	app := fiber.New()
	app.Get("/dashboard", Dashboard(config.Dashboard{Title: "x", Layout: "diagonal"}))

	resp, err := app.Test(httptest.NewRequest("GET", "/dashboard", nil))
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	if resp.StatusCode != fiber.StatusInternalServerError {
		t.Fatalf("expected 500 for bad service config, got %d", resp.StatusCode)
	}
}
