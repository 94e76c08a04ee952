package middleware

import (
	"net/http"
	"testing"

	"github.com/gofiber/fiber/v2"

	"labops/internal/tokens"
)

func loadedCache(t *testing.T) *tokens.Cache {
	t.Helper()
	tc := tokens.NewCache()
	tc.Replace(map[string]tokens.Entry{
		"finance-key": {RateLimit: 10, Scope: tokens.Scope{"close": true}},
		"viewer-key":  {RateLimit: 5},
	})
	return tc
}

func authApp(tc *tokens.Cache) *fiber.App {
	app := fiber.New()
	app.Use(Auth(tc))
	app.Get("/", func(c *fiber.Ctx) error {
		if token, ok := c.Locals("api_key").(string); ok && token != "" {
			c.Set("X-Auth-Token", token)
		}
		return c.SendStatus(fiber.StatusOK)
	})
	return app
}

func TestAuth_NoKeyPassesAsPublic(t *testing.T) {
	app := authApp(nil)

	req, _ := http.NewRequest(http.MethodGet, "/", nil)
	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	if resp.StatusCode != fiber.StatusOK {
		t.Fatalf("expected public request to pass, got %d", resp.StatusCode)
	}
	if resp.Header.Get("X-Auth-Token") != "" {
		t.Fatalf("expected no token in context for public request")
	}
}

func TestAuth_StoreNotReadyIs503(t *testing.T) {
	// Fresh cache: no Replace yet, so the store is not ready.
	app := authApp(tokens.NewCache())

	req, _ := http.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("X-API-Key", "finance-key")
	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	if resp.StatusCode != fiber.StatusServiceUnavailable {
		t.Fatalf("expected 503 while token store not ready, got %d", resp.StatusCode)
	}
}

func TestAuth_NilCacheBehavesAsNotReady(t *testing.T) {
	app := authApp(nil)

	req, _ := http.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("X-API-Key", "finance-key")
	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	if resp.StatusCode != fiber.StatusServiceUnavailable {
		t.Fatalf("expected 503 with nil cache, got %d", resp.StatusCode)
	}
}

func TestAuth_InvalidAndValidKey(t *testing.T) {
	app := authApp(loadedCache(t))

	bad, _ := http.NewRequest(http.MethodGet, "/", nil)
	bad.Header.Set("X-API-Key", "wrong")
	respBad, err := app.Test(bad)
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	if respBad.StatusCode != fiber.StatusUnauthorized {
		t.Fatalf("expected 401 for unknown key, got %d", respBad.StatusCode)
	}

	good, _ := http.NewRequest(http.MethodGet, "/", nil)
	good.Header.Set("X-API-Key", "finance-key")
	respGood, err := app.Test(good)
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	if respGood.StatusCode != fiber.StatusOK {
		t.Fatalf("expected 200 for valid key, got %d", respGood.StatusCode)
	}
	if got := respGood.Header.Get("X-Auth-Token"); got != "finance-key" {
		t.Fatalf("expected api_key in context, got %q", got)
	}
}

func TestRequireScope(t *testing.T) {
	tc := loadedCache(t)

	app := fiber.New()
	app.Get("/close",
		func(c *fiber.Ctx) error {
			if key := c.Get("X-API-Key"); key != "" {
				c.Locals("api_key", key)
			}
			return c.Next()
		},
		RequireScope(tc, "close"),
		func(c *fiber.Ctx) error { return c.SendStatus(fiber.StatusOK) })

	anon, _ := http.NewRequest(http.MethodGet, "/close", nil)
	respAnon, err := app.Test(anon)
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	if respAnon.StatusCode != fiber.StatusUnauthorized {
		t.Fatalf("expected 401 without a token, got %d", respAnon.StatusCode)
	}

	viewer, _ := http.NewRequest(http.MethodGet, "/close", nil)
	viewer.Header.Set("X-API-Key", "viewer-key")
	respViewer, err := app.Test(viewer)
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	if respViewer.StatusCode != fiber.StatusForbidden {
		t.Fatalf("expected 403 without the close scope, got %d", respViewer.StatusCode)
	}

	closer, _ := http.NewRequest(http.MethodGet, "/close", nil)
	closer.Header.Set("X-API-Key", "finance-key")
	respCloser, err := app.Test(closer)
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	if respCloser.StatusCode != fiber.StatusOK {
		t.Fatalf("expected 200 with the close scope, got %d", respCloser.StatusCode)
	}
}
