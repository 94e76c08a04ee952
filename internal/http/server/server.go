// Package server assembles the labdash fiber app: error envelope,
// middleware chain and routes.
package server

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/monitor"
	"github.com/redis/go-redis/v9"

	"labops/internal/config"
	"labops/internal/domain"
	"labops/internal/http/handlers"
	"labops/internal/http/middleware"
	"labops/internal/infra/logging"
	"labops/internal/infra/ratelimit"
	"labops/internal/tokens"
)

// Deps bundles what the app serves with. Nil members degrade: without a
// finance backend the data endpoints answer 503, without a token cache
// keyed requests answer 503 until the store loads, without a limiter
// store counting stays in process memory.
type Deps struct {
	Config  config.Config
	Finance handlers.FinanceService
	Tokens  *tokens.Cache
	Redis   *redis.Client
	Limiter fiber.Storage
}

// New creates and configures the fiber app.
func New(deps Deps) *fiber.App {
	cfg := deps.Config

	app := fiber.New(fiber.Config{
		Prefork:               cfg.Server.Prefork,
		DisableStartupMessage: true,
		ErrorHandler:          errorHandler,
	})

	middleware.Register(app, cfg)
	app.Use(middleware.Auth(deps.Tokens))

	store := deps.Limiter
	if store == nil {
		store = ratelimit.NewStore(ratelimit.RedisConfig{})
	}
	rl := middleware.RateLimitConfig{
		RateInterval:           cfg.RateLimiter.Interval,
		UserLimit:              cfg.RateLimiter.UserLimit,
		EnableUserLimiter:      cfg.RateLimiter.EnableUserLimiter,
		EnableTokenRateLimiter: cfg.RateLimiter.EnableTokenRateLimiter,
	}
	if deps.Tokens != nil {
		app.Use(middleware.TokenRateLimit(rl, deps.Tokens, store, middleware.NewLimiterCache()))
	}
	if rl.EnableUserLimiter || rl.UserLimit > 0 {
		app.Use(middleware.UserRateLimit(rl, store))
	}

	registerRoutes(app, deps)

	// Ensure all responses, including 404s, return JSON.
	app.Use(func(c *fiber.Ctx) error {
		return fiber.NewError(fiber.StatusNotFound, "Not Found")
	})

	return app
}

func errorHandler(c *fiber.Ctx, err error) error {
	code := fiber.StatusInternalServerError
	msg := "Internal Server Error"

	var fe *fiber.Error
	if errors.As(err, &fe) {
		code = fe.Code
		msg = fe.Message
	} else if err != nil {
		code = domain.HTTPStatus(err)
		msg = err.Error()
	}

	logging.Warn("Request failed", "path", c.Path(), "status", code, "message", msg)

	return c.Status(code).JSON(fiber.Map{
		"error": fiber.Map{
			"code":    code,
			"message": msg,
		},
	})
}

// registerRoutes mounts all route handlers on the app.
func registerRoutes(app *fiber.App, deps Deps) {
	v1 := app.Group("/v1")

	v1.Get("/auth/check", handlers.ExtAuthzOK)
	v1.Get("/dashboard", handlers.Dashboard(deps.Config.Dashboard))

	fin := handlers.NewFinanceHandlers(deps.Finance)
	v1.Get("/finance/companies", fin.Companies)
	v1.Get("/finance/banks", fin.Banks)
	v1.Get("/finance/rc", fin.Intercompany)
	v1.Get("/finance/revenue/monthly", fin.MonthlyRevenue)
	v1.Get("/finance/revenue/weekly", fin.WeeklyRevenue)
	v1.Get("/finance/revenue/daily", fin.DailyRevenue)
	v1.Get("/finance/costs/monthly", fin.MonthlyCosts)
	v1.Get("/finance/costs/accounts", fin.CostAccounts)
	v1.Get("/finance/receivables", fin.Receivables)
	v1.Get("/finance/payables", fin.Payables)
	v1.Get("/finance/vat", fin.VAT)
	v1.Get("/finance/invoices", fin.Invoices)

	// One close service, so the report endpoint and the stats endpoint
	// share the same chrome pool.
	closeSvc := handlers.NewCloseService(deps.Config, deps.Finance, deps.Redis)
	v1.Post("/close/report", middleware.RequireScope(deps.Tokens, "close"), closeSvc.HandleReport)
	v1.Get("/chrome/stats", closeSvc.HandleChromeStats)

	v1.Get("/monitor", monitor.New())
}
