package main

import (
	"context"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/redis/go-redis/v9"

	"labops/internal/config"
	"labops/internal/finance"
	"labops/internal/http/server"
	"labops/internal/infra/logging"
	"labops/internal/infra/postgres"
	"labops/internal/infra/ratelimit"
	"labops/internal/odoo"
	"labops/internal/tokens"
)

func main() {
	cfg := config.MustLoad()
	// Allow common container env var to override chrome_path.
	if cfg.PDF.ChromePath == "" {
		if v := os.Getenv("CHROME_BIN"); v != "" {
			cfg.PDF.ChromePath = v
		}
	}

	if err := ensureLogDir(cfg.Logger.File); err != nil {
		panic(err)
	}
	logging.InitLogger(
		cfg.Logger.File,
		cfg.Logger.MaxSizeMB,
		cfg.Logger.MaxBackups,
		cfg.Logger.MaxAgeDays,
		cfg.Logger.Compress,
		cfg.Logger.Level,
	)
	logging.SetLogLevel(cfg.Logger.Level)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	rdb := redis.NewClient(&redis.Options{
		Addr: cfg.Cache.RedisHost,
		DB:   cfg.Cache.CacheDB,
	})
	pingCtx, pingCancel := context.WithTimeout(ctx, 2*time.Second)
	if err := rdb.Ping(pingCtx).Err(); err != nil {
		logging.Warn("Redis unreachable, caching degraded", "addr", cfg.Cache.RedisHost, "error", err)
	} else {
		logging.Info("Redis connected", "addr", cfg.Cache.RedisHost)
	}
	pingCancel()

	tokenCache := tokens.NewCache()
	if dsn, err := postgres.BuildDSN(cfg.Auth); err != nil {
		logging.Error("Token store disabled: invalid postgres config", "error", err)
	} else {
		repo := postgres.NewTokenRepository(postgres.NewDB(), dsn)
		reloader := tokens.NewReloader(repo, tokenCache, cfg.Auth.TokenReloadInterval)
		if err := reloader.LoadOnce(ctx); err != nil {
			logging.Error("Failed to load API tokens", "error", err)
		}
		go reloader.Start(ctx)
	}

	deps := server.Deps{
		Config: cfg,
		Tokens: tokenCache,
		Redis:  rdb,
		Limiter: ratelimit.NewStore(ratelimit.RedisConfig{
			Addr: cfg.Cache.RedisHost,
			DB:   cfg.Cache.RateLimitDB,
		}),
	}
	if cfg.Odoo.URL != "" {
		var finCache *finance.Cache
		if cfg.Cache.Enabled {
			finCache = finance.NewCache(rdb, cfg.Cache)
		}
		deps.Finance = finance.New(odoo.NewClient(odoo.OptionsFromConfig(cfg.Odoo)), finCache, cfg.Odoo)
	} else {
		logging.Warn("Odoo backend not configured, finance endpoints disabled")
	}

	app := server.New(deps)

	idleConnsClosed := make(chan struct{})
	startServer(app, cfg, idleConnsClosed)
	<-idleConnsClosed
}

// ensureLogDir creates the directory for the log file if it has one.
func ensureLogDir(path string) error {
	if path == "" {
		return nil
	}
	dir := filepath.Dir(path)
	if dir == "" || dir == "." {
		return nil
	}
	return os.MkdirAll(dir, 0o755)
}

// startServer starts the Fiber app and listens for shutdown signals
func startServer(app *fiber.App, cfg config.Config, idleConnsClosed chan struct{}) {
	go func() {
		if err := app.Listen(cfg.Server.Host + cfg.Server.Port); err != nil {
			logging.Error("Server error", "error", err)
		}
	}()

	// Listen for OS termination signals
	sigint := make(chan os.Signal, 1)
	signal.Notify(sigint, syscall.SIGINT, syscall.SIGTERM)
	<-sigint

	logging.Warn("Shutdown signal received, closing server...")

	// Graceful shutdown with timeout
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := app.ShutdownWithContext(ctx); err != nil {
		logging.Error("Server forced to shutdown", "error", err)
	}

	close(idleConnsClosed)
	logging.Info("Server stopped cleanly")
}
