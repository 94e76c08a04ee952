package middleware

import (
	"crypto/sha256"
	"encoding/hex"
	"sync"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/limiter"

	"labops/internal/infra/logging"
)

// RateLimitConfig carries the limiter settings from the service config.
type RateLimitConfig struct {
	RateInterval           time.Duration
	UserLimit              int
	EnableUserLimiter      bool
	EnableTokenRateLimiter bool
}

// TokenRater resolves the request budget of a token. Zero means the
// token is unlimited.
type TokenRater interface {
	RateLimit(token string) int
}

// LimiterCache keeps one limiter handler per distinct token limit so the
// middleware state is not rebuilt on every request.
type LimiterCache struct {
	mu       sync.RWMutex
	handlers map[int]fiber.Handler
}

func NewLimiterCache() *LimiterCache {
	return &LimiterCache{handlers: make(map[int]fiber.Handler)}
}

func (lc *LimiterCache) handler(limit int, cfg RateLimitConfig, store fiber.Storage) fiber.Handler {
	lc.mu.RLock()
	h, ok := lc.handlers[limit]
	lc.mu.RUnlock()
	if ok {
		return h
	}

	h = limiter.New(limiter.Config{
		Max:               limit,
		Expiration:        cfg.RateInterval,
		LimiterMiddleware: limiter.SlidingWindow{},
		Storage:           store,
		KeyGenerator: func(c *fiber.Ctx) string {
			if token, ok := c.Locals("api_key").(string); ok {
				return token
			}
			return ""
		},
		LimitReached: func(c *fiber.Ctx) error {
			token, _ := c.Locals("api_key").(string)
			logging.Warn("Rate limit exceeded", "token", token, "path", c.Path())
			return tooManyRequests(c)
		},
	})

	lc.mu.Lock()
	if lc.handlers == nil {
		lc.handlers = make(map[int]fiber.Handler)
	}
	lc.handlers[limit] = h
	lc.mu.Unlock()

	return h
}

// TokenRateLimit applies the per-token sliding window. Requests without a
// token, and tokens without a configured limit, pass through.
func TokenRateLimit(cfg RateLimitConfig, rater TokenRater, store fiber.Storage, cache *LimiterCache) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if !cfg.EnableTokenRateLimiter {
			return c.Next()
		}
		token, ok := c.Locals("api_key").(string)
		if !ok || token == "" {
			return c.Next()
		}
		limit := rater.RateLimit(token)
		if limit == 0 {
			return c.Next()
		}
		return cache.handler(limit, cfg, store)(c)
	}
}

// UserRateLimit limits anonymous traffic keyed by client address and user
// agent. Token-authenticated requests skip it; their budget is the token
// limiter's.
func UserRateLimit(cfg RateLimitConfig, store fiber.Storage) fiber.Handler {
	if cfg.UserLimit <= 0 {
		return func(c *fiber.Ctx) error {
			return c.Next()
		}
	}
	userLimiter := limiter.New(limiter.Config{
		Max:               cfg.UserLimit,
		Expiration:        cfg.RateInterval,
		LimiterMiddleware: limiter.SlidingWindow{},
		Storage:           store,
		KeyGenerator: func(c *fiber.Ctx) string {
			return clientKey(c)
		},
		LimitReached: func(c *fiber.Ctx) error {
			logging.Warn("Rate limit exceeded", "user", clientKey(c), "path", c.Path())
			return tooManyRequests(c)
		},
	})
	return func(c *fiber.Ctx) error {
		if token, ok := c.Locals("api_key").(string); ok && token != "" {
			return c.Next()
		}
		return userLimiter(c)
	}
}

func clientKey(c *fiber.Ctx) string {
	sum := sha256.Sum256([]byte(c.IP() + c.Get("User-Agent")))
	return hex.EncodeToString(sum[:])
}

func tooManyRequests(c *fiber.Ctx) error {
	return c.Status(fiber.StatusTooManyRequests).JSON(fiber.Map{
		"error": fiber.Map{
			"code":    fiber.StatusTooManyRequests,
			"message": "Too many requests",
		},
	})
}
