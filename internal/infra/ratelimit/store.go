// Package ratelimit picks the fiber storage backend the rate limiters
// count against. With redis configured every labdash instance shares one
// window; without it (or when redis is down) counting stays in-process.
package ratelimit

import (
	"net"
	"strconv"

	"github.com/gofiber/fiber/v2"
	memoryStorage "github.com/gofiber/storage/memory/v2"
	redisStorage "github.com/gofiber/storage/redis/v2"

	"labops/internal/infra/logging"
)

// RedisConfig selects the redis instance backing the shared limiter
// storage. An empty Addr means in-memory counting.
type RedisConfig struct {
	Addr string
	DB   int
}

// NewStore returns the storage for the limiter middleware. It never
// returns nil: when the redis client cannot be set up the limiter falls
// back to per-process memory so requests keep flowing.
func NewStore(cfg RedisConfig) fiber.Storage {
	if cfg.Addr == "" {
		return memoryStorage.New()
	}
	return newRedisStore(cfg)
}

func newRedisStore(cfg RedisConfig) (store fiber.Storage) {
	// The redis storage adapter panics when the server is unreachable.
	defer func() {
		if r := recover(); r != nil {
			logging.Warn("Redis limiter store init failed, falling back to memory", "addr", cfg.Addr, "panic", r)
			store = memoryStorage.New()
		}
	}()

	host, port := splitAddr(cfg.Addr)
	store = redisStorage.New(redisStorage.Config{
		Host:     host,
		Port:     port,
		Database: cfg.DB,
	})
	logging.Info("Using Redis for rate limiting", "addr", cfg.Addr, "db", cfg.DB)
	return store
}

func splitAddr(addr string) (string, int) {
	host, portStr, err := net.SplitHostPort(addr)
	if err != nil {
		return addr, 6379
	}
	port, err := strconv.Atoi(portStr)
	if err != nil {
		return host, 6379
	}
	return host, port
}
