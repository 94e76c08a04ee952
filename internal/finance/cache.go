package finance

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"labops/internal/config"
	"labops/internal/infra/logging"
)

// ttl classes per dataset volatility: balances and open items move all
// day (fast), the VAT position per posting run (slow), yearly aggregates
// barely at all (static).
type ttlClass int

const (
	ttlFast ttlClass = iota
	ttlSlow
	ttlStatic
)

// Cache is a read-through redis cache for dashboard datasets. A nil
// Cache disables caching; loaders then always go to Odoo.
type Cache struct {
	rdb    *redis.Client
	fast   time.Duration
	slow   time.Duration
	static time.Duration
}

func NewCache(rdb *redis.Client, cfg config.Cache) *Cache {
	return &Cache{
		rdb:    rdb,
		fast:   cfg.FastTTL,
		slow:   cfg.SlowTTL,
		static: cfg.StaticTTL,
	}
}

func (c *Cache) ttl(class ttlClass) time.Duration {
	switch class {
	case ttlSlow:
		return c.slow
	case ttlStatic:
		return c.static
	default:
		return c.fast
	}
}

// cacheKey derives a stable redis key from a dataset name and its
// parameters.
func cacheKey(dataset string, params ...any) string {
	h := sha256.New()
	h.Write([]byte(dataset))
	for _, p := range params {
		fmt.Fprintf(h, "|%v", p)
	}
	return "dashcache:" + hex.EncodeToString(h.Sum(nil))
}

// cached runs load through the cache. Any redis trouble degrades to a
// direct load so a dead cache never takes the dashboard down.
func cached[T any](ctx context.Context, c *Cache, class ttlClass, key string, load func(context.Context) (T, error)) (T, error) {
	if c == nil || c.rdb == nil {
		return load(ctx)
	}

	if data, ok := c.get(ctx, key); ok {
		var out T
		if err := json.Unmarshal(data, &out); err == nil {
			return out, nil
		}
		// Undecodable entries fall through and get rewritten.
	}

	out, err := load(ctx)
	if err != nil {
		var zero T
		return zero, err
	}

	if payload, err := json.Marshal(out); err == nil {
		c.set(ctx, key, payload, c.ttl(class))
	}
	return out, nil
}

func (c *Cache) get(ctx context.Context, key string) ([]byte, bool) {
	getCtx, cancel := context.WithTimeout(ctx, time.Second)
	defer cancel()

	data, err := c.rdb.Get(getCtx, key).Bytes()
	if err == redis.Nil {
		return nil, false
	}
	if err != nil {
		logging.Warn("Redis read failed", "error", err)
		return nil, false
	}
	return data, true
}

func (c *Cache) set(ctx context.Context, key string, data []byte, ttl time.Duration) {
	setCtx, cancel := context.WithTimeout(ctx, time.Second)
	defer cancel()

	if ttl <= 0 {
		ttl = time.Minute
	}
	if err := c.rdb.Set(setCtx, key, data, ttl).Err(); err != nil {
		logging.Warn("Redis write failed", "error", err)
	}
}
