package tokens

import (
	"context"
	"time"

	"labops/internal/infra/logging"
)

// Repository loads the full token table.
type Repository interface {
	LoadTokens(ctx context.Context) (map[string]Entry, error)
}

// Reloader refreshes a Cache from a Repository on an interval.
type Reloader struct {
	repo     Repository
	cache    *Cache
	interval time.Duration
}

func NewReloader(repo Repository, cache *Cache, interval time.Duration) *Reloader {
	return &Reloader{repo: repo, cache: cache, interval: interval}
}

// LoadOnce refreshes the cache from the repository. On failure the
// previous snapshot stays in place, a DB outage must not lock users out.
func (r *Reloader) LoadOnce(ctx context.Context) error {
	entries, err := r.repo.LoadTokens(ctx)
	if err != nil {
		return err
	}
	r.cache.Replace(entries)
	return nil
}

// Start reloads in the background until ctx is canceled.
func (r *Reloader) Start(ctx context.Context) {
	go func() {
		ticker := time.NewTicker(r.interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				if err := r.LoadOnce(ctx); err != nil {
					logging.Warn("Token reload failed", "error", err)
				}
			}
		}
	}()
}
