// Package tokens keeps the API token table in memory so request auth
// never touches postgres on the hot path.
package tokens

import "sync"

// Scope is the set of named permissions a token carries, e.g. "close"
// for the month-end report endpoint.
type Scope map[string]bool

// Entry is one API token's settings.
type Entry struct {
	RateLimit int
	Scope     Scope
}

// Allows reports whether the entry carries the named scope.
func (e Entry) Allows(scope string) bool { return e.Scope[scope] }

// Cache is the in-memory token table. A zero cache is not ready until
// the first Replace.
type Cache struct {
	mu      sync.RWMutex
	entries map[string]Entry
}

func NewCache() *Cache { return &Cache{} }

// Ready reports whether a snapshot has been installed at least once.
func (c *Cache) Ready() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.entries != nil
}

// Replace installs a full snapshot, copying the input map.
func (c *Cache) Replace(entries map[string]Entry) {
	snapshot := make(map[string]Entry, len(entries))
	for k, v := range entries {
		snapshot[k] = v
	}
	c.mu.Lock()
	c.entries = snapshot
	c.mu.Unlock()
}

// Lookup returns the entry for a token.
func (c *Cache) Lookup(token string) (Entry, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	e, ok := c.entries[token]
	return e, ok
}

// RateLimit returns the per-interval request budget for a token. Unknown
// tokens get 0, which disables per-token limiting.
func (c *Cache) RateLimit(token string) int {
	e, ok := c.Lookup(token)
	if !ok {
		return 0
	}
	return e.RateLimit
}
