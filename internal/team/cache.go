package team

import (
	"context"
	"slices"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
)

const (
	defaultCacheSize = 128
	defaultCacheTTL  = 30 * time.Second

	// rosterKey holds the full roster; team IDs key single lookups.
	rosterKey = "\x00roster"
)

// Compile-time assertion that CachedStore satisfies the Store interface.
var _ Store = (*CachedStore)(nil)

// CachedStore wraps a [Store] with a size-bounded, time-expiring cache so a
// busy voice endpoint does not hit the database for every utterance.
// Errors are never cached.
type CachedStore struct {
	next  Store
	cache *expirable.LRU[string, []Team]
}

// NewCachedStore caches next's results for ttl, keeping at most size entries.
// Non-positive values select 128 entries and 30 seconds.
func NewCachedStore(next Store, size int, ttl time.Duration) *CachedStore {
	if size <= 0 {
		size = defaultCacheSize
	}
	if ttl <= 0 {
		ttl = defaultCacheTTL
	}
	return &CachedStore{
		next:  next,
		cache: expirable.NewLRU[string, []Team](size, nil, ttl),
	}
}

// List implements [Store.List].
func (c *CachedStore) List(ctx context.Context) ([]Team, error) {
	if teams, ok := c.cache.Get(rosterKey); ok {
		return slices.Clone(teams), nil
	}
	teams, err := c.next.List(ctx)
	if err != nil {
		return nil, err
	}
	c.cache.Add(rosterKey, slices.Clone(teams))
	return teams, nil
}

// Get implements [Store.Get].
func (c *CachedStore) Get(ctx context.Context, id string) (Team, error) {
	if teams, ok := c.cache.Get(id); ok && len(teams) == 1 {
		return teams[0], nil
	}
	t, err := c.next.Get(ctx, id)
	if err != nil {
		return Team{}, err
	}
	c.cache.Add(id, []Team{t})
	return t, nil
}

// Purge drops every cached entry.
func (c *CachedStore) Purge() {
	c.cache.Purge()
}
