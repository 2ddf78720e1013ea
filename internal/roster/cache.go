package roster

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/sync/singleflight"
)

const (
	// DefaultTTL is how long a fetched roster is considered fresh.
	DefaultTTL = 7 * 24 * time.Hour

	refreshTimeout = 2 * time.Minute
)

// Fetcher retrieves the current list of surnames from an external roster.
type Fetcher interface {
	FetchSurnames(ctx context.Context) ([]string, error)
}

// Info describes the state of a Cache.
type Info struct {
	Count       int       `json:"count"`
	RefreshedAt time.Time `json:"refreshed_at,omitzero"`
	Stale       bool      `json:"stale"`
}

// Cache holds the last-known-good keyword Set and refreshes it lazily once
// the TTL has elapsed. Readers never wait on a refresh while a usable set is
// cached.
type Cache struct {
	fetcher Fetcher
	ttl     time.Duration
	now     func() time.Time

	mu          sync.RWMutex
	set         *Set
	refreshedAt time.Time

	refreshing atomic.Bool
	group      singleflight.Group
}

// NewCache creates a Cache backed by fetcher. A non-positive ttl uses
// DefaultTTL.
func NewCache(fetcher Fetcher, ttl time.Duration) *Cache {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Cache{
		fetcher: fetcher,
		ttl:     ttl,
		now:     time.Now,
	}
}

// Keywords returns the current keyword set. A stale set is returned as-is
// while a single background refresh runs. On a cold start the roster is
// loaded synchronously; if that fails an empty set is returned.
func (c *Cache) Keywords(ctx context.Context) *Set {
	c.mu.RLock()
	set, refreshedAt := c.set, c.refreshedAt
	c.mu.RUnlock()

	if set != nil {
		if c.now().Sub(refreshedAt) >= c.ttl {
			c.refreshAsync()
		}
		return set
	}

	set, err := c.load(ctx)
	if err != nil {
		slog.Warn("roster cold load failed, using empty keyword set", "error", err)
		return NewSet(nil)
	}
	return set
}

// Refresh reloads the roster immediately. On failure the previous set is
// kept and the error is returned.
func (c *Cache) Refresh(ctx context.Context) (*Set, error) {
	return c.load(ctx)
}

// Info reports the size and age of the cached set.
func (c *Cache) Info() Info {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return Info{
		Count:       c.set.Len(),
		RefreshedAt: c.refreshedAt,
		Stale:       c.set == nil || c.now().Sub(c.refreshedAt) >= c.ttl,
	}
}

func (c *Cache) refreshAsync() {
	if !c.refreshing.CompareAndSwap(false, true) {
		return
	}
	go func() {
		defer c.refreshing.Store(false)

		ctx, cancel := context.WithTimeout(context.Background(), refreshTimeout)
		defer cancel()

		if _, err := c.load(ctx); err != nil {
			slog.Warn("roster refresh failed, keeping last-known-good set", "error", err)
		}
	}()
}

// load fetches the roster and swaps it in. Concurrent callers share one fetch.
func (c *Cache) load(ctx context.Context) (*Set, error) {
	v, err, _ := c.group.Do("roster", func() (any, error) {
		words, err := c.fetcher.FetchSurnames(ctx)
		if err != nil {
			return nil, err
		}
		if len(words) == 0 {
			c.mu.RLock()
			prev := c.set
			c.mu.RUnlock()
			if prev != nil {
				slog.Warn("roster fetch returned no names, keeping previous set", "count", prev.Len())
				return prev, nil
			}
		}

		set := NewSet(words)
		c.mu.Lock()
		c.set = set
		c.refreshedAt = c.now()
		c.mu.Unlock()

		slog.Info("roster refreshed", "count", set.Len())
		return set, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*Set), nil
}
