// Package cache keeps aggregated article lists per location so repeated
// requests within the TTL window don't refetch every upstream feed.
package cache

import (
	"context"
	"time"

	"github.com/go-pkgz/lgr"
	"golang.org/x/sync/singleflight"

	"github.com/ebosman/buurtkrant/pkg/domain"
)

// Entry is one cached article list, keyed by location
type Entry struct {
	Key       string           `json:"key"`
	Articles  []domain.Article `json:"articles"`
	CreatedAt time.Time        `json:"created_at"`
}

// Store persists cache entries. Get returns (nil, nil) on a miss.
type Store interface {
	Get(ctx context.Context, key string) (*Entry, error)
	Set(ctx context.Context, entry Entry) error
}

// RefreshFunc produces a fresh article list when the cache can't serve one
type RefreshFunc func(ctx context.Context) ([]domain.Article, error)

// Cache serves article lists from a store, refreshing expired or missing
// entries. Concurrent refreshes of the same key are collapsed into one
// upstream run. Store failures degrade to a refetch, never to an error.
type Cache struct {
	store Store
	ttl   time.Duration
	now   func() time.Time
	group singleflight.Group
}

// New creates a cache on top of the given store. ttl <= 0 defaults to 5m.
func New(store Store, ttl time.Duration) *Cache {
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	return &Cache{store: store, ttl: ttl, now: time.Now}
}

// GetOrRefresh returns the articles for key, serving from the store when the
// entry is younger than the TTL and calling refresh otherwise. The second
// return value reports whether the result came from the cache.
func (c *Cache) GetOrRefresh(ctx context.Context, key string, refresh RefreshFunc) ([]domain.Article, bool, error) {
	if entry, err := c.store.Get(ctx, key); err != nil {
		lgr.Printf("[WARN] cache read for %q failed, refetching: %v", key, err)
	} else if entry != nil && c.now().Sub(entry.CreatedAt) < c.ttl {
		lgr.Printf("[DEBUG] cache hit for %q, %d articles", key, len(entry.Articles))
		return entry.Articles, true, nil
	}

	v, err, shared := c.group.Do(key, func() (any, error) {
		articles, err := refresh(ctx)
		if err != nil {
			return nil, err
		}
		entry := Entry{Key: key, Articles: articles, CreatedAt: c.now()}
		if err := c.store.Set(ctx, entry); err != nil {
			lgr.Printf("[WARN] cache write for %q failed: %v", key, err)
		}
		return articles, nil
	})
	if err != nil {
		return nil, false, err
	}
	if shared {
		lgr.Printf("[DEBUG] refresh for %q shared between concurrent callers", key)
	}
	return v.([]domain.Article), false, nil
}
