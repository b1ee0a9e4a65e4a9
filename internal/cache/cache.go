package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"moneyshelf/internal/middleware"

	"github.com/redis/go-redis/v9"
)

const (
	FeedKey         = "feed:anonymous"
	SearchKeyPrefix = "books:search:%s"
)

const (
	FeedTTL   = 30 * time.Second
	SearchTTL = 30 * time.Minute
)

// SearchKey is the cache key for catalog results by normalised title.
func SearchKey(title string) string {
	return fmt.Sprintf(SearchKeyPrefix, strings.ToLower(strings.TrimSpace(title)))
}

// Cache is a JSON cache over Redis. A Cache with a nil client is a no-op
// that always calls through to the loader.
type Cache struct {
	rdb *redis.Client
}

// New wraps rdb. rdb may be nil.
func New(rdb *redis.Client) *Cache {
	return &Cache{rdb: rdb}
}

// Enabled reports whether a Redis client is attached.
func (c *Cache) Enabled() bool {
	return c != nil && c.rdb != nil
}

// GetJSON decodes key into dest. It reports false on a miss or any error.
func (c *Cache) GetJSON(ctx context.Context, key string, dest any) bool {
	if !c.Enabled() {
		return false
	}
	raw, err := c.rdb.Get(ctx, key).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			middleware.Logger.WarnContext(ctx, "cache read failed", slog.String("key", key), slog.String("error", err.Error()))
		}
		return false
	}
	if err := json.Unmarshal(raw, dest); err != nil {
		middleware.Logger.WarnContext(ctx, "cache entry corrupt", slog.String("key", key), slog.String("error", err.Error()))
		return false
	}
	return true
}

// SetJSON stores v under key. Failures are logged, not returned.
func (c *Cache) SetJSON(ctx context.Context, key string, v any, ttl time.Duration) {
	if !c.Enabled() {
		return
	}
	raw, err := json.Marshal(v)
	if err != nil {
		return
	}
	if err := c.rdb.Set(ctx, key, raw, ttl).Err(); err != nil {
		middleware.Logger.WarnContext(ctx, "cache write failed", slog.String("key", key), slog.String("error", err.Error()))
	}
}

// Aside returns the cached value for key, or calls fetch and stores its result.
// Errors from fetch are returned and not cached.
func Aside[T any](ctx context.Context, c *Cache, key string, ttl time.Duration, fetch func() (T, error)) (T, error) {
	var cached T
	if c.GetJSON(ctx, key, &cached) {
		return cached, nil
	}
	v, err := fetch()
	if err != nil {
		return v, err
	}
	c.SetJSON(ctx, key, v, ttl)
	return v, nil
}

// Invalidate deletes key.
func (c *Cache) Invalidate(ctx context.Context, key string) {
	if !c.Enabled() {
		return
	}
	if err := c.rdb.Del(ctx, key).Err(); err != nil {
		middleware.Logger.WarnContext(ctx, "cache invalidate failed", slog.String("key", key), slog.String("error", err.Error()))
	}
}

// InvalidateFeed drops the cached anonymous feed.
func (c *Cache) InvalidateFeed(ctx context.Context) {
	c.Invalidate(ctx, FeedKey)
}
