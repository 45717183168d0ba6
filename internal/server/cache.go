package server

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/decktrace/decktrace/internal/util/logger"
)

// TokenCache fronts the identity-existence check with redis so hot
// validation traffic stays off the store. A nil cache is inert.
type TokenCache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewTokenCache connects to redis at addr. Empty addr disables caching.
func NewTokenCache(addr, password string, db int, ttl time.Duration) *TokenCache {
	if addr == "" {
		return nil
	}
	if ttl <= 0 {
		ttl = time.Hour
	}
	return &TokenCache{
		client: redis.NewClient(&redis.Options{Addr: addr, Password: password, DB: db}),
		ttl:    ttl,
	}
}

// Known reports whether token was cached as issued.
func (c *TokenCache) Known(ctx context.Context, token string) bool {
	if c == nil {
		return false
	}
	n, err := c.client.Exists(ctx, "user_token:"+token).Result()
	if err != nil {
		logger.Warnf("cache: redis lookup failed: %v", err)
		return false
	}
	return n > 0
}

// Remember caches token as issued.
func (c *TokenCache) Remember(ctx context.Context, token string) {
	if c == nil {
		return
	}
	if err := c.client.Set(ctx, "user_token:"+token, 1, c.ttl).Err(); err != nil {
		logger.Warnf("cache: redis set failed: %v", err)
	}
}

// Close releases the redis connection.
func (c *TokenCache) Close() error {
	if c == nil {
		return nil
	}
	return c.client.Close()
}
