package services

import (
	"context"
	"errors"
	"time"

	"donation-portal/pkg/logging"

	"github.com/redis/go-redis/v9"
)

const tokenCacheKey = "pesapal:access_token"

// TokenCache keeps a hot copy of the gateway token in Redis.
// A nil *TokenCache is a valid, always-empty cache.
type TokenCache struct {
	client *redis.Client
}

// NewTokenCache returns nil when client is nil
func NewTokenCache(client *redis.Client) *TokenCache {
	if client == nil {
		return nil
	}
	return &TokenCache{client: client}
}

// Get returns the cached token if Redis still holds one
func (c *TokenCache) Get(ctx context.Context) (string, bool) {
	if c == nil {
		return "", false
	}
	token, err := c.client.Get(ctx, tokenCacheKey).Result()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			logging.Warnf("Redis token lookup failed: %v", err)
		}
		return "", false
	}
	return token, token != ""
}

// Set stores token until ttl elapses
func (c *TokenCache) Set(ctx context.Context, token string, ttl time.Duration) {
	if c == nil || ttl <= 0 {
		return
	}
	if err := c.client.Set(ctx, tokenCacheKey, token, ttl).Err(); err != nil {
		logging.Warnf("Redis token store failed: %v", err)
	}
}
