// Package cache stores computed analytics responses in Redis.
package cache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/smukkama/city-analytics/internal/analytics"
	"github.com/smukkama/city-analytics/internal/filters"
)

const keyPrefix = "analytics"

// ResponseCache caches analytics responses keyed by canonical filters and
// the reference instant. Responses computed against different references
// never share an entry.
type ResponseCache struct {
	redis *redis.Client
	ttl   time.Duration
}

// NewResponseCache creates a cache whose entries expire after ttl
func NewResponseCache(client *redis.Client, ttl time.Duration) *ResponseCache {
	return &ResponseCache{redis: client, ttl: ttl}
}

// Key renders the cache key for a request: the reference instant plus a
// digest of the canonical filters. Filter values are hashed as a JSON
// document, so a separator inside a value cannot alias another request.
func Key(f filters.Filters, reference time.Time) string {
	doc, _ := json.Marshal(f) // a struct of strings always marshals
	sum := sha256.Sum256(doc)
	return keyPrefix + ":" + reference.UTC().Format(time.RFC3339) + ":" + hex.EncodeToString(sum[:])
}

// Get returns the cached response, or nil when there is none
func (c *ResponseCache) Get(ctx context.Context, f filters.Filters, reference time.Time) (*analytics.Response, error) {
	data, err := c.redis.Get(ctx, Key(f, reference)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get response from Redis: %w", err)
	}

	var resp analytics.Response
	if err := json.Unmarshal(data, &resp); err != nil {
		return nil, fmt.Errorf("failed to unmarshal cached response: %w", err)
	}
	return &resp, nil
}

// Set stores a response with the cache TTL
func (c *ResponseCache) Set(ctx context.Context, f filters.Filters, reference time.Time, resp *analytics.Response) error {
	data, err := json.Marshal(resp)
	if err != nil {
		return fmt.Errorf("failed to marshal response: %w", err)
	}

	if err := c.redis.Set(ctx, Key(f, reference), data, c.ttl).Err(); err != nil {
		return fmt.Errorf("failed to set response in Redis: %w", err)
	}
	return nil
}

// Ping checks the Redis connection
func (c *ResponseCache) Ping(ctx context.Context) error {
	return c.redis.Ping(ctx).Err()
}
