package matching

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"masterok/internal/models"
)

// DefaultCacheTTL bounds how stale a cached match may get; workload changes
// within the window are not reflected.
const DefaultCacheTTL = 5 * time.Minute

// CachedMatcher wraps a Matcher with a redis result cache. Only positive
// results are cached; a no-candidate outcome is always recomputed.
type CachedMatcher struct {
	inner  Matcher
	client *redis.Client
	ttl    time.Duration
	logger *zerolog.Logger
}

// NewCachedMatcher wraps inner with a redis cache. A zero ttl falls back to
// DefaultCacheTTL.
func NewCachedMatcher(inner Matcher, client *redis.Client, ttl time.Duration, logger *zerolog.Logger) *CachedMatcher {
	if ttl <= 0 {
		ttl = DefaultCacheTTL
	}
	return &CachedMatcher{inner: inner, client: client, ttl: ttl, logger: logger}
}

func (c *CachedMatcher) Strategy() string { return c.inner.Strategy() }

func (c *CachedMatcher) cacheKey(req Request) string {
	return fmt.Sprintf("match:%s:%s:%s:%s:%s",
		c.inner.Strategy(), req.Specialization, req.City, models.DateKey(req.Date), req.Clock)
}

// Match consults the cache first and falls through to the wrapped matcher.
// Cache failures are logged and ignored.
func (c *CachedMatcher) Match(ctx context.Context, req Request) (*Result, error) {
	key := c.cacheKey(req)

	cached, err := c.client.Get(ctx, key).Result()
	if err == nil && cached != "" {
		var result Result
		if err := json.Unmarshal([]byte(cached), &result); err == nil {
			return &result, nil
		}
		// Corrupt entry: recompute.
	} else if err != nil && err != redis.Nil {
		c.logger.Warn().Err(err).Str("key", key).Msg("match cache read failed")
	}

	result, err := c.inner.Match(ctx, req)
	if err != nil || result == nil {
		return result, err
	}

	if raw, err := json.Marshal(result); err == nil {
		if err := c.client.Set(ctx, key, raw, c.ttl).Err(); err != nil {
			c.logger.Warn().Err(err).Str("key", key).Msg("match cache write failed")
		}
	}
	return result, nil
}
