package identity

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/worldboard/server/internal/model"
	"github.com/worldboard/server/internal/utils/metrics"
)

const (
	usernameKeyPrefix = "identity:username:"
	profileKeyPrefix  = "identity:profile:"
)

// Cached wraps a Provider with a Redis read-through cache.
// Misses are not cached. A Redis failure falls through to the wrapped provider.
type Cached struct {
	next    Provider
	client  redis.UniversalClient
	ttl     time.Duration
	metrics *metrics.Metrics
	logger  *zap.Logger
}

// NewCached creates a new caching provider.
func NewCached(next Provider, client redis.UniversalClient, ttl time.Duration, m *metrics.Metrics, logger *zap.Logger) *Cached {
	if ttl <= 0 {
		ttl = 10 * time.Minute
	}
	return &Cached{
		next:    next,
		client:  client,
		ttl:     ttl,
		metrics: m,
		logger:  logger,
	}
}

// ResolveUsername returns the cached user id or asks the wrapped provider.
func (c *Cached) ResolveUsername(ctx context.Context, username string) (string, error) {
	key := usernameKeyPrefix + strings.ToLower(strings.TrimSpace(username))

	userID, err := c.client.Get(ctx, key).Result()
	switch {
	case err == nil:
		c.hit()
		return userID, nil
	case !errors.Is(err, redis.Nil):
		c.logger.Warn("identity cache read failed", zap.String("key", key), zap.Error(err))
	}
	c.miss()

	userID, err = c.next.ResolveUsername(ctx, username)
	if err != nil {
		return "", err
	}
	c.store(ctx, key, userID)
	return userID, nil
}

// GetProfile returns the cached profile or asks the wrapped provider.
func (c *Cached) GetProfile(ctx context.Context, userID string) (*model.Profile, error) {
	key := profileKeyPrefix + userID

	data, err := c.client.Get(ctx, key).Bytes()
	switch {
	case err == nil:
		var p model.Profile
		if jsonErr := json.Unmarshal(data, &p); jsonErr == nil {
			c.hit()
			return &p, nil
		}
	case !errors.Is(err, redis.Nil):
		c.logger.Warn("identity cache read failed", zap.String("key", key), zap.Error(err))
	}
	c.miss()

	p, err := c.next.GetProfile(ctx, userID)
	if err != nil {
		return nil, err
	}
	if data, err := json.Marshal(p); err == nil {
		c.store(ctx, key, data)
	}
	return p, nil
}

// Invalidate drops cached entries for a user.
func (c *Cached) Invalidate(ctx context.Context, userID, username string) error {
	keys := []string{profileKeyPrefix + userID}
	if username != "" {
		keys = append(keys, usernameKeyPrefix+strings.ToLower(username))
	}
	return c.client.Del(ctx, keys...).Err()
}

func (c *Cached) store(ctx context.Context, key string, value any) {
	if err := c.client.Set(ctx, key, value, c.ttl).Err(); err != nil {
		c.logger.Warn("identity cache write failed", zap.String("key", key), zap.Error(err))
	}
}

func (c *Cached) hit() {
	if c.metrics != nil {
		c.metrics.RecordIdentityCache(true)
	}
}

func (c *Cached) miss() {
	if c.metrics != nil {
		c.metrics.RecordIdentityCache(false)
	}
}
