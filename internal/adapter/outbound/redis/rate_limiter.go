package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/worldboard/server/internal/utils/middleware"
)

const rateLimitKeyPrefix = "worldboard:ratelimit:"

// slidingWindow trims the window, then admits the request when it fits.
// Scores are unix milliseconds. Returns {allowed, remaining, retry_after_ms}.
var slidingWindow = redis.NewScript(`
local key = KEYS[1]
local now = tonumber(ARGV[1])
local window = tonumber(ARGV[2])
local limit = tonumber(ARGV[3])

redis.call('ZREMRANGEBYSCORE', key, '-inf', now - window)
local count = redis.call('ZCARD', key)
if count < limit then
	redis.call('ZADD', key, ARGV[1], ARGV[4])
	redis.call('PEXPIRE', key, window)
	return {1, limit - count - 1, 0}
end

local oldest = redis.call('ZRANGE', key, 0, 0, 'WITHSCORES')
return {0, 0, tonumber(oldest[2]) + window - now}
`)

// RateLimiter is a sliding-window limiter over one sorted set per key.
// Each decision is a single atomic script call.
type RateLimiter struct {
	client redis.UniversalClient
	now    func() time.Time
}

var _ middleware.RateLimiter = (*RateLimiter)(nil)

// NewRateLimiter creates a limiter on client.
func NewRateLimiter(client redis.UniversalClient) *RateLimiter {
	return &RateLimiter{client: client, now: time.Now}
}

// Allow records one request for key if it fits within limit per window.
func (r *RateLimiter) Allow(ctx context.Context, key string, limit int, window time.Duration) (middleware.RateDecision, error) {
	now := r.now().UnixMilli()
	res, err := slidingWindow.Run(ctx, r.client,
		[]string{rateLimitKeyPrefix + key},
		now, window.Milliseconds(), limit, fmt.Sprintf("%d-%s", now, uuid.NewString()),
	).Int64Slice()
	if err != nil {
		return middleware.RateDecision{}, fmt.Errorf("rate limit %s: %w", key, err)
	}
	if len(res) != 3 {
		return middleware.RateDecision{}, fmt.Errorf("rate limit %s: unexpected reply %v", key, res)
	}
	return middleware.RateDecision{
		Allowed:    res[0] == 1,
		Remaining:  int(res[1]),
		RetryAfter: time.Duration(res[2]) * time.Millisecond,
	}, nil
}
