package ratelimit

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/tablerail/tablerail/core/infra/redisutil"
)

const (
	counterPrefix    = "trl:rate:"
	defaultOpTimeout = 2 * time.Second
)

// checkScript increments the caller's window counter and arms the window TTL
// on first use, in one atomic round trip. Returns {count, remaining ms}.
const checkScript = `
local key = KEYS[1]
local window = tonumber(ARGV[1])
local count = redis.call("INCR", key)
if count == 1 then
  redis.call("PEXPIRE", key, window)
end
local ttl = redis.call("PTTL", key)
if ttl < 0 then
  redis.call("PEXPIRE", key, window)
  ttl = window
end
return {count, ttl}
`

// RedisLimiter implements Limiter on a shared Redis counter store.
type RedisLimiter struct {
	client *redis.Client
}

// NewRedisLimiter dials Redis at the given URL and verifies connectivity.
func NewRedisLimiter(url string) (*RedisLimiter, error) {
	client, err := redisutil.NewClient(url)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}
	ctx, cancel := context.WithTimeout(context.Background(), defaultOpTimeout)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("connect redis: %w", err)
	}
	return &RedisLimiter{client: client}, nil
}

// NewRedisLimiterWithClient wraps an existing client (shared pools, tests).
func NewRedisLimiterWithClient(client *redis.Client) *RedisLimiter {
	return &RedisLimiter{client: client}
}

// Close shuts down the Redis client.
func (l *RedisLimiter) Close() error {
	if l == nil || l.client == nil {
		return nil
	}
	return l.client.Close()
}

// CheckAndIncrement consumes one slot for key and reports whether the caller
// is still inside the limit for the current window.
func (l *RedisLimiter) CheckAndIncrement(ctx context.Context, key string, limit int64, window time.Duration) (Result, error) {
	if l == nil || l.client == nil {
		return Result{}, fmt.Errorf("rate limiter unavailable")
	}
	key = strings.TrimSpace(key)
	if key == "" {
		return Result{}, fmt.Errorf("rate limit key required")
	}
	if limit <= 0 || window <= 0 {
		return Result{}, fmt.Errorf("rate limit requires positive limit and window")
	}
	if ctx == nil {
		ctx = context.Background()
	}
	cctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), defaultOpTimeout)
	defer cancel()

	res, err := l.client.Eval(cctx, checkScript, []string{counterPrefix + key}, window.Milliseconds()).Result()
	if err != nil {
		return Result{}, fmt.Errorf("rate limit check: %w", err)
	}
	values, ok := res.([]interface{})
	if !ok || len(values) != 2 {
		return Result{}, fmt.Errorf("rate limit check: unexpected reply %T", res)
	}
	count, _ := values[0].(int64)
	ttlMillis, _ := values[1].(int64)

	result := Result{
		Allowed: count <= limit,
		Count:   count,
		Limit:   limit,
	}
	if !result.Allowed {
		retry := time.Duration(ttlMillis) * time.Millisecond
		if retry <= 0 {
			retry = window
		}
		result.RetryAfter = retry
	}
	return result, nil
}
