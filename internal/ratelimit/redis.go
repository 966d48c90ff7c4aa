package ratelimit

import (
	"context"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"
)

// allowScript increments the window counter, stamps the window expiry when
// the counter is newly created, and returns count plus remaining TTL in a
// single atomic round trip.
var allowScript = redis.NewScript(`
local count = redis.call('INCR', KEYS[1])
if count == 1 then
	redis.call('PEXPIRE', KEYS[1], ARGV[1])
end
local ttl = redis.call('PTTL', KEYS[1])
if ttl < 0 then
	redis.call('PEXPIRE', KEYS[1], ARGV[1])
	ttl = tonumber(ARGV[1])
end
return {count, ttl}
`)

type redisLimiter struct {
	client  *redis.Client
	policy  Policy
	prefix  string
	timeout time.Duration
}

// NewRedisLimiter constructs a Redis-backed fixed-window limiter. The policy
// controls behavior when Redis is unreachable.
func NewRedisLimiter(client *redis.Client, policy Policy) Limiter {
	return &redisLimiter{
		client:  client,
		policy:  policy,
		prefix:  "uiwatch:ratelimit:",
		timeout: 250 * time.Millisecond,
	}
}

func (rl *redisLimiter) Allow(action, identity string, limit int, period time.Duration) Decision {
	if limit <= 0 {
		return Decision{Allowed: true}
	}
	if period <= 0 {
		period = time.Minute
	}
	ctx, cancel := context.WithTimeout(context.Background(), rl.timeout)
	defer cancel()

	key := rl.prefix + action + ":" + identity
	result, err := allowScript.Run(ctx, rl.client, []string{key}, period.Milliseconds()).Slice()
	if err != nil || len(result) != 2 {
		return rl.degraded(action, err)
	}

	count, ok1 := result[0].(int64)
	ttlMs, ok2 := result[1].(int64)
	if !ok1 || !ok2 {
		return rl.degraded(action, err)
	}

	return Decision{
		Allowed:    count <= int64(limit),
		Count:      count,
		RetryAfter: time.Duration(ttlMs) * time.Millisecond,
	}
}

// degraded resolves a backend failure according to the configured policy.
func (rl *redisLimiter) degraded(action string, err error) Decision {
	slog.Error("Rate limiter backend unavailable",
		"action", action,
		"policy", rl.policy,
		"error", err,
	)
	if rl.policy == FailClosed {
		return Decision{Allowed: false, RetryAfter: time.Minute}
	}
	return Decision{Allowed: true}
}

func (rl *redisLimiter) Close() {}
