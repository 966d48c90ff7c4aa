package throttle

import (
	"context"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/hendripermana/uiwatch/internal/events"
	"github.com/hendripermana/uiwatch/internal/ratelimit"
)

type redisThrottle struct {
	client  *redis.Client
	policy  ratelimit.Policy
	prefix  string
	timeout time.Duration
}

// NewRedisThrottle constructs a Redis-backed throttle. Marker creation uses
// SET NX with the category cooldown as TTL, so the existence check and the
// marker write are one atomic operation.
//
// When Redis is unreachable the configured policy applies: fail-open lets
// the alert dispatch (duplicates are possible), fail-closed suppresses it.
func NewRedisThrottle(client *redis.Client, policy ratelimit.Policy) Throttle {
	return &redisThrottle{
		client:  client,
		policy:  policy,
		prefix:  "uiwatch:alert_throttle:",
		timeout: 250 * time.Millisecond,
	}
}

func (t *redisThrottle) ShouldSuppress(ctx context.Context, category events.Category, title string) bool {
	ctx, cancel := context.WithTimeout(ctx, t.timeout)
	defer cancel()

	key := t.prefix + Key(category, title)
	created, err := t.client.SetNX(ctx, key, "1", events.CooldownFor(category)).Result()
	if err != nil {
		slog.Error("Alert throttle backend unavailable",
			"category", category,
			"policy", t.policy,
			"error", err,
		)
		return t.policy == ratelimit.FailClosed
	}
	// A live marker means a dispatch happened within the cooldown.
	return !created
}

func (t *redisThrottle) Close() {}
