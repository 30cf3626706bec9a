// Package ratelimit enforces per-tenant daily send ceilings with
// atomic Redis counters.
package ratelimit

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/ignite/lead-engine/internal/domain"
)

// Limiter counts sends per (tenant, channel, UTC day) in Redis. The
// check and the increment run in a single Lua script so two concurrent
// callers cannot both pass a boundary check.
type Limiter struct {
	redis *redis.Client

	allowScript *redis.Script
	now         func() time.Time
}

// Counter keys carry a TTL slightly past the day boundary so stale
// buckets clean themselves up.
const dayTTLSeconds = 90000 // 25 hours

const allowLuaScript = `
local key = KEYS[1]
local limit = tonumber(ARGV[1])
local ttl = tonumber(ARGV[2])

local current = tonumber(redis.call("GET", key) or "0")

if current + 1 > limit then
    return {0, current}
end

local newVal = redis.call("INCR", key)
if newVal == 1 then
    redis.call("EXPIRE", key, ttl)
end

return {1, newVal}
`

// New creates a limiter on an existing Redis client.
func New(client *redis.Client) *Limiter {
	return &Limiter{
		redis:       client,
		allowScript: redis.NewScript(allowLuaScript),
		now:         time.Now,
	}
}

// NewFromURL creates a limiter by connecting to Redis and verifying
// the connection.
func NewFromURL(redisURL string) (*Limiter, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("invalid redis URL: %w", err)
	}

	client := redis.NewClient(opts)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("redis connection failed: %w", err)
	}
	return New(client), nil
}

func (l *Limiter) key(tenantID string, channel domain.Channel) string {
	day := l.now().UTC().Format("2006-01-02")
	return fmt.Sprintf("ratelimit:%s:%s:%s", tenantID, channel, day)
}

// Allow atomically checks the tenant's counter for a channel against
// the limit and increments it when under. Returns false when the
// ceiling is reached; the counter is untouched in that case.
func (l *Limiter) Allow(ctx context.Context, tenantID string, channel domain.Channel, limit int) (bool, error) {
	result, err := l.allowScript.Run(ctx, l.redis,
		[]string{l.key(tenantID, channel)},
		limit,
		dayTTLSeconds,
	).Slice()
	if err != nil {
		return false, fmt.Errorf("rate limit check failed: %w", err)
	}

	allowed, ok := result[0].(int64)
	if !ok {
		return false, fmt.Errorf("unexpected rate limit script result: %v", result)
	}
	return allowed == 1, nil
}

// Usage returns the number of sends counted today for a tenant and
// channel. A missing key reads as zero.
func (l *Limiter) Usage(ctx context.Context, tenantID string, channel domain.Channel) (int, error) {
	n, err := l.redis.Get(ctx, l.key(tenantID, channel)).Int()
	if err == redis.Nil {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("reading rate limit counter: %w", err)
	}
	return n, nil
}

// Close closes the Redis connection.
func (l *Limiter) Close() error {
	return l.redis.Close()
}
