package ratelimit

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// hitScript applies the limiter algorithm to one hash atomically.
// KEYS[1] key; ARGV now_ms, max, window_ms, block_ms.
// Returns {allowed, remaining, retry_after_ms}.
var hitScript = redis.NewScript(`
local rec = redis.call('HMGET', KEYS[1], 'count', 'reset_at', 'blocked_until')
local now = tonumber(ARGV[1])
local max = tonumber(ARGV[2])
local window = tonumber(ARGV[3])
local block = tonumber(ARGV[4])

local exists = rec[1] ~= false
local count = tonumber(rec[1]) or 0
local resetAt = tonumber(rec[2]) or 0
local blockedUntil = tonumber(rec[3]) or 0

if exists and now < blockedUntil then
  return {0, 0, blockedUntil - now}
end

if (not exists) or now >= resetAt then
  redis.call('HSET', KEYS[1], 'count', 1, 'reset_at', now + window, 'blocked_until', 0)
  redis.call('PEXPIRE', KEYS[1], window)
  return {1, math.max(max - 1, 0), 0}
end

if count >= max then
  redis.call('HSET', KEYS[1], 'blocked_until', now + block)
  redis.call('PEXPIRE', KEYS[1], math.max(resetAt - now, block))
  return {0, 0, block}
end

count = count + 1
redis.call('HSET', KEYS[1], 'count', count)
return {1, math.max(max - count, 0), 0}
`)

// RedisStore shares limiter state between replicas. Keys expire on their own
// once stale, so no sweep is needed.
type RedisStore struct {
	client redis.Cmdable
	prefix string
}

// NewRedisStore builds a store using keys under prefix.
func NewRedisStore(client redis.Cmdable, prefix string) *RedisStore {
	if prefix == "" {
		prefix = "ratelimit"
	}
	return &RedisStore{client: client, prefix: prefix}
}

// Hit implements Store.
func (s *RedisStore) Hit(ctx context.Context, key string, policy Policy, now time.Time) (Result, error) {
	vals, err := hitScript.Run(ctx, s.client, []string{s.key(key)},
		now.UnixMilli(), policy.Max, policy.Window.Milliseconds(), policy.Block.Milliseconds(),
	).Int64Slice()
	if err != nil {
		return Result{}, fmt.Errorf("rate limit hit %s: %w", key, err)
	}
	if len(vals) != 3 {
		return Result{}, fmt.Errorf("rate limit hit %s: unexpected reply %v", key, vals)
	}
	return Result{
		Allowed:    vals[0] == 1,
		Remaining:  int(vals[1]),
		RetryAfter: time.Duration(vals[2]) * time.Millisecond,
	}, nil
}

// Reset implements Store.
func (s *RedisStore) Reset(ctx context.Context, key string) error {
	if err := s.client.Del(ctx, s.key(key)).Err(); err != nil {
		return fmt.Errorf("rate limit reset %s: %w", key, err)
	}
	return nil
}

func (s *RedisStore) key(key string) string {
	return s.prefix + ":" + key
}
