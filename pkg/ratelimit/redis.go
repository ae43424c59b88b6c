package ratelimit

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// takeScript applies the fixed-window transition server-side so the
// read-increment-write is atomic across backend instances. The key's
// TTL anchors the window at the first request; a rejected attempt never
// increments. A key found without a TTL (PEXPIRE lost to a partial
// failure) gets its expiry re-armed so it cannot reject forever.
var takeScript = redis.NewScript(`
local current = tonumber(redis.call('GET', KEYS[1]) or '0')
local limit = tonumber(ARGV[1])
if current >= limit then
  local ttl = redis.call('PTTL', KEYS[1])
  if ttl < 0 then
    redis.call('PEXPIRE', KEYS[1], ARGV[2])
    ttl = tonumber(ARGV[2])
  end
  return {0, current, ttl}
end
current = redis.call('INCR', KEYS[1])
local ttl = redis.call('PTTL', KEYS[1])
if ttl < 0 then
  redis.call('PEXPIRE', KEYS[1], ARGV[2])
  ttl = tonumber(ARGV[2])
end
return {1, current, ttl}
`)

// RedisStore is a Store shared by all backend instances pointing at the
// same Redis.
type RedisStore struct {
	client *redis.Client
	prefix string
}

// NewRedisStore creates a Redis-backed counter store. An empty prefix
// defaults to "ratelimit:".
func NewRedisStore(client *redis.Client, prefix string) *RedisStore {
	if prefix == "" {
		prefix = "ratelimit:"
	}
	return &RedisStore{client: client, prefix: prefix}
}

// Take implements Store. Redis errors are returned to the caller, which
// must fail closed.
func (s *RedisStore) Take(ctx context.Context, key string, window time.Duration, limit int) (Result, error) {
	raw, err := takeScript.Run(ctx, s.client, []string{s.prefix + key}, limit, window.Milliseconds()).Result()
	if err != nil {
		return Result{}, fmt.Errorf("ratelimit take: %w", err)
	}
	return parseTakeReply(raw, window, limit)
}

func parseTakeReply(raw interface{}, window time.Duration, limit int) (Result, error) {
	values, ok := raw.([]interface{})
	if !ok || len(values) != 3 {
		return Result{}, fmt.Errorf("ratelimit take: unexpected script reply %T", raw)
	}

	allowed, _ := values[0].(int64)
	count, _ := values[1].(int64)
	ttlMillis, _ := values[2].(int64)

	result := Result{Allowed: allowed == 1}
	if remaining := limit - int(count); remaining > 0 {
		result.Remaining = remaining
	}
	if !result.Allowed {
		if ttlMillis > 0 {
			result.RetryAfter = time.Duration(ttlMillis) * time.Millisecond
		} else {
			// The script re-arms missing TTLs; if the reply still
			// carries none, one full window is the safe answer.
			result.RetryAfter = window
		}
	}
	return result, nil
}
