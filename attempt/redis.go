package attempt

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
)

// DefaultRedisPrefix namespaces attempt keys.
const DefaultRedisPrefix = "att:"

// ErrStoreUnavailable indicates the attempt backend is unreachable.
var ErrStoreUnavailable = errors.New("attempt store unavailable")

// KEYS[1] record hash; ARGV now_ms, window_ms, max.
// Returns {allowed, count, retry_after_ms}.
var admitScript = redis.NewScript(`
local v = redis.call('HMGET', KEYS[1], 'c', 't')
local now = tonumber(ARGV[1])
local window = tonumber(ARGV[2])
local max = tonumber(ARGV[3])
local c = tonumber(v[1])
local t = tonumber(v[2])
if c and t and now - t <= window then
  if c >= max then
    return {0, c, window - (now - t)}
  end
  c = c + 1
else
  c = 1
end
redis.call('HSET', KEYS[1], 'c', c, 't', now)
redis.call('PEXPIRE', KEYS[1], window + 1)
return {1, c, 0}
`)

// RedisStore shares attempt records between processes.
type RedisStore struct {
	redis  redis.UniversalClient
	prefix string
}

// NewRedisStore returns a RedisStore using prefix for keys. An empty prefix
// uses DefaultRedisPrefix.
func NewRedisStore(client redis.UniversalClient, prefix string) *RedisStore {
	if prefix == "" {
		prefix = DefaultRedisPrefix
	}
	return &RedisStore{redis: client, prefix: prefix}
}

func (s *RedisStore) key(identifier string) string {
	return s.prefix + identifier
}

// Admit runs the admit script, so the read-modify-write is atomic across
// processes sharing the Redis instance.
func (s *RedisStore) Admit(ctx context.Context, key string, now time.Time, max int, window time.Duration) (Decision, error) {
	res, err := admitScript.Run(ctx, s.redis, []string{s.key(key)},
		now.UnixMilli(), window.Milliseconds(), max,
	).Int64Slice()
	if err != nil {
		return Decision{}, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}
	if len(res) != 3 {
		return Decision{}, fmt.Errorf("%w: unexpected script reply %v", ErrStoreUnavailable, res)
	}
	return Decision{
		Allowed:    res[0] == 1,
		Count:      int(res[1]),
		RetryAfter: time.Duration(res[2]) * time.Millisecond,
	}, nil
}

// Get reads the record for key without touching its expiry.
func (s *RedisStore) Get(ctx context.Context, key string) (Record, bool, error) {
	vals, err := s.redis.HMGet(ctx, s.key(key), "c", "t").Result()
	if err != nil {
		return Record{}, false, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}
	if len(vals) != 2 || vals[0] == nil || vals[1] == nil {
		return Record{}, false, nil
	}

	count, err := strconv.Atoi(fmt.Sprint(vals[0]))
	if err != nil {
		return Record{}, false, fmt.Errorf("%w: bad count: %v", ErrStoreUnavailable, err)
	}
	ms, err := strconv.ParseInt(fmt.Sprint(vals[1]), 10, 64)
	if err != nil {
		return Record{}, false, fmt.Errorf("%w: bad timestamp: %v", ErrStoreUnavailable, err)
	}
	return Record{Count: count, LastAttempt: time.UnixMilli(ms)}, true, nil
}

// Delete removes the record for key.
func (s *RedisStore) Delete(ctx context.Context, key string) error {
	if err := s.redis.Del(ctx, s.key(key)).Err(); err != nil {
		return fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}
	return nil
}

// Ping checks connectivity to the backend.
func (s *RedisStore) Ping(ctx context.Context) error {
	if err := s.redis.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}
	return nil
}
