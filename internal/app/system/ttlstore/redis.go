package ttlstore

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// incrScript starts the expiry only on the first increment, so a window
// always ends at first-request + window.
var incrScript = redis.NewScript(`
local n = redis.call('INCR', KEYS[1])
if n == 1 then
  redis.call('PEXPIRE', KEYS[1], ARGV[1])
end
return {n, redis.call('PTTL', KEYS[1])}
`)

// Redis is a Store backed by a Redis server, shared across instances.
type Redis struct {
	c      redis.UniversalClient
	prefix string
}

// NewRedis wraps c. Every key is stored under prefix.
func NewRedis(c redis.UniversalClient, prefix string) *Redis {
	return &Redis{c: c, prefix: prefix}
}

func (s *Redis) key(k string) string { return s.prefix + k }

func (s *Redis) Incr(ctx context.Context, key string, window time.Duration) (int64, time.Time, error) {
	res, err := incrScript.Run(ctx, s.c, []string{s.key(key)}, window.Milliseconds()).Int64Slice()
	if err != nil {
		return 0, time.Time{}, err
	}
	if len(res) != 2 {
		return 0, time.Time{}, fmt.Errorf("ttlstore: unexpected script reply %v", res)
	}
	ttl := time.Duration(res[1]) * time.Millisecond
	if ttl < 0 {
		ttl = window
	}
	return res[0], time.Now().Add(ttl), nil
}

func (s *Redis) Put(ctx context.Context, key string, ttl time.Duration) error {
	return s.c.Set(ctx, s.key(key), 1, ttl).Err()
}

func (s *Redis) Expiry(ctx context.Context, key string) (time.Time, bool, error) {
	ttl, err := s.c.PTTL(ctx, s.key(key)).Result()
	if err != nil {
		return time.Time{}, false, err
	}
	switch {
	case ttl == -2: // missing
		return time.Time{}, false, nil
	case ttl < 0: // present without expiry
		return time.Time{}, true, nil
	}
	return time.Now().Add(ttl), true, nil
}

func (s *Redis) Delete(ctx context.Context, key string) error {
	return s.c.Del(ctx, s.key(key)).Err()
}

// Ping checks connectivity for the health endpoint.
func (s *Redis) Ping(ctx context.Context) error {
	return s.c.Ping(ctx).Err()
}
