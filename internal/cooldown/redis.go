package cooldown

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisStore keeps cooldowns in Redis so several replicas share them.
// Values are unix millis; every key also expires after ttl.
type RedisStore struct {
	client redis.UniversalClient
	prefix string
	ttl    time.Duration
}

// NewRedisStore creates a store on a new client for addr
func NewRedisStore(addr, password string, db int, prefix string, ttl time.Duration) *RedisStore {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})
	return NewRedisStoreWithClient(client, prefix, ttl)
}

// NewRedisStoreWithClient creates a store on an existing client
func NewRedisStoreWithClient(client redis.UniversalClient, prefix string, ttl time.Duration) *RedisStore {
	return &RedisStore{client: client, prefix: prefix, ttl: ttl}
}

var _ Store = (*RedisStore)(nil)

// claimScript compares and sets in one step. KEYS[1] is the key; ARGV holds
// the claim time and period in millis, then the ttl in millis (0 for none).
// Unparseable values are overwritten.
var claimScript = redis.NewScript(`
local last = tonumber(redis.call('GET', KEYS[1]) or '')
if last and tonumber(ARGV[1]) - last < tonumber(ARGV[2]) then
	return 0
end
if tonumber(ARGV[3]) > 0 then
	redis.call('SET', KEYS[1], ARGV[1], 'PX', ARGV[3])
else
	redis.call('SET', KEYS[1], ARGV[1])
end
return 1
`)

// Ping checks the connection
func (r *RedisStore) Ping(ctx context.Context) error {
	return r.client.Ping(ctx).Err()
}

// Close closes the underlying client
func (r *RedisStore) Close() error {
	return r.client.Close()
}

func (r *RedisStore) Get(ctx context.Context, key string) (time.Time, bool, error) {
	raw, err := r.client.Get(ctx, r.prefix+key).Result()
	if errors.Is(err, redis.Nil) {
		return time.Time{}, false, nil
	}
	if err != nil {
		return time.Time{}, false, fmt.Errorf("redis get %s: %w", key, err)
	}
	at, err := parseMillis(raw)
	if err != nil {
		return time.Time{}, false, fmt.Errorf("redis get %s: %w", key, err)
	}
	return at, true, nil
}

func (r *RedisStore) Put(ctx context.Context, key string, at time.Time) error {
	if err := r.client.Set(ctx, r.prefix+key, strconv.FormatInt(at.UnixMilli(), 10), r.ttl).Err(); err != nil {
		return fmt.Errorf("redis set %s: %w", key, err)
	}
	return nil
}

func (r *RedisStore) Claim(ctx context.Context, key string, at time.Time, period time.Duration) (bool, error) {
	n, err := claimScript.Run(ctx, r.client, []string{r.prefix + key},
		at.UnixMilli(), period.Milliseconds(), r.ttl.Milliseconds()).Int()
	if err != nil {
		return false, fmt.Errorf("redis claim %s: %w", key, err)
	}
	return n == 1, nil
}

// Evict scans the prefix and deletes stale entries. Keys normally expire on
// their own; this covers stores created with a zero ttl.
func (r *RedisStore) Evict(ctx context.Context, olderThan time.Time) (int, error) {
	evicted := 0
	iter := r.client.Scan(ctx, 0, r.prefix+"*", 100).Iterator()
	for iter.Next(ctx) {
		key := iter.Val()
		raw, err := r.client.Get(ctx, key).Result()
		if errors.Is(err, redis.Nil) {
			continue
		}
		if err != nil {
			return evicted, fmt.Errorf("redis get %s: %w", key, err)
		}
		at, err := parseMillis(raw)
		if err == nil && !at.Before(olderThan) {
			continue
		}
		if err := r.client.Del(ctx, key).Err(); err != nil {
			return evicted, fmt.Errorf("redis del %s: %w", key, err)
		}
		evicted++
	}
	if err := iter.Err(); err != nil {
		return evicted, fmt.Errorf("redis scan: %w", err)
	}
	return evicted, nil
}

func parseMillis(raw string) (time.Time, error) {
	ms, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return time.Time{}, fmt.Errorf("parse cooldown value %q: %w", raw, err)
	}
	return time.UnixMilli(ms), nil
}
