// internal/session/redis.go
//
// Redis-backed Store.  Each scope is one hash at hemo:session:<scope>;
// HGET/HSET/HDEL are atomic per key on the server, so no client-side lock
// is needed.  Every write pushes the hash's expiry ttl into the future.
package session

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const redisKeyPrefix = "hemo:session:"

// Redis stores one scope's keys in a Redis hash.
type Redis struct {
	rdb  redis.Cmdable
	hash string
	ttl  time.Duration
}

// NewRedis binds scope (origin, or origin plus browser id) to rdb.  A ttl
// of zero never expires the hash.
func NewRedis(rdb redis.Cmdable, scope string, ttl time.Duration) *Redis {
	return &Redis{rdb: rdb, hash: redisKeyPrefix + scope, ttl: ttl}
}

// DialRedis opens a client and pings it.
func DialRedis(ctx context.Context, addr, password string, db int) (*redis.Client, error) {
	c := redis.NewClient(&redis.Options{Addr: addr, Password: password, DB: db})
	if err := c.Ping(ctx).Err(); err != nil {
		_ = c.Close()
		return nil, fmt.Errorf("session: redis ping %s: %w", addr, err)
	}
	return c, nil
}

func (r *Redis) Get(ctx context.Context, key string) (string, bool, error) {
	v, err := r.rdb.HGet(ctx, r.hash, key).Result()
	if errors.Is(err, redis.Nil) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("session: redis get %s: %w", key, err)
	}
	return v, true, nil
}

func (r *Redis) Set(ctx context.Context, key, value string) error {
	if err := r.rdb.HSet(ctx, r.hash, key, value).Err(); err != nil {
		return fmt.Errorf("session: redis set %s: %w", key, err)
	}
	if r.ttl > 0 {
		if err := r.rdb.Expire(ctx, r.hash, r.ttl).Err(); err != nil {
			return fmt.Errorf("session: redis expire: %w", err)
		}
	}
	return nil
}

func (r *Redis) Remove(ctx context.Context, key string) error {
	if err := r.rdb.HDel(ctx, r.hash, key).Err(); err != nil {
		return fmt.Errorf("session: redis remove %s: %w", key, err)
	}
	return nil
}
