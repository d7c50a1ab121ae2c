package ratelimit

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const keyPrefix = "docutrack:ratelimit:"

// RedisLimiter counts attempts in Redis so every API instance shares the
// same fixed windows.
type RedisLimiter struct {
	client redis.Cmdable
	Window time.Duration
}

// NewRedis returns a limiter over client. A non-positive window defaults
// to one minute.
func NewRedis(client redis.Cmdable, window time.Duration) *RedisLimiter {
	if window <= 0 {
		window = time.Minute
	}
	return &RedisLimiter{client: client, Window: window}
}

// Connect parses a redis:// URL and pings the server.
func Connect(ctx context.Context, redisURL string) (*redis.Client, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse Redis URL: %w", err)
	}

	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}
	return client, nil
}

// Allow increments the counter for key. A counter left without a TTL gets
// one here, so a key never blocks past a single window.
func (l *RedisLimiter) Allow(ctx context.Context, key string, limit int) (bool, time.Duration, error) {
	k := keyPrefix + key

	var incr *redis.IntCmd
	var pttl *redis.DurationCmd
	_, err := l.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		incr = pipe.Incr(ctx, k)
		pttl = pipe.PTTL(ctx, k)
		return nil
	})
	if err != nil {
		return false, 0, fmt.Errorf("redis incr: %w", err)
	}

	ttl := pttl.Val()
	if ttl < 0 {
		if err := l.client.Expire(ctx, k, l.Window).Err(); err != nil {
			return false, 0, fmt.Errorf("redis expire: %w", err)
		}
		ttl = l.Window
	}

	if incr.Val() <= int64(limit) {
		return true, 0, nil
	}
	return false, ttl, nil
}

func (l *RedisLimiter) Reset(ctx context.Context, key string) error {
	if err := l.client.Del(ctx, keyPrefix+key).Err(); err != nil {
		return fmt.Errorf("redis del: %w", err)
	}
	return nil
}
