package ratelimit

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// Redis is a sliding-window limiter over a sorted set per key, shared by every
// process pointing at the same Redis.
type Redis struct {
	rdb    *redis.Client
	prefix string
	limit  int
	window time.Duration
}

// NewRedis returns a Redis-backed limiter. Keys are stored under prefix.
func NewRedis(rdb *redis.Client, prefix string, limit int, window time.Duration) *Redis {
	return &Redis{rdb: rdb, prefix: prefix, limit: limit, window: window}
}

// Allow trims entries older than the window, counts the rest and records the
// request when under the limit.
func (l *Redis) Allow(ctx context.Context, key string) (bool, error) {
	k := l.prefix + key
	now := time.Now().UnixMilli()
	windowStart := now - l.window.Milliseconds()

	pipe := l.rdb.Pipeline()
	pipe.ZRemRangeByScore(ctx, k, "0", strconv.FormatInt(windowStart, 10))
	countCmd := pipe.ZCard(ctx, k)
	if _, err := pipe.Exec(ctx); err != nil {
		return false, fmt.Errorf("rate limit count: %w", err)
	}
	if countCmd.Val() >= int64(l.limit) {
		return false, nil
	}

	pipe = l.rdb.Pipeline()
	pipe.ZAdd(ctx, k, redis.Z{Score: float64(now), Member: uuid.NewString()})
	pipe.Expire(ctx, k, l.window*2)
	if _, err := pipe.Exec(ctx); err != nil {
		return false, fmt.Errorf("rate limit record: %w", err)
	}
	return true, nil
}
