package ratelimit

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// RedisLimiter keeps one sorted set of hit timestamps per key, so every
// API replica shares the same window.
type RedisLimiter struct {
	client *redis.Client
	prefix string
	limit  int
	window time.Duration
	now    func() time.Time
}

func NewRedis(client *redis.Client, prefix string, limit int, window time.Duration) *RedisLimiter {
	if prefix == "" {
		prefix = "ratelimit"
	}
	return &RedisLimiter{client: client, prefix: prefix, limit: limit, window: window, now: time.Now}
}

func (r *RedisLimiter) Allow(ctx context.Context, key string) (Result, error) {
	now := r.now()
	k := fmt.Sprintf("%s:%s", r.prefix, key)
	cutoff := strconv.FormatInt(now.Add(-r.window).UnixNano(), 10)

	var card *redis.IntCmd
	var oldest *redis.ZSliceCmd
	_, err := r.client.TxPipelined(ctx, func(p redis.Pipeliner) error {
		p.ZRemRangeByScore(ctx, k, "-inf", "("+cutoff)
		card = p.ZCard(ctx, k)
		oldest = p.ZRangeWithScores(ctx, k, 0, 0)
		return nil
	})
	if err != nil {
		return Result{}, fmt.Errorf("redis rate window: %w", err)
	}

	count := int(card.Val())
	res := Result{Limit: r.limit, ResetAt: now.Add(r.window)}
	if z := oldest.Val(); len(z) > 0 {
		res.ResetAt = time.Unix(0, int64(z[0].Score)).Add(r.window)
	}
	if count >= r.limit {
		return res, nil
	}

	member := redis.Z{Score: float64(now.UnixNano()), Member: uuid.NewString()}
	_, err = r.client.TxPipelined(ctx, func(p redis.Pipeliner) error {
		p.ZAdd(ctx, k, member)
		p.PExpire(ctx, k, r.window)
		return nil
	})
	if err != nil {
		return Result{}, fmt.Errorf("redis rate record: %w", err)
	}

	res.Allowed = true
	res.Remaining = r.limit - count - 1
	if count == 0 {
		res.ResetAt = now.Add(r.window)
	}
	return res, nil
}
