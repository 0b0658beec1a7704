// Package ratelimit 基于 Redis 的分布式限流
package ratelimit

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/go-redis/redis_rate/v10"
	"github.com/redis/go-redis/v9"
)

// RateLimiter 限流器
type RateLimiter interface {
	// Allow 判断 key 在给定规则下是否放行
	Allow(ctx context.Context, key string, limit Limit) (*Result, error)
}

// Limit 限流规则：每 Period 补充 Rate 个令牌，桶容量 Burst
type Limit struct {
	Rate   int
	Period time.Duration
	Burst  int
}

// PerSecond 每秒 rate 个请求，burst 为 0 时取 rate
func PerSecond(rate, burst int) Limit {
	return Limit{Rate: rate, Period: time.Second, Burst: burst}
}

// Key 生成限流键，形如 ratelimit:<scope>:<client>
func Key(scope, client string) string {
	return "ratelimit:" + strings.TrimSpace(scope) + ":" + client
}

// Result 限流判定结果
type Result struct {
	Allowed    bool
	Remaining  int
	ResetAfter time.Duration
	RetryAfter time.Duration
}

// RetryAfterSeconds 向上取整的重试等待秒数，至少为 1
func (r *Result) RetryAfterSeconds() int64 {
	secs := int64(r.RetryAfter / time.Second)
	if r.RetryAfter%time.Second != 0 || secs == 0 {
		secs++
	}
	return secs
}

// RedisRateLimiter 基于 redis_rate 的 GCRA 限流实现
type RedisRateLimiter struct {
	limiter *redis_rate.Limiter
}

// NewRedisRateLimiter 创建 Redis 限流器
func NewRedisRateLimiter(rdb *redis.Client) *RedisRateLimiter {
	return &RedisRateLimiter{limiter: redis_rate.NewLimiter(rdb)}
}

func (r *RedisRateLimiter) Allow(ctx context.Context, key string, limit Limit) (*Result, error) {
	res, err := r.limiter.Allow(ctx, key, toRedisLimit(limit))
	if err != nil {
		return nil, fmt.Errorf("rate limit check failed: %w", err)
	}
	return &Result{
		Allowed:    res.Allowed > 0,
		Remaining:  res.Remaining,
		ResetAfter: res.ResetAfter,
		RetryAfter: res.RetryAfter,
	}, nil
}

func toRedisLimit(l Limit) redis_rate.Limit {
	if l.Burst <= 0 {
		l.Burst = l.Rate
	}
	return redis_rate.Limit{Rate: l.Rate, Period: l.Period, Burst: l.Burst}
}
