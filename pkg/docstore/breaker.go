package docstore

import (
	"context"
	"errors"
	"time"

	"github.com/sony/gobreaker"
	"go.mongodb.org/mongo-driver/mongo"
)

// BreakerConfig 熔断器配置
type BreakerConfig struct {
	// 连续失败多少次后打开
	ConsecutiveFailures uint32
	// 打开状态持续时间
	OpenTimeout time.Duration
	// 半开状态允许的探测请求数
	HalfOpenRequests uint32
}

func newBreaker(cfg BreakerConfig) *gobreaker.CircuitBreaker {
	if cfg.ConsecutiveFailures == 0 {
		cfg.ConsecutiveFailures = 5
	}
	if cfg.OpenTimeout <= 0 {
		cfg.OpenTimeout = 10 * time.Second
	}
	if cfg.HalfOpenRequests == 0 {
		cfg.HalfOpenRequests = 1
	}

	return gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        "docstore",
		MaxRequests: cfg.HalfOpenRequests,
		Timeout:     cfg.OpenTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= cfg.ConsecutiveFailures
		},
		IsSuccessful: isHealthyOutcome,
	})
}

// isHealthyOutcome 业务结果（未命中、唯一冲突、调用方取消）不计入熔断失败
func isHealthyOutcome(err error) bool {
	return err == nil ||
		errors.Is(err, ErrNotFound) ||
		errors.Is(err, mongo.ErrNoDocuments) ||
		mongo.IsDuplicateKeyError(err) ||
		errors.Is(err, context.Canceled)
}
