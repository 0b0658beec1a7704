// Package consumer 消费级联重试主题，重放失败的购物车级联清理
package consumer

import (
	"context"
	"time"

	"github.com/wyfcoding/ecommerce/internal/cart/domain"
	"github.com/wyfcoding/ecommerce/pkg/docstore"
	"github.com/wyfcoding/ecommerce/pkg/logger"
	"github.com/wyfcoding/ecommerce/pkg/mq"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Cascade 级联重放能力
type Cascade interface {
	Rerun(ctx context.Context, kind domain.CascadeKind, entityID primitive.ObjectID) error
	ScheduleRetry(ctx context.Context, kind domain.CascadeKind, entityID primitive.ObjectID, attempt int, cause error)
}

// DeadLetters 死信投递
type DeadLetters interface {
	Send(ctx context.Context, original *mq.Message, reason string, err error) error
}

// CascadeRetryHandler 级联重试消息处理器
type CascadeRetryHandler struct {
	cascade     Cascade
	deadLetters DeadLetters
	maxAttempts int
	baseDelay   time.Duration
}

// NewCascadeRetryHandler 创建处理器；第 n 次重试前等待 baseDelay*2^(n-1)
func NewCascadeRetryHandler(cascade Cascade, deadLetters DeadLetters, maxAttempts int, baseDelay time.Duration) *CascadeRetryHandler {
	if maxAttempts <= 0 {
		maxAttempts = 1
	}
	return &CascadeRetryHandler{
		cascade:     cascade,
		deadLetters: deadLetters,
		maxAttempts: maxAttempts,
		baseDelay:   baseDelay,
	}
}

// Handle 处理一条 CascadeRetry 消息，实现 mq.Handler
func (h *CascadeRetryHandler) Handle(ctx context.Context, msg *mq.Message) error {
	var retry domain.CascadeRetry
	if err := msg.UnmarshalPayload(&retry); err != nil {
		return h.deadLetters.Send(ctx, msg, "malformed cascade retry payload", err)
	}
	entityID, err := docstore.ParseID(retry.EntityID)
	if err != nil {
		return h.deadLetters.Send(ctx, msg, "invalid entity id", err)
	}

	if err := h.wait(ctx, retry.Attempt); err != nil {
		return err
	}

	err = h.cascade.Rerun(ctx, retry.Kind, entityID)
	if err == nil {
		logger.Info(ctx, "Cascade retry succeeded", "kind", retry.Kind, "entity_id", retry.EntityID, "attempt", retry.Attempt)
		return nil
	}

	if retry.Attempt >= h.maxAttempts {
		logger.Error(ctx, "Cascade retry exhausted", "kind", retry.Kind, "entity_id", retry.EntityID, "attempt", retry.Attempt, "error", err)
		return h.deadLetters.Send(ctx, msg, "cascade retry attempts exhausted", err)
	}

	logger.Warn(ctx, "Cascade retry failed, rescheduling", "kind", retry.Kind, "entity_id", retry.EntityID, "attempt", retry.Attempt, "error", err)
	h.cascade.ScheduleRetry(ctx, retry.Kind, entityID, retry.Attempt+1, err)
	return nil
}

func (h *CascadeRetryHandler) wait(ctx context.Context, attempt int) error {
	if h.baseDelay <= 0 || attempt <= 0 {
		return nil
	}
	delay := h.baseDelay << min(attempt-1, 10)
	timer := time.NewTimer(delay)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
