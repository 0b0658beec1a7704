package application

import (
	"context"
	"errors"
	"fmt"
	"iter"
	"time"

	"github.com/wyfcoding/ecommerce/internal/cart/domain"
	"github.com/wyfcoding/ecommerce/pkg/logger"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

var errUnchanged = errors.New("cart unchanged")

// CascadeCoordinator 用户/商品删除后的购物车级联清理
//
// 清理是尽力而为的顺序扫描：单个购物车失败只记录并继续，所有失败合并返回。
// 有失败时向重试主题投递 CascadeRetry，由消费者重放整个级联。
type CascadeCoordinator struct {
	repo       domain.CartRepository
	carts      *CartCommandService
	publisher  domain.EventPublisher
	recorder   Recorder
	retryTopic string
	now        func() time.Time
}

// NewCascadeCoordinator 创建级联清理协调器，retryTopic 为空时不投递重试
func NewCascadeCoordinator(
	repo domain.CartRepository,
	carts *CartCommandService,
	publisher domain.EventPublisher,
	recorder Recorder,
	retryTopic string,
) *CascadeCoordinator {
	if recorder == nil {
		recorder = nopRecorder{}
	}
	return &CascadeCoordinator{
		repo:       repo,
		carts:      carts,
		publisher:  publisher,
		recorder:   recorder,
		retryTopic: retryTopic,
		now:        time.Now,
	}
}

// OnUserDeleted 删除该用户拥有的全部购物车
func (c *CascadeCoordinator) OnUserDeleted(ctx context.Context, userID primitive.ObjectID) error {
	err := c.Rerun(ctx, domain.CascadeUserDeleted, userID)
	if err != nil {
		c.ScheduleRetry(ctx, domain.CascadeUserDeleted, userID, 1, err)
	}
	return err
}

// OnProductDeleted 从包含该商品的每个购物车中移除对应行项目
func (c *CascadeCoordinator) OnProductDeleted(ctx context.Context, productID primitive.ObjectID) error {
	err := c.Rerun(ctx, domain.CascadeProductDeleted, productID)
	if err != nil {
		c.ScheduleRetry(ctx, domain.CascadeProductDeleted, productID, 1, err)
	}
	return err
}

// Rerun 执行一次完整的级联，不投递重试；两种级联都是幂等的
func (c *CascadeCoordinator) Rerun(ctx context.Context, kind domain.CascadeKind, entityID primitive.ObjectID) error {
	switch kind {
	case domain.CascadeUserDeleted:
		return c.sweep(ctx, kind, c.repo.FindIDsByOwner(ctx, entityID), func(cartID primitive.ObjectID) error {
			return c.deleteCart(ctx, cartID)
		})
	case domain.CascadeProductDeleted:
		return c.sweep(ctx, kind, c.repo.FindIDsContainingProduct(ctx, entityID), func(cartID primitive.ObjectID) error {
			return c.dropProduct(ctx, cartID, entityID)
		})
	default:
		return fmt.Errorf("unknown cascade kind %q", kind)
	}
}

// ScheduleRetry 投递级联重试消息
func (c *CascadeCoordinator) ScheduleRetry(ctx context.Context, kind domain.CascadeKind, entityID primitive.ObjectID, attempt int, cause error) {
	if c.retryTopic == "" {
		return
	}
	msg := domain.CascadeRetry{
		Kind:      kind,
		EntityID:  entityID.Hex(),
		Attempt:   attempt,
		Timestamp: c.now(),
	}
	if cause != nil {
		msg.LastError = cause.Error()
	}
	if err := c.publisher.Publish(ctx, c.retryTopic, entityID.Hex(), msg); err != nil {
		logger.Error(ctx, "Failed to schedule cascade retry",
			"kind", kind,
			"entity_id", entityID.Hex(),
			"attempt", attempt,
			"error", err,
		)
	}
}

func (c *CascadeCoordinator) sweep(
	ctx context.Context,
	kind domain.CascadeKind,
	ids iter.Seq2[primitive.ObjectID, error],
	apply func(primitive.ObjectID) error,
) error {
	var errs []error
	for cartID, err := range ids {
		if err != nil {
			// 游标失败后无法继续扫描
			logger.Error(ctx, "Cascade scan failed", "kind", kind, "error", err)
			errs = append(errs, fmt.Errorf("scan carts: %w", err))
			break
		}
		err := apply(cartID)
		c.recorder.RecordCascade(string(kind), err)
		if err != nil {
			logger.Error(ctx, "Cascade cart cleanup failed", "kind", kind, "cart_id", cartID.Hex(), "error", err)
			errs = append(errs, fmt.Errorf("cart %s: %w", cartID.Hex(), err))
		}
	}
	return errors.Join(errs...)
}

func (c *CascadeCoordinator) deleteCart(ctx context.Context, cartID primitive.ObjectID) error {
	err := c.repo.Delete(ctx, cartID)
	if errors.Is(err, domain.ErrCartNotFound) {
		return nil
	}
	if err != nil {
		return err
	}
	c.carts.publish(ctx, domain.TopicCartDeleted, cartID, domain.CartDeletedEvent{
		CartID:    cartID.Hex(),
		Reason:    string(domain.CascadeUserDeleted),
		Timestamp: c.now(),
	})
	return nil
}

func (c *CascadeCoordinator) dropProduct(ctx context.Context, cartID, productID primitive.ObjectID) error {
	_, err := c.carts.mutate(ctx, "cascade_remove", cartID, func(_ context.Context, cart *domain.Cart) error {
		if !cart.RemoveProduct(productID) {
			return errUnchanged
		}
		return nil
	})
	if errors.Is(err, errUnchanged) || errors.Is(err, domain.ErrCartNotFound) {
		return nil
	}
	return err
}
