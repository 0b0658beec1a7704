package application

import (
	"context"
	"errors"
	"time"

	"github.com/cenkalti/backoff/v5"
	"github.com/wyfcoding/ecommerce/internal/cart/domain"
	"github.com/wyfcoding/ecommerce/pkg/logger"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Recorder 购物车相关指标的记录接口，由 metrics 实现
type Recorder interface {
	RecordCartMutation(op, result string)
	RecordSaveConflict()
	RecordCascade(kind string, err error)
}

type nopRecorder struct{}

func (nopRecorder) RecordCartMutation(string, string) {}
func (nopRecorder) RecordSaveConflict()               {}
func (nopRecorder) RecordCascade(string, error)       {}

// RetryConfig 乐观锁冲突的重试参数
type RetryConfig struct {
	MaxAttempts     uint
	InitialInterval time.Duration
}

// CreateCartCommand 创建购物车命令
type CreateCartCommand struct {
	UserID primitive.ObjectID
}

// AddItemsCommand 批量加购命令
type AddItemsCommand struct {
	CartID primitive.ObjectID
	Items  []domain.LineItem
}

// RemoveItemsCommand 批量减购命令
type RemoveItemsCommand struct {
	CartID primitive.ObjectID
	Items  []domain.LineItem
}

// ClearCartCommand 清空购物车命令
type ClearCartCommand struct {
	CartID primitive.ObjectID
}

// DeleteCartCommand 删除购物车命令
type DeleteCartCommand struct {
	CartID primitive.ObjectID
}

// CartCommandService 购物车命令服务
type CartCommandService struct {
	repo      domain.CartRepository
	stock     domain.StockReader
	owners    domain.OwnerDirectory
	publisher domain.EventPublisher
	recorder  Recorder
	retry     RetryConfig
	now       func() time.Time
}

// NewCartCommandService 创建购物车命令服务实例
func NewCartCommandService(
	repo domain.CartRepository,
	stock domain.StockReader,
	owners domain.OwnerDirectory,
	publisher domain.EventPublisher,
	recorder Recorder,
	retry RetryConfig,
) *CartCommandService {
	if recorder == nil {
		recorder = nopRecorder{}
	}
	if retry.MaxAttempts == 0 {
		retry.MaxAttempts = 1
	}
	return &CartCommandService{
		repo:      repo,
		stock:     stock,
		owners:    owners,
		publisher: publisher,
		recorder:  recorder,
		retry:     retry,
		now:       time.Now,
	}
}

// CreateCart 为已存在的用户创建空购物车
func (s *CartCommandService) CreateCart(ctx context.Context, cmd CreateCartCommand) (*domain.Cart, error) {
	ok, err := s.owners.Exists(ctx, cmd.UserID)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, domain.ErrOwnerNotFound
	}

	cart := domain.NewCart(cmd.UserID, s.now())
	if err := s.repo.Create(ctx, cart); err != nil {
		s.recorder.RecordCartMutation("create", "error")
		return nil, err
	}
	s.recorder.RecordCartMutation("create", "ok")

	s.publish(ctx, domain.TopicCartCreated, cart.ID, domain.CartCreatedEvent{
		CartID:    cart.ID.Hex(),
		UserID:    cart.UserID.Hex(),
		Timestamp: cart.CreatedAt,
	})
	return cart, nil
}

// AddItems 批量加购：读取购物车与库存快照，交给对账引擎计算，再以版本号条件写回
func (s *CartCommandService) AddItems(ctx context.Context, cmd AddItemsCommand) (*domain.Cart, error) {
	if err := domain.ValidateRequest(cmd.Items); err != nil {
		return nil, err
	}
	if len(cmd.Items) == 0 {
		return s.unchanged(ctx, "add_items", cmd.CartID)
	}

	cart, err := s.mutate(ctx, "add_items", cmd.CartID, func(ctx context.Context, cart *domain.Cart) error {
		stockOf, err := s.snapshotStock(ctx, cmd.Items)
		if err != nil {
			return err
		}
		return cart.AddItems(cmd.Items, stockOf)
	})
	if err != nil {
		return nil, err
	}

	s.publish(ctx, domain.TopicCartItemsAdded, cart.ID, itemsChanged(cart, cmd.Items, s.now()))
	return cart, nil
}

// RemoveItems 批量减购，不校验商品是否仍在目录中
func (s *CartCommandService) RemoveItems(ctx context.Context, cmd RemoveItemsCommand) (*domain.Cart, error) {
	if err := domain.ValidateRequest(cmd.Items); err != nil {
		return nil, err
	}
	if len(cmd.Items) == 0 {
		return s.unchanged(ctx, "remove_items", cmd.CartID)
	}

	cart, err := s.mutate(ctx, "remove_items", cmd.CartID, func(_ context.Context, cart *domain.Cart) error {
		return cart.RemoveItems(cmd.Items)
	})
	if err != nil {
		return nil, err
	}

	s.publish(ctx, domain.TopicCartItemsRemoved, cart.ID, itemsChanged(cart, cmd.Items, s.now()))
	return cart, nil
}

// ClearCart 清空购物车，对已空的购物车同样成功
func (s *CartCommandService) ClearCart(ctx context.Context, cmd ClearCartCommand) (*domain.Cart, error) {
	cart, err := s.mutate(ctx, "clear", cmd.CartID, func(_ context.Context, cart *domain.Cart) error {
		cart.Clear()
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.publish(ctx, domain.TopicCartCleared, cart.ID, domain.CartClearedEvent{
		CartID:    cart.ID.Hex(),
		UserID:    cart.UserID.Hex(),
		Timestamp: s.now(),
	})
	return cart, nil
}

// DeleteCart 删除购物车
func (s *CartCommandService) DeleteCart(ctx context.Context, cmd DeleteCartCommand) error {
	if err := s.repo.Delete(ctx, cmd.CartID); err != nil {
		s.recorder.RecordCartMutation("delete", outcome(err))
		return err
	}
	s.recorder.RecordCartMutation("delete", "ok")

	s.publish(ctx, domain.TopicCartDeleted, cmd.CartID, domain.CartDeletedEvent{
		CartID:    cmd.CartID.Hex(),
		Reason:    "explicit",
		Timestamp: s.now(),
	})
	return nil
}

// mutate 读-改-写循环：Save 返回版本冲突时按指数退避重新读取并重放 change，
// 其余错误（包括业务规则违例）立即返回
func (s *CartCommandService) mutate(
	ctx context.Context,
	op string,
	id primitive.ObjectID,
	change func(context.Context, *domain.Cart) error,
) (*domain.Cart, error) {
	b := backoff.NewExponentialBackOff()
	if s.retry.InitialInterval > 0 {
		b.InitialInterval = s.retry.InitialInterval
	}

	cart, err := backoff.Retry(ctx, func() (*domain.Cart, error) {
		cart, err := s.repo.Get(ctx, id)
		if err != nil {
			return nil, backoff.Permanent(err)
		}
		if err := change(ctx, cart); err != nil {
			return nil, backoff.Permanent(err)
		}
		if err := s.repo.Save(ctx, cart); err != nil {
			if errors.Is(err, domain.ErrVersionConflict) {
				s.recorder.RecordSaveConflict()
				logger.Debug(ctx, "Cart save conflict, retrying", "cart_id", id.Hex(), "op", op)
				return nil, err
			}
			return nil, backoff.Permanent(err)
		}
		return cart, nil
	}, backoff.WithBackOff(b), backoff.WithMaxTries(s.retry.MaxAttempts))

	s.recorder.RecordCartMutation(op, outcome(err))
	if err != nil {
		return nil, err
	}
	return cart, nil
}

// unchanged 空批次不写库也不发事件，只返回当前购物车
func (s *CartCommandService) unchanged(ctx context.Context, op string, id primitive.ObjectID) (*domain.Cart, error) {
	cart, err := s.repo.Get(ctx, id)
	if err != nil {
		s.recorder.RecordCartMutation(op, outcome(err))
		return nil, err
	}
	s.recorder.RecordCartMutation(op, "noop")
	return cart, nil
}

// snapshotStock 每个不同商品只查询一次库存，引擎在这份快照上计算
func (s *CartCommandService) snapshotStock(ctx context.Context, items []domain.LineItem) (domain.StockFunc, error) {
	type entry struct {
		quantity int
		found    bool
	}
	snapshot := make(map[primitive.ObjectID]entry, len(items))
	for _, li := range items {
		if _, seen := snapshot[li.ProductID]; seen {
			continue
		}
		q, found, err := s.stock.Stock(ctx, li.ProductID)
		if err != nil {
			return nil, err
		}
		snapshot[li.ProductID] = entry{quantity: q, found: found}
	}
	return func(id primitive.ObjectID) (int, bool) {
		e := snapshot[id]
		return e.quantity, e.found
	}, nil
}

// publish 发布领域事件，失败只记录日志，不影响主流程
func (s *CartCommandService) publish(ctx context.Context, topic string, cartID primitive.ObjectID, event any) {
	if err := s.publisher.Publish(ctx, topic, cartID.Hex(), event); err != nil {
		logger.Error(ctx, "Failed to publish cart event", "topic", topic, "cart_id", cartID.Hex(), "error", err)
	}
}

func itemsChanged(cart *domain.Cart, requested []domain.LineItem, now time.Time) domain.CartItemsChangedEvent {
	return domain.CartItemsChangedEvent{
		CartID:    cart.ID.Hex(),
		UserID:    cart.UserID.Hex(),
		Requested: requested,
		Items:     cart.Items,
		Version:   cart.Version,
		Timestamp: now,
	}
}

func outcome(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, errUnchanged):
		return "noop"
	case domain.IsRuleViolation(err):
		return "rejected"
	case errors.Is(err, domain.ErrCartNotFound):
		return "not_found"
	case errors.Is(err, domain.ErrVersionConflict):
		return "conflict"
	default:
		return "error"
	}
}
