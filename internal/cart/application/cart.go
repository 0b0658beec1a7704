package application

import (
	"context"

	"github.com/wyfcoding/ecommerce/internal/cart/domain"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// CartApplicationService 购物车服务门面，整合命令服务、查询服务与级联清理
type CartApplicationService struct {
	commandService *CartCommandService
	queryService   *CartQueryService
	cascade        *CascadeCoordinator
}

// NewCartApplicationService 创建购物车服务门面实例
func NewCartApplicationService(
	commandService *CartCommandService,
	queryService *CartQueryService,
	cascade *CascadeCoordinator,
) *CartApplicationService {
	return &CartApplicationService{
		commandService: commandService,
		queryService:   queryService,
		cascade:        cascade,
	}
}

// CreateCart 为用户创建空购物车
func (s *CartApplicationService) CreateCart(ctx context.Context, userID primitive.ObjectID) (*domain.Cart, error) {
	return s.commandService.CreateCart(ctx, CreateCartCommand{UserID: userID})
}

// GetCart 获取购物车
func (s *CartApplicationService) GetCart(ctx context.Context, id primitive.ObjectID) (*domain.Cart, error) {
	return s.queryService.GetCart(ctx, id)
}

// AddItems 批量加购
func (s *CartApplicationService) AddItems(ctx context.Context, id primitive.ObjectID, items []domain.LineItem) (*domain.Cart, error) {
	return s.commandService.AddItems(ctx, AddItemsCommand{CartID: id, Items: items})
}

// RemoveItems 批量减购
func (s *CartApplicationService) RemoveItems(ctx context.Context, id primitive.ObjectID, items []domain.LineItem) (*domain.Cart, error) {
	return s.commandService.RemoveItems(ctx, RemoveItemsCommand{CartID: id, Items: items})
}

// ClearCart 清空购物车
func (s *CartApplicationService) ClearCart(ctx context.Context, id primitive.ObjectID) (*domain.Cart, error) {
	return s.commandService.ClearCart(ctx, ClearCartCommand{CartID: id})
}

// DeleteCart 删除购物车
func (s *CartApplicationService) DeleteCart(ctx context.Context, id primitive.ObjectID) error {
	return s.commandService.DeleteCart(ctx, DeleteCartCommand{CartID: id})
}

// CreateCartFor 实现用户上下文的购物车开通接口
func (s *CartApplicationService) CreateCartFor(ctx context.Context, userID primitive.ObjectID) (primitive.ObjectID, error) {
	cart, err := s.CreateCart(ctx, userID)
	if err != nil {
		return primitive.NilObjectID, err
	}
	return cart.ID, nil
}

// OnUserDeleted 用户删除后的级联清理
func (s *CartApplicationService) OnUserDeleted(ctx context.Context, userID primitive.ObjectID) error {
	return s.cascade.OnUserDeleted(ctx, userID)
}

// OnProductDeleted 商品删除后的级联清理
func (s *CartApplicationService) OnProductDeleted(ctx context.Context, productID primitive.ObjectID) error {
	return s.cascade.OnProductDeleted(ctx, productID)
}
