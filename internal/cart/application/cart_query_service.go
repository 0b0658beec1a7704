package application

import (
	"context"

	"github.com/wyfcoding/ecommerce/internal/cart/domain"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// CartQueryService 购物车查询服务
type CartQueryService struct {
	repo domain.CartRepository
}

// NewCartQueryService 创建购物车查询服务实例
func NewCartQueryService(repo domain.CartRepository) *CartQueryService {
	return &CartQueryService{repo: repo}
}

// GetCart 根据购物车 ID 获取购物车
func (s *CartQueryService) GetCart(ctx context.Context, id primitive.ObjectID) (*domain.Cart, error) {
	return s.repo.Get(ctx, id)
}
