package application

import (
	"context"
	"fmt"

	"github.com/wyfcoding/ecommerce/internal/catalog/domain"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// CatalogQueryService 商品目录查询服务
type CatalogQueryService struct {
	repo        domain.ProductRepository
	maxPageSize int64
}

// NewCatalogQueryService 创建商品目录查询服务实例
func NewCatalogQueryService(repo domain.ProductRepository, maxPageSize int64) *CatalogQueryService {
	return &CatalogQueryService{repo: repo, maxPageSize: maxPageSize}
}

// GetProduct 根据 ID 获取商品
func (s *CatalogQueryService) GetProduct(ctx context.Context, id primitive.ObjectID) (*domain.Product, error) {
	return s.repo.Get(ctx, id)
}

// ListProducts 分页列出商品，limit 为 0 时取单页上限
func (s *CatalogQueryService) ListProducts(ctx context.Context, filter domain.ListFilter) ([]*domain.Product, error) {
	if filter.Skip < 0 || filter.Limit < 0 {
		return nil, domain.ErrInvalidPage
	}
	if filter.Limit > s.maxPageSize {
		return nil, fmt.Errorf("%w: the number of registers in a page cannot exceed %d", domain.ErrPageTooLarge, s.maxPageSize)
	}
	if filter.Limit == 0 {
		filter.Limit = s.maxPageSize
	}
	if filter.Theme != "" && !filter.Theme.Valid() {
		return nil, fmt.Errorf("%w: unknown theme %q", domain.ErrInvalidProduct, filter.Theme)
	}
	if filter.SortBy != "" && !filter.SortBy.Valid() {
		return nil, fmt.Errorf("%w: cannot sort by %q", domain.ErrInvalidProduct, filter.SortBy)
	}
	return s.repo.List(ctx, filter)
}
