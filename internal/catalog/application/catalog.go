package application

import (
	"context"

	"github.com/wyfcoding/ecommerce/internal/catalog/domain"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// CatalogApplicationService 商品目录服务门面
type CatalogApplicationService struct {
	commandService *CatalogCommandService
	queryService   *CatalogQueryService
}

// NewCatalogApplicationService 创建商品目录服务门面
func NewCatalogApplicationService(commandService *CatalogCommandService, queryService *CatalogQueryService) *CatalogApplicationService {
	return &CatalogApplicationService{
		commandService: commandService,
		queryService:   queryService,
	}
}

// CreateProduct 创建商品
func (s *CatalogApplicationService) CreateProduct(ctx context.Context, cmd CreateProductCommand) (primitive.ObjectID, error) {
	return s.commandService.CreateProduct(ctx, cmd)
}

// ReplaceProduct 全量更新商品
func (s *CatalogApplicationService) ReplaceProduct(ctx context.Context, cmd ReplaceProductCommand) error {
	return s.commandService.ReplaceProduct(ctx, cmd)
}

// UpdateStock 更新库存
func (s *CatalogApplicationService) UpdateStock(ctx context.Context, cmd UpdateStockCommand) error {
	return s.commandService.UpdateStock(ctx, cmd)
}

// DeleteProduct 删除商品
func (s *CatalogApplicationService) DeleteProduct(ctx context.Context, id primitive.ObjectID) error {
	return s.commandService.DeleteProduct(ctx, id)
}

// GetProduct 获取商品
func (s *CatalogApplicationService) GetProduct(ctx context.Context, id primitive.ObjectID) (*domain.Product, error) {
	return s.queryService.GetProduct(ctx, id)
}

// ListProducts 分页列出商品
func (s *CatalogApplicationService) ListProducts(ctx context.Context, filter domain.ListFilter) ([]*domain.Product, error) {
	return s.queryService.ListProducts(ctx, filter)
}
