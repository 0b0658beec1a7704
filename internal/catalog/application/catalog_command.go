package application

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
	"github.com/wyfcoding/ecommerce/internal/catalog/domain"
	"github.com/wyfcoding/ecommerce/pkg/logger"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// ProductCascade 商品删除后的购物车清理
type ProductCascade interface {
	OnProductDeleted(ctx context.Context, productID primitive.ObjectID) error
}

// CreateProductCommand 创建商品命令
type CreateProductCommand struct {
	Name     string
	Theme    domain.Theme
	Price    decimal.Decimal
	Quantity int
}

// ReplaceProductCommand 全量更新商品命令
type ReplaceProductCommand struct {
	ID       primitive.ObjectID
	Name     string
	Theme    domain.Theme
	Price    decimal.Decimal
	Quantity int
}

// UpdateStockCommand 更新库存命令
type UpdateStockCommand struct {
	ID       primitive.ObjectID
	Quantity int
}

// CatalogCommandService 商品目录命令服务
type CatalogCommandService struct {
	repo      domain.ProductRepository
	publisher domain.EventPublisher
	cascade   ProductCascade
}

// NewCatalogCommandService 创建商品目录命令服务实例
func NewCatalogCommandService(
	repo domain.ProductRepository,
	publisher domain.EventPublisher,
	cascade ProductCascade,
) *CatalogCommandService {
	return &CatalogCommandService{
		repo:      repo,
		publisher: publisher,
		cascade:   cascade,
	}
}

// CreateProduct 处理创建商品
func (s *CatalogCommandService) CreateProduct(ctx context.Context, cmd CreateProductCommand) (primitive.ObjectID, error) {
	product := &domain.Product{
		Name:     cmd.Name,
		Theme:    cmd.Theme,
		Price:    cmd.Price,
		Quantity: cmd.Quantity,
	}
	if err := product.Validate(); err != nil {
		return primitive.NilObjectID, err
	}
	if err := s.repo.Create(ctx, product); err != nil {
		return primitive.NilObjectID, err
	}

	s.publish(ctx, domain.TopicProductCreated, product.ID, domain.ProductCreatedEvent{
		ProductID: product.ID.Hex(),
		Name:      product.Name,
		Theme:     product.Theme,
		Price:     product.Price,
		Quantity:  product.Quantity,
		Timestamp: time.Now(),
	})
	return product.ID, nil
}

// ReplaceProduct 全量更新商品；库存降低时不会重新校验已有购物车
func (s *CatalogCommandService) ReplaceProduct(ctx context.Context, cmd ReplaceProductCommand) error {
	product := &domain.Product{
		ID:       cmd.ID,
		Name:     cmd.Name,
		Theme:    cmd.Theme,
		Price:    cmd.Price,
		Quantity: cmd.Quantity,
	}
	if err := product.Validate(); err != nil {
		return err
	}
	if err := s.repo.Replace(ctx, product); err != nil {
		return err
	}

	s.publish(ctx, domain.TopicProductUpdated, product.ID, domain.ProductUpdatedEvent{
		ProductID: product.ID.Hex(),
		Name:      product.Name,
		Theme:     product.Theme,
		Price:     product.Price,
		Quantity:  product.Quantity,
		Timestamp: time.Now(),
	})
	return nil
}

// UpdateStock 更新库存
func (s *CatalogCommandService) UpdateStock(ctx context.Context, cmd UpdateStockCommand) error {
	if cmd.Quantity < 0 {
		return domain.ErrInvalidProduct
	}
	product, err := s.repo.Get(ctx, cmd.ID)
	if err != nil {
		return err
	}
	if err := s.repo.UpdateStock(ctx, cmd.ID, cmd.Quantity); err != nil {
		return err
	}

	if product.Quantity != cmd.Quantity {
		s.publish(ctx, domain.TopicProductStockChanged, cmd.ID, domain.ProductStockChangedEvent{
			ProductID: cmd.ID.Hex(),
			OldStock:  product.Quantity,
			NewStock:  cmd.Quantity,
			Timestamp: time.Now(),
		})
	}
	return nil
}

// DeleteProduct 删除商品并清理引用它的购物车
// 级联失败只记录日志，由级联重试消息继续处理
func (s *CatalogCommandService) DeleteProduct(ctx context.Context, id primitive.ObjectID) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}

	s.publish(ctx, domain.TopicProductDeleted, id, domain.ProductDeletedEvent{
		ProductID: id.Hex(),
		Timestamp: time.Now(),
	})

	if err := s.cascade.OnProductDeleted(ctx, id); err != nil {
		logger.Error(ctx, "Product cascade finished with failures", "product_id", id.Hex(), "error", err)
	}
	return nil
}

func (s *CatalogCommandService) publish(ctx context.Context, topic string, id primitive.ObjectID, event any) {
	if err := s.publisher.Publish(ctx, topic, id.Hex(), event); err != nil {
		logger.Error(ctx, "Failed to publish product event", "topic", topic, "product_id", id.Hex(), "error", err)
	}
}
