package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// 事件主题
const (
	TopicProductCreated      = "product.created"
	TopicProductUpdated      = "product.updated"
	TopicProductStockChanged = "product.stock.changed"
	TopicProductDeleted      = "product.deleted"
)

// ProductCreatedEvent 商品创建事件
type ProductCreatedEvent struct {
	ProductID string          `json:"product_id"`
	Name      string          `json:"name"`
	Theme     Theme           `json:"theme"`
	Price     decimal.Decimal `json:"price"`
	Quantity  int             `json:"quantity"`
	Timestamp time.Time       `json:"timestamp"`
}

// ProductUpdatedEvent 商品更新事件
type ProductUpdatedEvent struct {
	ProductID string          `json:"product_id"`
	Name      string          `json:"name"`
	Theme     Theme           `json:"theme"`
	Price     decimal.Decimal `json:"price"`
	Quantity  int             `json:"quantity"`
	Timestamp time.Time       `json:"timestamp"`
}

// ProductStockChangedEvent 商品库存变更事件
type ProductStockChangedEvent struct {
	ProductID string    `json:"product_id"`
	OldStock  int       `json:"old_stock"`
	NewStock  int       `json:"new_stock"`
	Timestamp time.Time `json:"timestamp"`
}

// ProductDeletedEvent 商品删除事件
type ProductDeletedEvent struct {
	ProductID string    `json:"product_id"`
	Timestamp time.Time `json:"timestamp"`
}
