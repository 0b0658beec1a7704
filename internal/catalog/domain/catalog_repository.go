package domain

import (
	"context"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// SortField 可排序字段
type SortField string

const (
	SortByID       SortField = "id"
	SortByName     SortField = "name"
	SortByTheme    SortField = "theme"
	SortByPrice    SortField = "price"
	SortByQuantity SortField = "quantity"
)

// Valid 是否为可排序字段
func (f SortField) Valid() bool {
	switch f {
	case SortByID, SortByName, SortByTheme, SortByPrice, SortByQuantity:
		return true
	}
	return false
}

// ListFilter 商品列表查询条件；Theme、SortBy 为零值表示不过滤、不排序
type ListFilter struct {
	Skip       int64
	Limit      int64
	Theme      Theme
	SortBy     SortField
	Descending bool
}

// ProductRepository 商品仓储
type ProductRepository interface {
	Create(ctx context.Context, product *Product) error
	Get(ctx context.Context, id primitive.ObjectID) (*Product, error)
	List(ctx context.Context, filter ListFilter) ([]*Product, error)
	// Replace 全量覆盖商品字段
	Replace(ctx context.Context, product *Product) error
	UpdateStock(ctx context.Context, id primitive.ObjectID, quantity int) error
	Delete(ctx context.Context, id primitive.ObjectID) error
}

// EventPublisher 领域事件发布者
type EventPublisher interface {
	Publish(ctx context.Context, topic string, key string, event any) error
}
