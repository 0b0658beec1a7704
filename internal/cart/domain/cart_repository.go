package domain

import (
	"context"
	"iter"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// CartRepository 购物车文档仓储
type CartRepository interface {
	// Get 读取购物车，不存在返回 ErrCartNotFound
	Get(ctx context.Context, id primitive.ObjectID) (*Cart, error)
	// Create 插入购物车并回填 ID
	Create(ctx context.Context, cart *Cart) error
	// Save 以 cart.Version 为条件写回行项目并推进版本号；
	// 版本已变化返回 ErrVersionConflict，文档已删除返回 ErrCartNotFound
	Save(ctx context.Context, cart *Cart) error
	// Delete 删除购物车，不存在返回 ErrCartNotFound
	Delete(ctx context.Context, id primitive.ObjectID) error
	// FindIDsByOwner 惰性枚举某用户的购物车
	FindIDsByOwner(ctx context.Context, userID primitive.ObjectID) iter.Seq2[primitive.ObjectID, error]
	// FindIDsContainingProduct 惰性枚举包含某商品的购物车
	FindIDsContainingProduct(ctx context.Context, productID primitive.ObjectID) iter.Seq2[primitive.ObjectID, error]
}

// StockReader 商品库存只读访问
type StockReader interface {
	Stock(ctx context.Context, productID primitive.ObjectID) (quantity int, found bool, err error)
}

// OwnerDirectory 用户存在性查询
type OwnerDirectory interface {
	Exists(ctx context.Context, userID primitive.ObjectID) (bool, error)
}
