package domain

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// LineItem 购物车行项目，只作为购物车文档的内嵌元素存在
type LineItem struct {
	ProductID primitive.ObjectID `bson:"product_id" json:"product_id"`
	Quantity  int                `bson:"quantity" json:"quantity"`
}

// Cart 购物车聚合
// 不变式：同一商品至多一个行项目；行项目数量恒为正
type Cart struct {
	ID        primitive.ObjectID `bson:"_id,omitempty"`
	UserID    primitive.ObjectID `bson:"user_id"`
	Items     []LineItem         `bson:"products"`
	Version   int64              `bson:"version"`
	CreatedAt time.Time          `bson:"created_at"`
	UpdatedAt time.Time          `bson:"updated_at"`
}

// NewCart 为用户创建一个空购物车
func NewCart(userID primitive.ObjectID, now time.Time) *Cart {
	return &Cart{
		UserID:    userID,
		Items:     []LineItem{},
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// AddItems 按请求批量加购，全部校验通过才替换行项目
func (c *Cart) AddItems(requested []LineItem, stockOf StockFunc) error {
	items, err := AddItems(c.Items, requested, stockOf)
	if err != nil {
		return err
	}
	c.Items = items
	return nil
}

// RemoveItems 按请求批量减购，全部校验通过才替换行项目
func (c *Cart) RemoveItems(requested []LineItem) error {
	items, err := RemoveItems(c.Items, requested)
	if err != nil {
		return err
	}
	c.Items = items
	return nil
}

// RemoveProduct 移除某商品的行项目，返回是否有变化
func (c *Cart) RemoveProduct(productID primitive.ObjectID) bool {
	items, removed := WithoutProduct(c.Items, productID)
	if removed {
		c.Items = items
	}
	return removed
}

// Clear 清空购物车
func (c *Cart) Clear() {
	c.Items = []LineItem{}
}

// QuantityOf 返回某商品在购物车中的数量，不存在为 0
func (c *Cart) QuantityOf(productID primitive.ObjectID) int {
	if i := indexOf(c.Items, productID); i >= 0 {
		return c.Items[i].Quantity
	}
	return 0
}
