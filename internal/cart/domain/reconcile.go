package domain

import (
	"slices"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// StockFunc 查询商品当前库存；found 为 false 表示商品不存在
type StockFunc func(productID primitive.ObjectID) (quantity int, found bool)

// ValidateRequest 调用方层面的请求校验：商品 ID 非空、数量为正。空列表合法
func ValidateRequest(requested []LineItem) error {
	for _, r := range requested {
		if r.ProductID.IsZero() {
			return invalidRequest(ErrInvalidProductID, r.ProductID)
		}
		if r.Quantity <= 0 {
			return invalidRequest(ErrInvalidQuantity, r.ProductID)
		}
	}
	return nil
}

// AddItems 计算加购后的行项目列表
//
// 按请求顺序逐条处理：商品不存在或累计数量超过库存时整批失败，current 不被修改。
// 已有行项目保持相对顺序，新商品按请求顺序追加；同一商品多次出现时在工作列表上累加。
func AddItems(current, requested []LineItem, stockOf StockFunc) ([]LineItem, error) {
	working := slices.Clone(current)

	for _, r := range requested {
		stock, found := stockOf(r.ProductID)
		if !found {
			return nil, violation(ErrProductNotFound, r.ProductID)
		}

		i := indexOf(working, r.ProductID)
		existing := 0
		if i >= 0 {
			existing = working[i].Quantity
		}
		// 先比较再相加，避免大数量溢出为负数
		if r.Quantity > stock || r.Quantity > stock-existing {
			return nil, violation(ErrInsufficientStock, r.ProductID)
		}
		total := existing + r.Quantity

		if i >= 0 {
			working[i].Quantity = total
		} else {
			working = append(working, LineItem{ProductID: r.ProductID, Quantity: total})
		}
	}
	return working, nil
}

// RemoveItems 计算减购后的行项目列表
//
// 商品不在购物车或减少数量超过现有数量时整批失败。减到 0 的行项目被移除，
// 其余行项目保持相对顺序。不校验商品在目录中是否仍然存在。
func RemoveItems(current, requested []LineItem) ([]LineItem, error) {
	working := slices.Clone(current)

	for _, r := range requested {
		i := indexOf(working, r.ProductID)
		if i < 0 {
			return nil, violation(ErrProductNotInCart, r.ProductID)
		}
		if r.Quantity > working[i].Quantity {
			return nil, violation(ErrInsufficientQuantityInCart, r.ProductID)
		}
		working[i].Quantity -= r.Quantity
	}

	return slices.DeleteFunc(working, func(li LineItem) bool {
		return li.Quantity == 0
	}), nil
}

// WithoutProduct 移除某商品的第一个行项目
func WithoutProduct(current []LineItem, productID primitive.ObjectID) ([]LineItem, bool) {
	i := indexOf(current, productID)
	if i < 0 {
		return current, false
	}
	return slices.Delete(slices.Clone(current), i, i+1), true
}

func indexOf(items []LineItem, productID primitive.ObjectID) int {
	return slices.IndexFunc(items, func(li LineItem) bool {
		return li.ProductID == productID
	})
}
