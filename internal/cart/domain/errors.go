package domain

import (
	"errors"
	"fmt"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

var (
	// ErrCartNotFound 购物车不存在
	ErrCartNotFound = errors.New("shopping cart not found")
	// ErrOwnerNotFound 购物车所属用户不存在
	ErrOwnerNotFound = errors.New("user not found")
	// ErrVersionConflict 保存时版本号已被并发写入推进
	ErrVersionConflict = errors.New("shopping cart was modified concurrently")
	// ErrInvalidQuantity 请求数量必须为正整数
	ErrInvalidQuantity = errors.New("quantity must be a positive integer")
	// ErrInvalidProductID 请求中的商品 ID 为空值
	ErrInvalidProductID = errors.New("product id is empty")

	// 以下为对账引擎的业务规则违例，总是携带违例的商品 ID 返回

	ErrProductNotFound            = errors.New("product not found")
	ErrInsufficientStock          = errors.New("product doesn't have enough stock")
	ErrProductNotInCart           = errors.New("product isn't in shopping cart")
	ErrInsufficientQuantityInCart = errors.New("product has less units in cart")
)

// LineItemError 针对单个商品的业务规则违例
type LineItemError struct {
	Reason    error
	ProductID primitive.ObjectID
}

func (e *LineItemError) Error() string {
	return fmt.Sprintf("%s: product %s", e.Reason, e.ProductID.Hex())
}

func (e *LineItemError) Unwrap() error { return e.Reason }

func violation(reason error, productID primitive.ObjectID) error {
	return &LineItemError{Reason: reason, ProductID: productID}
}

// RequestError 调用方请求本身不合法，不属于业务规则违例
type RequestError struct {
	Reason    error
	ProductID primitive.ObjectID
}

func (e *RequestError) Error() string {
	return fmt.Sprintf("%s: product %s", e.Reason, e.ProductID.Hex())
}

func (e *RequestError) Unwrap() error { return e.Reason }

func invalidRequest(reason error, productID primitive.ObjectID) error {
	return &RequestError{Reason: reason, ProductID: productID}
}

// IsRuleViolation 判断是否为对账引擎的业务规则违例
func IsRuleViolation(err error) bool {
	var lie *LineItemError
	return errors.As(err, &lie)
}
