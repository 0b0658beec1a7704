package domain

import "errors"

var (
	// ErrProductNotFound 商品不存在
	ErrProductNotFound = errors.New("product not found")
	// ErrInvalidProduct 商品字段不合法
	ErrInvalidProduct = errors.New("invalid product")
	// ErrPageTooLarge 单页记录数超过上限
	ErrPageTooLarge = errors.New("page size exceeds limit")
	// ErrInvalidPage 分页参数为负
	ErrInvalidPage = errors.New("skip and limit must not be negative")
)
