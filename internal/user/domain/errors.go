package domain

import "errors"

var (
	// ErrUserNotFound 用户不存在
	ErrUserNotFound = errors.New("user not found")
	// ErrInvalidUser 用户字段不合法
	ErrInvalidUser = errors.New("invalid user")
	// ErrPageTooLarge 单页记录数超过上限
	ErrPageTooLarge = errors.New("page size exceeds limit")
	// ErrInvalidPage 分页参数为负
	ErrInvalidPage = errors.New("skip and limit must not be negative")
)
