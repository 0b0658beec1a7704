package domain

import (
	"context"
	"time"
)

// 事件主题
const (
	TopicCartCreated      = "cart.created"
	TopicCartItemsAdded   = "cart.items.added"
	TopicCartItemsRemoved = "cart.items.removed"
	TopicCartCleared      = "cart.cleared"
	TopicCartDeleted      = "cart.deleted"
)

// EventPublisher 领域事件发布者
type EventPublisher interface {
	Publish(ctx context.Context, topic string, key string, event any) error
}

// CartCreatedEvent 购物车创建事件
type CartCreatedEvent struct {
	CartID    string    `json:"cart_id"`
	UserID    string    `json:"user_id"`
	Timestamp time.Time `json:"timestamp"`
}

// CartItemsChangedEvent 加购/减购事件，Items 为变更后的完整行项目
type CartItemsChangedEvent struct {
	CartID    string     `json:"cart_id"`
	UserID    string     `json:"user_id"`
	Requested []LineItem `json:"requested"`
	Items     []LineItem `json:"items"`
	Version   int64      `json:"version"`
	Timestamp time.Time  `json:"timestamp"`
}

// CartClearedEvent 购物车清空事件
type CartClearedEvent struct {
	CartID    string    `json:"cart_id"`
	UserID    string    `json:"user_id"`
	Timestamp time.Time `json:"timestamp"`
}

// CartDeletedEvent 购物车删除事件，Reason 区分显式删除与级联删除
type CartDeletedEvent struct {
	CartID    string    `json:"cart_id"`
	Reason    string    `json:"reason"`
	Timestamp time.Time `json:"timestamp"`
}

// CascadeKind 级联清理类型
type CascadeKind string

const (
	CascadeUserDeleted    CascadeKind = "user_deleted"
	CascadeProductDeleted CascadeKind = "product_deleted"
)

// CascadeRetry 级联清理重试消息，重放整个级联（级联是幂等的）
type CascadeRetry struct {
	Kind      CascadeKind `json:"kind"`
	EntityID  string      `json:"entity_id"`
	Attempt   int         `json:"attempt"`
	LastError string      `json:"last_error,omitempty"`
	Timestamp time.Time   `json:"timestamp"`
}
