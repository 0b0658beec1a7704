package domain

import "time"

// 事件主题
const (
	TopicUserCreated         = "user.created"
	TopicUserUpdated         = "user.updated"
	TopicUserPasswordChanged = "user.password_changed"
	TopicUserDeleted         = "user.deleted"
)

// UserCreatedEvent 用户创建事件，携带同时创建的购物车
type UserCreatedEvent struct {
	UserID         string    `json:"user_id"`
	Username       string    `json:"username"`
	Email          string    `json:"email"`
	ShoppingCartID string    `json:"shopping_cart_id"`
	CreatedAt      time.Time `json:"created_at"`
}

// UserUpdatedEvent 用户更新事件
type UserUpdatedEvent struct {
	UserID    string    `json:"user_id"`
	Username  string    `json:"username"`
	Email     string    `json:"email"`
	UpdatedAt time.Time `json:"updated_at"`
}

// UserPasswordChangedEvent 用户密码变更事件
type UserPasswordChangedEvent struct {
	UserID    string    `json:"user_id"`
	ChangedAt time.Time `json:"changed_at"`
}

// UserDeletedEvent 用户删除事件
type UserDeletedEvent struct {
	UserID    string    `json:"user_id"`
	DeletedAt time.Time `json:"deleted_at"`
}
