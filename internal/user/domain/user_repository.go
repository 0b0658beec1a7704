package domain

import (
	"context"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// UserRepository 用户仓储
type UserRepository interface {
	Create(ctx context.Context, user *User) error
	Get(ctx context.Context, id primitive.ObjectID) (*User, error)
	List(ctx context.Context, skip, limit int64) ([]*User, error)
	// Replace 覆盖用户名、邮箱与密码摘要
	Replace(ctx context.Context, user *User) error
	UpdatePassword(ctx context.Context, id primitive.ObjectID, passwordHash string) error
	Delete(ctx context.Context, id primitive.ObjectID) error
	Exists(ctx context.Context, id primitive.ObjectID) (bool, error)
}

// EventPublisher 领域事件发布者
type EventPublisher interface {
	Publish(ctx context.Context, topic string, key string, event any) error
}
