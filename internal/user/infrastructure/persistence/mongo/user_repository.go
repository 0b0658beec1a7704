package mongo

import (
	"context"
	"errors"
	"fmt"

	"github.com/wyfcoding/ecommerce/internal/user/domain"
	"github.com/wyfcoding/ecommerce/pkg/docstore"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// Collection 用户集合名
const Collection = "users_data"

type userDocument struct {
	ID       primitive.ObjectID `bson:"_id,omitempty"`
	Username string             `bson:"username"`
	Email    string             `bson:"email"`
	Password string             `bson:"password"`
}

func (d userDocument) toDomain() *domain.User {
	return &domain.User{ID: d.ID, Username: d.Username, Email: d.Email, PasswordHash: d.Password}
}

// UserRepository 用户仓储的文档存储实现，同时作为购物车的属主目录
type UserRepository struct {
	store *docstore.Gateway
}

var _ domain.UserRepository = (*UserRepository)(nil)

// NewUserRepository 创建用户仓储
func NewUserRepository(store *docstore.Gateway) *UserRepository {
	return &UserRepository{store: store}
}

func (r *UserRepository) Create(ctx context.Context, user *domain.User) error {
	id, err := r.store.Create(ctx, Collection, userDocument{
		Username: user.Username,
		Email:    user.Email,
		Password: user.PasswordHash,
	})
	if err != nil {
		return err
	}
	user.ID = id
	return nil
}

func (r *UserRepository) Get(ctx context.Context, id primitive.ObjectID) (*domain.User, error) {
	var doc userDocument
	if err := r.store.Get(ctx, Collection, id, &doc); err != nil {
		return nil, mapErr(err)
	}
	return doc.toDomain(), nil
}

func (r *UserRepository) List(ctx context.Context, skip, limit int64) ([]*domain.User, error) {
	opts := options.Find().SetSkip(skip).SetLimit(limit)
	users := make([]*domain.User, 0, limit)
	for raw, err := range r.store.FindMany(ctx, Collection, bson.M{}, opts) {
		if err != nil {
			return nil, err
		}
		var doc userDocument
		if err := bson.Unmarshal(raw, &doc); err != nil {
			return nil, fmt.Errorf("decode user: %w", err)
		}
		users = append(users, doc.toDomain())
	}
	return users, nil
}

func (r *UserRepository) Replace(ctx context.Context, user *domain.User) error {
	return mapErr(r.store.Update(ctx, Collection, user.ID, bson.M{
		"username": user.Username,
		"email":    user.Email,
		"password": user.PasswordHash,
	}))
}

func (r *UserRepository) UpdatePassword(ctx context.Context, id primitive.ObjectID, passwordHash string) error {
	return mapErr(r.store.Update(ctx, Collection, id, bson.M{"password": passwordHash}))
}

func (r *UserRepository) Delete(ctx context.Context, id primitive.ObjectID) error {
	return mapErr(r.store.Delete(ctx, Collection, id))
}

// Exists 仅读取 _id 判断用户是否存在
func (r *UserRepository) Exists(ctx context.Context, id primitive.ObjectID) (bool, error) {
	var doc struct {
		ID primitive.ObjectID `bson:"_id"`
	}
	err := r.store.Get(ctx, Collection, id, &doc)
	switch {
	case errors.Is(err, docstore.ErrNotFound):
		return false, nil
	case err != nil:
		return false, err
	}
	return true, nil
}

func mapErr(err error) error {
	if errors.Is(err, docstore.ErrNotFound) {
		return domain.ErrUserNotFound
	}
	return err
}
