package application

import (
	"context"
	"time"

	"github.com/wyfcoding/ecommerce/internal/user/domain"
	"github.com/wyfcoding/ecommerce/pkg/logger"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// CartProvisioner 为新用户创建空购物车
type CartProvisioner interface {
	CreateCartFor(ctx context.Context, userID primitive.ObjectID) (primitive.ObjectID, error)
}

// UserCascade 用户删除后的购物车清理
type UserCascade interface {
	OnUserDeleted(ctx context.Context, userID primitive.ObjectID) error
}

// CreateUserCommand 创建用户命令
type CreateUserCommand struct {
	Username string
	Email    string
	Password string
}

// CreateUserResult 新用户及其购物车
type CreateUserResult struct {
	UserID primitive.ObjectID
	CartID primitive.ObjectID
}

// ReplaceUserCommand 全量更新用户命令
type ReplaceUserCommand struct {
	ID       primitive.ObjectID
	Username string
	Email    string
	Password string
}

// ChangePasswordCommand 修改密码命令
type ChangePasswordCommand struct {
	ID       primitive.ObjectID
	Password string
}

// UserCommandService 用户命令服务
type UserCommandService struct {
	repo      domain.UserRepository
	carts     CartProvisioner
	cascade   UserCascade
	publisher domain.EventPublisher
}

// NewUserCommandService 创建用户命令服务实例
func NewUserCommandService(
	repo domain.UserRepository,
	carts CartProvisioner,
	cascade UserCascade,
	publisher domain.EventPublisher,
) *UserCommandService {
	return &UserCommandService{
		repo:      repo,
		carts:     carts,
		cascade:   cascade,
		publisher: publisher,
	}
}

// CreateUser 创建用户并同时创建空购物车
// 购物车创建失败时删除刚写入的用户，两者要么都存在要么都不存在
func (s *UserCommandService) CreateUser(ctx context.Context, cmd CreateUserCommand) (*CreateUserResult, error) {
	user, err := domain.NewUser(cmd.Username, cmd.Email, cmd.Password)
	if err != nil {
		return nil, err
	}
	if err := s.repo.Create(ctx, user); err != nil {
		return nil, err
	}

	cartID, err := s.carts.CreateCartFor(ctx, user.ID)
	if err != nil {
		if delErr := s.repo.Delete(ctx, user.ID); delErr != nil {
			logger.Error(ctx, "Failed to roll back user after cart creation failure",
				"user_id", user.ID.Hex(),
				"cart_error", err,
				"error", delErr,
			)
		}
		return nil, err
	}

	s.publish(ctx, domain.TopicUserCreated, user.ID, domain.UserCreatedEvent{
		UserID:         user.ID.Hex(),
		Username:       user.Username,
		Email:          user.Email,
		ShoppingCartID: cartID.Hex(),
		CreatedAt:      time.Now(),
	})
	return &CreateUserResult{UserID: user.ID, CartID: cartID}, nil
}

// ReplaceUser 全量更新用户，密码同样重新摘要
func (s *UserCommandService) ReplaceUser(ctx context.Context, cmd ReplaceUserCommand) error {
	user, err := domain.NewUser(cmd.Username, cmd.Email, cmd.Password)
	if err != nil {
		return err
	}
	user.ID = cmd.ID
	if err := s.repo.Replace(ctx, user); err != nil {
		return err
	}

	s.publish(ctx, domain.TopicUserUpdated, user.ID, domain.UserUpdatedEvent{
		UserID:    user.ID.Hex(),
		Username:  user.Username,
		Email:     user.Email,
		UpdatedAt: time.Now(),
	})
	return nil
}

// ChangePassword 修改用户密码
func (s *UserCommandService) ChangePassword(ctx context.Context, cmd ChangePasswordCommand) error {
	user := &domain.User{ID: cmd.ID}
	if err := user.SetPassword(cmd.Password); err != nil {
		return err
	}
	if err := s.repo.UpdatePassword(ctx, cmd.ID, user.PasswordHash); err != nil {
		return err
	}

	s.publish(ctx, domain.TopicUserPasswordChanged, cmd.ID, domain.UserPasswordChangedEvent{
		UserID:    cmd.ID.Hex(),
		ChangedAt: time.Now(),
	})
	return nil
}

// DeleteUser 删除用户，随后删除其拥有的购物车
// 级联失败不回滚用户删除，由级联重试消息继续处理
func (s *UserCommandService) DeleteUser(ctx context.Context, id primitive.ObjectID) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}

	s.publish(ctx, domain.TopicUserDeleted, id, domain.UserDeletedEvent{
		UserID:    id.Hex(),
		DeletedAt: time.Now(),
	})

	if err := s.cascade.OnUserDeleted(ctx, id); err != nil {
		logger.Error(ctx, "User cascade finished with failures", "user_id", id.Hex(), "error", err)
	}
	return nil
}

func (s *UserCommandService) publish(ctx context.Context, topic string, id primitive.ObjectID, event any) {
	if err := s.publisher.Publish(ctx, topic, id.Hex(), event); err != nil {
		logger.Error(ctx, "Failed to publish user event", "topic", topic, "user_id", id.Hex(), "error", err)
	}
}
