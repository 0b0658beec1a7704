package application

import (
	"context"

	"github.com/wyfcoding/ecommerce/internal/user/domain"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// UserService 用户应用服务，作为门面整合命令和查询服务
type UserService struct {
	commandService *UserCommandService
	queryService   *UserQueryService
}

// NewUserService 创建用户应用服务
func NewUserService(commandService *UserCommandService, queryService *UserQueryService) *UserService {
	return &UserService{
		commandService: commandService,
		queryService:   queryService,
	}
}

// CreateUser 创建用户及其购物车（命令操作）
func (s *UserService) CreateUser(ctx context.Context, cmd CreateUserCommand) (*CreateUserResult, error) {
	return s.commandService.CreateUser(ctx, cmd)
}

// ReplaceUser 全量更新用户（命令操作）
func (s *UserService) ReplaceUser(ctx context.Context, cmd ReplaceUserCommand) error {
	return s.commandService.ReplaceUser(ctx, cmd)
}

// ChangePassword 修改密码（命令操作）
func (s *UserService) ChangePassword(ctx context.Context, cmd ChangePasswordCommand) error {
	return s.commandService.ChangePassword(ctx, cmd)
}

// DeleteUser 删除用户（命令操作）
func (s *UserService) DeleteUser(ctx context.Context, id primitive.ObjectID) error {
	return s.commandService.DeleteUser(ctx, id)
}

// GetUser 获取用户（查询操作）
func (s *UserService) GetUser(ctx context.Context, id primitive.ObjectID) (*domain.User, error) {
	return s.queryService.GetUser(ctx, id)
}

// ListUsers 分页列出用户（查询操作）
func (s *UserService) ListUsers(ctx context.Context, skip, limit int64) ([]*domain.User, error) {
	return s.queryService.ListUsers(ctx, skip, limit)
}
