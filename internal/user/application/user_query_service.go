package application

import (
	"context"
	"fmt"

	"github.com/wyfcoding/ecommerce/internal/user/domain"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// UserQueryService 用户查询服务
type UserQueryService struct {
	repo        domain.UserRepository
	maxPageSize int64
}

// NewUserQueryService 创建用户查询服务实例
func NewUserQueryService(repo domain.UserRepository, maxPageSize int64) *UserQueryService {
	return &UserQueryService{repo: repo, maxPageSize: maxPageSize}
}

// GetUser 根据 ID 获取用户
func (s *UserQueryService) GetUser(ctx context.Context, id primitive.ObjectID) (*domain.User, error) {
	return s.repo.Get(ctx, id)
}

// ListUsers 分页列出用户，limit 为 0 时取单页上限
func (s *UserQueryService) ListUsers(ctx context.Context, skip, limit int64) ([]*domain.User, error) {
	if skip < 0 || limit < 0 {
		return nil, domain.ErrInvalidPage
	}
	if limit > s.maxPageSize {
		return nil, fmt.Errorf("%w: the number of registers in a page cannot exceed %d", domain.ErrPageTooLarge, s.maxPageSize)
	}
	if limit == 0 {
		limit = s.maxPageSize
	}
	return s.repo.List(ctx, skip, limit)
}
