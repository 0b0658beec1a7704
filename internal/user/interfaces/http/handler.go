package http

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/wyfcoding/ecommerce/internal/user/application"
	"github.com/wyfcoding/ecommerce/internal/user/domain"
	"github.com/wyfcoding/ecommerce/pkg/docstore"
	"github.com/wyfcoding/ecommerce/pkg/response"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// UserService 处理器依赖的用户应用服务
type UserService interface {
	CreateUser(ctx context.Context, cmd application.CreateUserCommand) (*application.CreateUserResult, error)
	ReplaceUser(ctx context.Context, cmd application.ReplaceUserCommand) error
	ChangePassword(ctx context.Context, cmd application.ChangePasswordCommand) error
	DeleteUser(ctx context.Context, id primitive.ObjectID) error
	GetUser(ctx context.Context, id primitive.ObjectID) (*domain.User, error)
	ListUsers(ctx context.Context, skip, limit int64) ([]*domain.User, error)
}

// UserHandler 用户 HTTP 处理器
type UserHandler struct {
	app UserService
}

// NewUserHandler 创建用户 HTTP 处理器
func NewUserHandler(app UserService) *UserHandler {
	return &UserHandler{app: app}
}

// RegisterRoutes 注册路由
func (h *UserHandler) RegisterRoutes(router gin.IRouter) {
	api := router.Group("/api/users")
	{
		api.POST("/", h.CreateUser)
		api.GET("/", h.ListUsers)
		api.GET("/:id", h.GetUser)
		api.PUT("/:id", h.ReplaceUser)
		api.PATCH("/:id", h.ChangePassword)
		api.DELETE("/:id", h.DeleteUser)
	}
}

type userRequest struct {
	Username string `json:"username" binding:"required"`
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

type passwordRequest struct {
	Password string `json:"password" binding:"required"`
}

type pageQuery struct {
	Skip  int64 `form:"skip"`
	Limit int64 `form:"limit"`
}

type userResponse struct {
	ID       string `json:"id"`
	Username string `json:"username"`
	Email    string `json:"email"`
}

func toResponse(u *domain.User) userResponse {
	return userResponse{ID: u.ID.Hex(), Username: u.Username, Email: u.Email}
}

// CreateUser 创建用户及其购物车
func (h *UserHandler) CreateUser(c *gin.Context) {
	var req userRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ErrorWithStatus(c, http.StatusUnprocessableEntity, "validation_error", err.Error())
		return
	}

	res, err := h.app.CreateUser(c.Request.Context(), application.CreateUserCommand{
		Username: req.Username,
		Email:    req.Email,
		Password: req.Password,
	})
	if err != nil {
		writeError(c, err)
		return
	}
	response.Created(c, gin.H{"id": res.UserID.Hex(), "shopping_cart_id": res.CartID.Hex()})
}

// ListUsers 分页列出用户
func (h *UserHandler) ListUsers(c *gin.Context) {
	var q pageQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		response.ErrorWithStatus(c, http.StatusUnprocessableEntity, "validation_error", err.Error())
		return
	}

	users, err := h.app.ListUsers(c.Request.Context(), q.Skip, q.Limit)
	if err != nil {
		writeError(c, err)
		return
	}
	out := make([]userResponse, 0, len(users))
	for _, u := range users {
		out = append(out, toResponse(u))
	}
	response.Success(c, out)
}

// GetUser 获取用户，不返回密码摘要
func (h *UserHandler) GetUser(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	user, err := h.app.GetUser(c.Request.Context(), id)
	if err != nil {
		writeError(c, err)
		return
	}
	response.Success(c, toResponse(user))
}

// ReplaceUser 全量更新用户
func (h *UserHandler) ReplaceUser(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	var req userRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ErrorWithStatus(c, http.StatusUnprocessableEntity, "validation_error", err.Error())
		return
	}

	err := h.app.ReplaceUser(c.Request.Context(), application.ReplaceUserCommand{
		ID:       id,
		Username: req.Username,
		Email:    req.Email,
		Password: req.Password,
	})
	if err != nil {
		writeError(c, err)
		return
	}
	response.Message(c, "User updated successfully")
}

// ChangePassword 修改密码
func (h *UserHandler) ChangePassword(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	var req passwordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ErrorWithStatus(c, http.StatusUnprocessableEntity, "validation_error", err.Error())
		return
	}

	if err := h.app.ChangePassword(c.Request.Context(), application.ChangePasswordCommand{ID: id, Password: req.Password}); err != nil {
		writeError(c, err)
		return
	}
	response.Message(c, "User password updated successfully")
}

// DeleteUser 删除用户，其购物车在删除成功后清理
func (h *UserHandler) DeleteUser(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	if err := h.app.DeleteUser(c.Request.Context(), id); err != nil {
		writeError(c, err)
		return
	}
	response.NoContent(c)
}

func pathID(c *gin.Context) (primitive.ObjectID, bool) {
	id, err := docstore.ParseID(c.Param("id"))
	if err != nil {
		writeError(c, err)
		return primitive.NilObjectID, false
	}
	return id, true
}
