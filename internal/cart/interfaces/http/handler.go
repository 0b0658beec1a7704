package http

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/wyfcoding/ecommerce/internal/cart/domain"
	"github.com/wyfcoding/ecommerce/pkg/docstore"
	"github.com/wyfcoding/ecommerce/pkg/response"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// CartService 处理器依赖的购物车应用服务
type CartService interface {
	CreateCart(ctx context.Context, userID primitive.ObjectID) (*domain.Cart, error)
	GetCart(ctx context.Context, id primitive.ObjectID) (*domain.Cart, error)
	AddItems(ctx context.Context, id primitive.ObjectID, items []domain.LineItem) (*domain.Cart, error)
	RemoveItems(ctx context.Context, id primitive.ObjectID, items []domain.LineItem) (*domain.Cart, error)
	ClearCart(ctx context.Context, id primitive.ObjectID) (*domain.Cart, error)
	DeleteCart(ctx context.Context, id primitive.ObjectID) error
}

// CartHandler 购物车 HTTP 处理器
type CartHandler struct {
	app CartService
}

// NewCartHandler 创建购物车 HTTP 处理器
func NewCartHandler(app CartService) *CartHandler {
	return &CartHandler{app: app}
}

// RegisterRoutes 注册路由
func (h *CartHandler) RegisterRoutes(router gin.IRouter) {
	api := router.Group("/api/shopping_carts")
	{
		api.POST("/", h.CreateCart)
		api.GET("/:id", h.GetCart)
		api.DELETE("/:id", h.DeleteCart)
		api.PATCH("/:id/clear", h.ClearCart)
		api.PATCH("/:id/add_item", h.AddItems)
		api.PATCH("/:id/remove_item", h.RemoveItems)
	}
}

type createCartRequest struct {
	UserID string `json:"user_id" binding:"required"`
}

type lineItemDTO struct {
	ProductID string `json:"product_id" binding:"required"`
	Quantity  int    `json:"quantity"`
}

type cartResponse struct {
	ID       string        `json:"id"`
	UserID   string        `json:"user_id"`
	Products []lineItemDTO `json:"products"`
}

func toResponse(cart *domain.Cart) cartResponse {
	products := make([]lineItemDTO, 0, len(cart.Items))
	for _, li := range cart.Items {
		products = append(products, lineItemDTO{ProductID: li.ProductID.Hex(), Quantity: li.Quantity})
	}
	return cartResponse{ID: cart.ID.Hex(), UserID: cart.UserID.Hex(), Products: products}
}

// CreateCart 为已存在的用户创建购物车
func (h *CartHandler) CreateCart(c *gin.Context) {
	var req createCartRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ErrorWithStatus(c, http.StatusUnprocessableEntity, "validation_error", err.Error())
		return
	}
	userID, err := docstore.ParseID(req.UserID)
	if err != nil {
		writeError(c, err)
		return
	}

	cart, err := h.app.CreateCart(c.Request.Context(), userID)
	if err != nil {
		writeError(c, err)
		return
	}
	response.Created(c, gin.H{"id": cart.ID.Hex()})
}

// GetCart 获取购物车
func (h *CartHandler) GetCart(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	cart, err := h.app.GetCart(c.Request.Context(), id)
	if err != nil {
		writeError(c, err)
		return
	}
	response.Success(c, toResponse(cart))
}

// DeleteCart 删除购物车
func (h *CartHandler) DeleteCart(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	if err := h.app.DeleteCart(c.Request.Context(), id); err != nil {
		writeError(c, err)
		return
	}
	response.NoContent(c)
}

// ClearCart 清空购物车
func (h *CartHandler) ClearCart(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	if _, err := h.app.ClearCart(c.Request.Context(), id); err != nil {
		writeError(c, err)
		return
	}
	response.Message(c, "Shopping cart cleared")
}

// AddItems 批量加购
func (h *CartHandler) AddItems(c *gin.Context) {
	h.mutateItems(c, h.app.AddItems)
}

// RemoveItems 批量减购
func (h *CartHandler) RemoveItems(c *gin.Context) {
	h.mutateItems(c, h.app.RemoveItems)
}

func (h *CartHandler) mutateItems(
	c *gin.Context,
	apply func(context.Context, primitive.ObjectID, []domain.LineItem) (*domain.Cart, error),
) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	var req []lineItemDTO
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ErrorWithStatus(c, http.StatusUnprocessableEntity, "validation_error", err.Error())
		return
	}
	items := make([]domain.LineItem, 0, len(req))
	for _, r := range req {
		pid, err := docstore.ParseID(r.ProductID)
		if err != nil {
			writeError(c, err)
			return
		}
		items = append(items, domain.LineItem{ProductID: pid, Quantity: r.Quantity})
	}

	cart, err := apply(c.Request.Context(), id, items)
	if err != nil {
		writeError(c, err)
		return
	}
	response.Success(c, toResponse(cart))
}

func pathID(c *gin.Context) (primitive.ObjectID, bool) {
	id, err := docstore.ParseID(c.Param("id"))
	if err != nil {
		writeError(c, err)
		return primitive.NilObjectID, false
	}
	return id, true
}
