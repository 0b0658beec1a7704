package http

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"github.com/wyfcoding/ecommerce/internal/catalog/application"
	"github.com/wyfcoding/ecommerce/internal/catalog/domain"
	"github.com/wyfcoding/ecommerce/pkg/docstore"
	"github.com/wyfcoding/ecommerce/pkg/logger"
	"github.com/wyfcoding/ecommerce/pkg/response"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// ProductService 处理器依赖的商品目录应用服务
type ProductService interface {
	CreateProduct(ctx context.Context, cmd application.CreateProductCommand) (primitive.ObjectID, error)
	GetProduct(ctx context.Context, id primitive.ObjectID) (*domain.Product, error)
	ListProducts(ctx context.Context, filter domain.ListFilter) ([]*domain.Product, error)
	ReplaceProduct(ctx context.Context, cmd application.ReplaceProductCommand) error
	UpdateStock(ctx context.Context, cmd application.UpdateStockCommand) error
	DeleteProduct(ctx context.Context, id primitive.ObjectID) error
}

// ProductHandler 商品 HTTP 处理器
type ProductHandler struct {
	app ProductService
}

// NewProductHandler 创建商品 HTTP 处理器
func NewProductHandler(app ProductService) *ProductHandler {
	if err := RegisterValidators(); err != nil {
		logger.Error(context.Background(), "Failed to register product validators", "error", err)
	}
	return &ProductHandler{app: app}
}

// RegisterRoutes 注册路由
func (h *ProductHandler) RegisterRoutes(router gin.IRouter) {
	api := router.Group("/api/products")
	{
		api.POST("/", h.CreateProduct)
		api.GET("/", h.ListProducts)
		api.GET("/:id", h.GetProduct)
		api.PUT("/:id", h.ReplaceProduct)
		api.PATCH("/:id", h.UpdateStock)
		api.DELETE("/:id", h.DeleteProduct)
	}
}

type productRequest struct {
	Name     string           `json:"name" binding:"required"`
	Theme    string           `json:"theme" binding:"required,product_theme"`
	Price    *decimal.Decimal `json:"price" binding:"required"`
	Quantity *int             `json:"quantity" binding:"required,gte=0"`
}

type stockRequest struct {
	Quantity *int `json:"quantity" binding:"required,gte=0"`
}

type listQuery struct {
	Skip       int64  `form:"skip"`
	Limit      int64  `form:"limit"`
	Theme      string `form:"product_theme" binding:"omitempty,product_theme"`
	ApplyTheme bool   `form:"apply_product_theme_filter"`
	SortBy     string `form:"product_attribute_to_sort" binding:"omitempty,oneof=id name theme price quantity"`
	ApplySort  bool   `form:"apply_product_attribute_sort"`
	Descending bool   `form:"descending"`
}

type productResponse struct {
	ID       string      `json:"id"`
	Name     string      `json:"name"`
	Theme    string      `json:"theme"`
	Price    json.Number `json:"price"`
	Quantity int         `json:"quantity"`
}

func toResponse(p *domain.Product) productResponse {
	return productResponse{
		ID:       p.ID.Hex(),
		Name:     p.Name,
		Theme:    string(p.Theme),
		Price:    json.Number(p.Price.String()),
		Quantity: p.Quantity,
	}
}

// CreateProduct 创建商品
func (h *ProductHandler) CreateProduct(c *gin.Context) {
	var req productRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ErrorWithStatus(c, http.StatusUnprocessableEntity, "validation_error", err.Error())
		return
	}

	id, err := h.app.CreateProduct(c.Request.Context(), application.CreateProductCommand{
		Name:     req.Name,
		Theme:    domain.Theme(req.Theme),
		Price:    *req.Price,
		Quantity: *req.Quantity,
	})
	if err != nil {
		writeError(c, err)
		return
	}
	response.Created(c, gin.H{"id": id.Hex()})
}

// ListProducts 分页列出商品，主题过滤与排序需显式开启
func (h *ProductHandler) ListProducts(c *gin.Context) {
	var q listQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		response.ErrorWithStatus(c, http.StatusUnprocessableEntity, "validation_error", err.Error())
		return
	}

	filter := domain.ListFilter{Skip: q.Skip, Limit: q.Limit}
	if q.ApplyTheme {
		filter.Theme = domain.Theme(q.Theme)
	}
	if q.ApplySort {
		filter.SortBy = domain.SortField(q.SortBy)
		filter.Descending = q.Descending
	}

	products, err := h.app.ListProducts(c.Request.Context(), filter)
	if err != nil {
		writeError(c, err)
		return
	}
	out := make([]productResponse, 0, len(products))
	for _, p := range products {
		out = append(out, toResponse(p))
	}
	response.Success(c, out)
}

// GetProduct 获取商品
func (h *ProductHandler) GetProduct(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	product, err := h.app.GetProduct(c.Request.Context(), id)
	if err != nil {
		writeError(c, err)
		return
	}
	response.Success(c, toResponse(product))
}

// ReplaceProduct 全量更新商品
func (h *ProductHandler) ReplaceProduct(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	var req productRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ErrorWithStatus(c, http.StatusUnprocessableEntity, "validation_error", err.Error())
		return
	}

	err := h.app.ReplaceProduct(c.Request.Context(), application.ReplaceProductCommand{
		ID:       id,
		Name:     req.Name,
		Theme:    domain.Theme(req.Theme),
		Price:    *req.Price,
		Quantity: *req.Quantity,
	})
	if err != nil {
		writeError(c, err)
		return
	}
	response.Message(c, "Product updated")
}

// UpdateStock 更新库存
func (h *ProductHandler) UpdateStock(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	var req stockRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ErrorWithStatus(c, http.StatusUnprocessableEntity, "validation_error", err.Error())
		return
	}

	if err := h.app.UpdateStock(c.Request.Context(), application.UpdateStockCommand{ID: id, Quantity: *req.Quantity}); err != nil {
		writeError(c, err)
		return
	}
	response.Message(c, "Product stock updated")
}

// DeleteProduct 删除商品，购物车清理在删除成功后进行
func (h *ProductHandler) DeleteProduct(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	if err := h.app.DeleteProduct(c.Request.Context(), id); err != nil {
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
