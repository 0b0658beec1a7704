package http

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/wyfcoding/ecommerce/internal/cart/domain"
	"github.com/wyfcoding/ecommerce/pkg/docstore"
	"github.com/wyfcoding/ecommerce/pkg/logger"
	"github.com/wyfcoding/ecommerce/pkg/response"
)

// writeError 把应用层错误映射为 HTTP 状态码与错误类别
func writeError(c *gin.Context, err error) {
	status, kind := classify(err)
	if status >= http.StatusInternalServerError {
		logger.Error(c.Request.Context(), "Shopping cart request failed", "error", err)
	}
	response.ErrorWithStatus(c, status, kind, err.Error())
}

func classify(err error) (int, string) {
	var lie *domain.LineItemError
	switch {
	case errors.Is(err, domain.ErrInvalidProductID):
		return http.StatusUnprocessableEntity, "invalid_identifier"
	case errors.Is(err, domain.ErrInvalidQuantity):
		return http.StatusUnprocessableEntity, "invalid_quantity"
	case errors.As(err, &lie):
		if errors.Is(lie.Reason, domain.ErrProductNotFound) {
			return http.StatusNotFound, "product_not_found"
		}
		switch {
		case errors.Is(lie.Reason, domain.ErrInsufficientStock):
			return http.StatusUnprocessableEntity, "insufficient_stock"
		case errors.Is(lie.Reason, domain.ErrProductNotInCart):
			return http.StatusUnprocessableEntity, "product_not_in_cart"
		default:
			return http.StatusUnprocessableEntity, "insufficient_quantity_in_cart"
		}
	case errors.Is(err, docstore.ErrInvalidID):
		return http.StatusUnprocessableEntity, "invalid_identifier"
	case errors.Is(err, domain.ErrCartNotFound):
		return http.StatusNotFound, "shopping_cart_not_found"
	case errors.Is(err, domain.ErrOwnerNotFound):
		return http.StatusNotFound, "user_not_found"
	case errors.Is(err, domain.ErrVersionConflict):
		return http.StatusConflict, "version_conflict"
	case errors.Is(err, docstore.ErrUnavailable), errors.Is(err, context.DeadlineExceeded):
		return http.StatusServiceUnavailable, "storage_unavailable"
	default:
		return http.StatusInternalServerError, "internal_error"
	}
}
