package http

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/wyfcoding/ecommerce/internal/catalog/domain"
	"github.com/wyfcoding/ecommerce/pkg/docstore"
	"github.com/wyfcoding/ecommerce/pkg/logger"
	"github.com/wyfcoding/ecommerce/pkg/response"
)

func writeError(c *gin.Context, err error) {
	status, kind := classify(err)
	if status >= http.StatusInternalServerError {
		logger.Error(c.Request.Context(), "Product request failed", "error", err)
	}
	response.ErrorWithStatus(c, status, kind, err.Error())
}

func classify(err error) (int, string) {
	switch {
	case errors.Is(err, docstore.ErrInvalidID):
		return http.StatusUnprocessableEntity, "invalid_identifier"
	case errors.Is(err, domain.ErrInvalidProduct):
		return http.StatusUnprocessableEntity, "validation_error"
	case errors.Is(err, domain.ErrPageTooLarge):
		return http.StatusUnprocessableEntity, "page_too_large"
	case errors.Is(err, domain.ErrInvalidPage):
		return http.StatusUnprocessableEntity, "invalid_page"
	case errors.Is(err, domain.ErrProductNotFound):
		return http.StatusNotFound, "product_not_found"
	case errors.Is(err, docstore.ErrUnavailable), errors.Is(err, context.DeadlineExceeded):
		return http.StatusServiceUnavailable, "storage_unavailable"
	default:
		return http.StatusInternalServerError, "internal_error"
	}
}
