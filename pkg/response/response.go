// Package response 统一 HTTP JSON 响应格式
package response

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// ErrorBody 错误响应体
type ErrorBody struct {
	Error  string `json:"error"`
	Detail string `json:"detail,omitempty"`
}

// Success 200 响应
func Success(c *gin.Context, data any) {
	c.JSON(http.StatusOK, data)
}

// Created 201 响应
func Created(c *gin.Context, data any) {
	c.JSON(http.StatusCreated, data)
}

// Message 200 响应，仅携带提示信息
func Message(c *gin.Context, msg string) {
	c.JSON(http.StatusOK, gin.H{"message": msg})
}

// NoContent 204 响应
func NoContent(c *gin.Context) {
	c.Status(http.StatusNoContent)
}

// ErrorWithStatus 以指定状态码返回错误，kind 为稳定的错误类别，detail 为可读描述
func ErrorWithStatus(c *gin.Context, status int, kind, detail string) {
	c.AbortWithStatusJSON(status, ErrorBody{Error: kind, Detail: detail})
}
