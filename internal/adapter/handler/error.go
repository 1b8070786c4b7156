package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/k1s0-platform/system-server-go-profile/internal/adapter/middleware"
	"github.com/k1s0-platform/system-server-go-profile/internal/adapter/presenter"
)

// WriteError は統一フォーマットのエラーレスポンスを書き込む。
func WriteError(c *gin.Context, statusCode int, code string, message string) {
	WriteErrorWithDetails(c, statusCode, code, message, nil)
}

// WriteErrorWithDetails は詳細付きのエラーレスポンスを書き込む。
func WriteErrorWithDetails(c *gin.Context, statusCode int, code string, message string, details []string) {
	c.JSON(statusCode, presenter.NewErrorResponse(code, message, middleware.RequestIDFrom(c), details))
}
