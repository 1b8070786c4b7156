package middleware

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const (
	// RequestIDHeader はリクエスト ID を運ぶ HTTP ヘッダー名。
	RequestIDHeader = "X-Request-ID"
	// RequestIDKey は gin.Context にリクエスト ID を格納するキー。
	RequestIDKey = "request_id"

	maxRequestIDLength = 64
)

// RequestID はリクエストに一意な ID を付与するミドルウェア。
// 上流の X-Request-ID は形式が妥当な場合のみ引き継ぎ、それ以外は新たに採番する。
func RequestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		requestID := c.GetHeader(RequestIDHeader)
		if !validRequestID(requestID) {
			requestID = "prof_" + uuid.New().String()[:12]
		}
		c.Set(RequestIDKey, requestID)
		c.Header(RequestIDHeader, requestID)
		c.Next()
	}
}

// RequestIDFrom は RequestID ミドルウェアが格納した ID を返す。未設定なら空文字。
func RequestIDFrom(c *gin.Context) string {
	return c.GetString(RequestIDKey)
}

// validRequestID はエラー応答やログにそのまま埋め込める文字だけで構成されているかを判定する。
func validRequestID(id string) bool {
	if id == "" || len(id) > maxRequestIDLength {
		return false
	}
	for _, r := range id {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
		case r == '-', r == '_', r == '.':
		default:
			return false
		}
	}
	return true
}
