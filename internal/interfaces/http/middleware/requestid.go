package middleware

import (
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"jalrakshak-ai-api/pkg/logger"
)

const (
	// RequestIDHeader 请求 ID 头
	RequestIDHeader = "X-Request-ID"
	// ClientIDHeader 浏览器端生成的客户端标识
	ClientIDHeader = "X-Client-ID"
)

// RequestID 请求 ID 注入中间件，同时记录客户端标识
func RequestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		requestID := c.GetHeader(RequestIDHeader)
		if requestID == "" {
			requestID = uuid.New().String()
		}

		c.Set("request_id", requestID)
		ctx := logger.WithContext(c.Request.Context(), logger.RequestIDKey, requestID)

		if clientID := strings.TrimSpace(c.GetHeader(ClientIDHeader)); clientID != "" {
			c.Set("client_id", clientID)
			ctx = logger.WithContext(ctx, logger.ClientIDKey, clientID)
		}

		c.Request = c.Request.WithContext(ctx)
		c.Header(RequestIDHeader, requestID)

		c.Next()
	}
}
