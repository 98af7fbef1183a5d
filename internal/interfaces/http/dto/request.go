package dto

import (
	"strconv"

	"github.com/gin-gonic/gin"

	"jalrakshak-ai-api/internal/domain/repository"
)

// BindPage 从查询参数绑定分页，缺省每页条数由调用方给出
func BindPage(c *gin.Context, defaultPageSize int) repository.Pagination {
	page := parseIntWithDefault(c.Query("page"), 1)
	pageSize := parseIntWithDefault(c.Query("page_size"), defaultPageSize)
	return repository.NewPagination(page, pageSize)
}

// parseIntWithDefault 解析整数，失败时返回默认值
func parseIntWithDefault(s string, defaultVal int) int {
	if s == "" {
		return defaultVal
	}
	v, err := strconv.Atoi(s)
	if err != nil {
		return defaultVal
	}
	return v
}

// BindConversationID 从 URI 绑定会话 ID
func BindConversationID(c *gin.Context) string {
	return c.Param("cid")
}

// BindClientID 从 URI 绑定客户端标识
func BindClientID(c *gin.Context) string {
	return c.Param("client_id")
}
