package handler

import (
	"github.com/gin-gonic/gin"

	"jalrakshak-ai-api/internal/interfaces/http/dto"
	"jalrakshak-ai-api/pkg/errors"
	"jalrakshak-ai-api/pkg/logger"
)

// respondError 应用错误按错误码返回，其余错误记录日志并返回 500
func respondError(c *gin.Context, err error, msg string) {
	if errors.IsAppError(err) {
		appErr := errors.AsAppError(err)
		if appErr.HTTPStatus >= 500 {
			logger.Error(c.Request.Context(), msg, err)
		}
		dto.AppError(c, appErr)
		return
	}
	logger.Error(c.Request.Context(), msg, err)
	dto.InternalError(c, msg)
}
