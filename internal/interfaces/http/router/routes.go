package router

import (
	"github.com/gin-gonic/gin"

	"jalrakshak-ai-api/internal/interfaces/http/handler"
)

// RegisterV1Routes 注册 v1 版本路由
func RegisterV1Routes(
	v1 *gin.RouterGroup,
	conversationHandler *handler.ConversationHandler,
	preferenceHandler *handler.PreferenceHandler,
) {
	// 会话
	conversations := v1.Group("/conversations")
	{
		conversations.POST("", conversationHandler.CreateConversation)
		conversations.GET("/:cid", conversationHandler.GetConversation)
		conversations.GET("/:cid/turns", conversationHandler.ListTurns)
		conversations.POST("/:cid/messages", conversationHandler.SendMessage)
	}

	// 界面偏好
	preferences := v1.Group("/preferences")
	{
		preferences.GET("/:client_id", preferenceHandler.GetPreference)
		preferences.PUT("/:client_id", preferenceHandler.UpdatePreference)
	}
}
