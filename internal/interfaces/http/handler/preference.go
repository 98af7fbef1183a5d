package handler

import (
	"github.com/gin-gonic/gin"

	"jalrakshak-ai-api/internal/application/preference"
	"jalrakshak-ai-api/internal/interfaces/http/dto"
)

// PreferenceHandler 偏好处理器
type PreferenceHandler struct {
	svc *preference.Service
}

// NewPreferenceHandler 创建偏好处理器
func NewPreferenceHandler(svc *preference.Service) *PreferenceHandler {
	return &PreferenceHandler{svc: svc}
}

// GetPreference 获取偏好
// @Summary 获取客户端偏好
// @Tags Preferences
// @Produce json
// @Param client_id path string true "客户端标识"
// @Success 200 {object} dto.Response[dto.PreferenceResponse]
// @Router /v1/preferences/{client_id} [get]
func (h *PreferenceHandler) GetPreference(c *gin.Context) {
	pref, err := h.svc.Get(c.Request.Context(), dto.BindClientID(c))
	if err != nil {
		respondError(c, err, "failed to get preference")
		return
	}
	dto.Success(c, dto.ToPreferenceResponse(pref))
}

// UpdatePreference 更新偏好
// @Summary 更新客户端偏好
// @Tags Preferences
// @Accept json
// @Produce json
// @Param client_id path string true "客户端标识"
// @Param body body dto.UpdatePreferenceRequest true "偏好"
// @Success 200 {object} dto.Response[dto.PreferenceResponse]
// @Router /v1/preferences/{client_id} [put]
func (h *PreferenceHandler) UpdatePreference(c *gin.Context) {
	var req dto.UpdatePreferenceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		dto.BadRequest(c, "invalid request body: "+err.Error())
		return
	}

	pref, err := h.svc.SetDarkMode(c.Request.Context(), dto.BindClientID(c), *req.DarkMode)
	if err != nil {
		respondError(c, err, "failed to update preference")
		return
	}
	dto.Success(c, dto.ToPreferenceResponse(pref))
}
