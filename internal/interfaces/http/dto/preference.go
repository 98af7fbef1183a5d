package dto

import (
	"time"

	"jalrakshak-ai-api/internal/domain/entity"
)

// UpdatePreferenceRequest 更新偏好请求
type UpdatePreferenceRequest struct {
	DarkMode *bool `json:"dark_mode" binding:"required"`
}

// PreferenceResponse 偏好响应
type PreferenceResponse struct {
	ClientID  string `json:"client_id"`
	DarkMode  bool   `json:"dark_mode"`
	UpdatedAt string `json:"updated_at,omitempty"`
}

func ToPreferenceResponse(p *entity.Preference) *PreferenceResponse {
	resp := &PreferenceResponse{ClientID: p.ClientID, DarkMode: p.DarkMode}
	if !p.UpdatedAt.IsZero() {
		resp.UpdatedAt = p.UpdatedAt.Format(time.RFC3339)
	}
	return resp
}
