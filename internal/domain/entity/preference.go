package entity

import "time"

// Preference 客户端界面偏好
type Preference struct {
	ClientID  string    `json:"client_id" gorm:"type:varchar(64);primaryKey"`
	DarkMode  bool      `json:"dark_mode" gorm:"not null;default:false"`
	UpdatedAt time.Time `json:"updated_at" gorm:"autoUpdateTime"`
}

func (Preference) TableName() string {
	return "preferences"
}

// DefaultPreference 未保存过偏好的客户端使用的默认值
func DefaultPreference(clientID string) *Preference {
	return &Preference{ClientID: clientID}
}
