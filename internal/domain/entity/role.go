// Package entity 定义领域实体
package entity

// Role 对话角色枚举
type Role string

const (
	RoleSystem    Role = "system"
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// IsTranscriptRole 是否为可出现在会话记录中的角色
func (r Role) IsTranscriptRole() bool {
	return r == RoleUser || r == RoleAssistant
}
