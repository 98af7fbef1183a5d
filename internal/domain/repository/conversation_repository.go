// Package repository 定义数据访问层接口
package repository

import (
	"context"

	"jalrakshak-ai-api/internal/domain/entity"
)

// ConversationRepository 会话仓储
type ConversationRepository interface {
	Create(ctx context.Context, conv *entity.Conversation) error
	// GetByID 不存在时返回 (nil, nil)
	GetByID(ctx context.Context, id string) (*entity.Conversation, error)
}

// ChatTurnRepository 回合仓储，只追加
type ChatTurnRepository interface {
	// Append 分配会话内递增序号并写入
	Append(ctx context.Context, turn *entity.ChatTurn) error
	ListByConversation(ctx context.Context, conversationID string, pagination Pagination) (*PagedResult[*entity.ChatTurn], error)
}

// PreferenceRepository 偏好仓储
type PreferenceRepository interface {
	// Get 不存在时返回 (nil, nil)
	Get(ctx context.Context, clientID string) (*entity.Preference, error)
	Upsert(ctx context.Context, pref *entity.Preference) error
}
