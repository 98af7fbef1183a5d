// Package entity 定义领域实体
package entity

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Conversation 会话，持有一份只追加的对话记录
type Conversation struct {
	ID        string    `json:"id" gorm:"type:varchar(36);primaryKey"`
	ClientID  string    `json:"client_id,omitempty" gorm:"type:varchar(64);index"`
	TurnCount int       `json:"turn_count" gorm:"not null;default:0"`
	CreatedAt time.Time `json:"created_at" gorm:"autoCreateTime"`
	UpdatedAt time.Time `json:"updated_at" gorm:"autoUpdateTime"`
}

func (Conversation) TableName() string {
	return "conversations"
}

func (c *Conversation) BeforeCreate(*gorm.DB) error {
	if c.ID == "" {
		c.ID = uuid.NewString()
	}
	return nil
}

func NewConversation(clientID string) *Conversation {
	now := time.Now()
	return &Conversation{
		ClientID:  clientID,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// OutcomeKind 助手回合对应的请求结果，成功时为空
type OutcomeKind string

// ChatTurn 会话中的一个回合
// 图片字节从不落库，只记录引用、类型与大小
type ChatTurn struct {
	ID               string      `json:"id" gorm:"type:varchar(36);primaryKey"`
	ConversationID   string      `json:"conversation_id" gorm:"type:varchar(36);index:idx_turn_conv_seq,priority:1;not null"`
	Seq              int         `json:"seq" gorm:"index:idx_turn_conv_seq,priority:2;not null"`
	Role             Role        `json:"role" gorm:"type:varchar(16);not null"`
	Content          string      `json:"content" gorm:"type:text;not null"`
	AttachedImageRef *string     `json:"attached_image_ref,omitempty" gorm:"type:varchar(36)"`
	AttachmentMIME   string      `json:"attachment_mime,omitempty" gorm:"type:varchar(64)"`
	AttachmentSize   int64       `json:"attachment_size,omitempty"`
	OutcomeKind      OutcomeKind `json:"outcome_kind,omitempty" gorm:"type:varchar(32)"`
	CreatedAt        time.Time   `json:"created_at" gorm:"autoCreateTime"`
}

func (ChatTurn) TableName() string {
	return "chat_turns"
}

func (t *ChatTurn) BeforeCreate(*gorm.DB) error {
	if t.ID == "" {
		t.ID = uuid.NewString()
	}
	return nil
}

// HasAttachment 该回合是否附带过图片
func (t *ChatTurn) HasAttachment() bool {
	return t.AttachedImageRef != nil && *t.AttachedImageRef != ""
}

// IsFailure 是否为失败提示回合
func (t *ChatTurn) IsFailure() bool {
	return t.Role == RoleAssistant && t.OutcomeKind != ""
}

// NewUserTurn 创建用户回合
func NewUserTurn(conversationID, content string) *ChatTurn {
	return &ChatTurn{
		ConversationID: conversationID,
		Role:           RoleUser,
		Content:        content,
		CreatedAt:      time.Now(),
	}
}

// NewAssistantTurn 创建助手回合
func NewAssistantTurn(conversationID, content string, kind OutcomeKind) *ChatTurn {
	return &ChatTurn{
		ConversationID: conversationID,
		Role:           RoleAssistant,
		Content:        content,
		OutcomeKind:    kind,
		CreatedAt:      time.Now(),
	}
}

// WithAttachment 记录附件元数据并生成引用
func (t *ChatTurn) WithAttachment(mimeType string, size int64) *ChatTurn {
	ref := uuid.NewString()
	t.AttachedImageRef = &ref
	t.AttachmentMIME = mimeType
	t.AttachmentSize = size
	return t
}
