// Package messaging 通过 Redis Stream 向外部工作进程投递消息
package messaging

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// Message 流消息信封
type Message struct {
	ID             string            `json:"id"`
	Type           string            `json:"type"`
	ConversationID string            `json:"conversation_id,omitempty"`
	Payload        json.RawMessage   `json:"payload"`
	Metadata       map[string]string `json:"metadata,omitempty"`
	CreatedAt      time.Time         `json:"created_at"`
}

// NewMessage 创建新消息
func NewMessage(msgType, conversationID string, payload any) (*Message, error) {
	payloadBytes, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}

	return &Message{
		ID:             uuid.NewString(),
		Type:           msgType,
		ConversationID: conversationID,
		Payload:        payloadBytes,
		CreatedAt:      time.Now(),
	}, nil
}

// SetMetadata 设置元数据
func (m *Message) SetMetadata(key, value string) {
	if m.Metadata == nil {
		m.Metadata = make(map[string]string)
	}
	m.Metadata[key] = value
}

// UnmarshalPayload 解析消息载荷
func (m *Message) UnmarshalPayload(v any) error {
	return json.Unmarshal(m.Payload, v)
}

// Stream 流名称
type Stream string

// StreamSpeechOut 待朗读的助手回复，由外部 TTS 进程消费
const StreamSpeechOut Stream = "stream:speech:out"

// SpeechMessage 朗读请求
type SpeechMessage struct {
	Text     string `json:"text"`
	Language string `json:"language,omitempty"`
}
