package dto

import (
	"time"

	"jalrakshak-ai-api/internal/application/chatadapter"
	"jalrakshak-ai-api/internal/application/conversation"
	"jalrakshak-ai-api/internal/domain/entity"
)

// SendMessageRequest JSON 形式的消息请求；图片为 data URI
type SendMessageRequest struct {
	Text         string `json:"text"`
	ImageDataURI string `json:"image_data_uri,omitempty"`
}

// ConversationResponse 会话响应
type ConversationResponse struct {
	ID        string `json:"id"`
	ClientID  string `json:"client_id,omitempty"`
	TurnCount int    `json:"turn_count"`
	CreatedAt string `json:"created_at"`
	UpdatedAt string `json:"updated_at"`
}

// ChatTurnResponse 回合响应
type ChatTurnResponse struct {
	ID               string `json:"id"`
	Seq              int    `json:"seq"`
	Role             string `json:"role"`
	Content          string `json:"content"`
	AttachedImageRef string `json:"attached_image_ref,omitempty"`
	AttachmentMIME   string `json:"attachment_mime,omitempty"`
	AttachmentSize   int64  `json:"attachment_size,omitempty"`
	Failed           bool   `json:"failed,omitempty"`
	CreatedAt        string `json:"created_at"`
}

// OutcomeResponse 请求结果
type OutcomeResponse struct {
	Status  string `json:"status"`
	Kind    string `json:"kind,omitempty"`
	Message string `json:"message,omitempty"`
}

// SendMessageResponse 发送消息响应
type SendMessageResponse struct {
	UserTurn      *ChatTurnResponse `json:"user_turn"`
	AssistantTurn *ChatTurnResponse `json:"assistant_turn"`
	Outcome       OutcomeResponse   `json:"outcome"`
}

func ToConversationResponse(c *entity.Conversation) *ConversationResponse {
	return &ConversationResponse{
		ID:        c.ID,
		ClientID:  c.ClientID,
		TurnCount: c.TurnCount,
		CreatedAt: c.CreatedAt.Format(time.RFC3339),
		UpdatedAt: c.UpdatedAt.Format(time.RFC3339),
	}
}

func ToChatTurnResponse(t *entity.ChatTurn) *ChatTurnResponse {
	if t == nil {
		return nil
	}
	resp := &ChatTurnResponse{
		ID:             t.ID,
		Seq:            t.Seq,
		Role:           string(t.Role),
		Content:        t.Content,
		AttachmentMIME: t.AttachmentMIME,
		AttachmentSize: t.AttachmentSize,
		Failed:         t.IsFailure(),
		CreatedAt:      t.CreatedAt.Format(time.RFC3339Nano),
	}
	if t.HasAttachment() {
		resp.AttachedImageRef = *t.AttachedImageRef
	}
	return resp
}

func ToChatTurnResponses(turns []*entity.ChatTurn) []*ChatTurnResponse {
	out := make([]*ChatTurnResponse, 0, len(turns))
	for _, t := range turns {
		out = append(out, ToChatTurnResponse(t))
	}
	return out
}

func ToOutcomeResponse(o chatadapter.Outcome) OutcomeResponse {
	if o.IsSuccess() {
		return OutcomeResponse{Status: "success"}
	}
	return OutcomeResponse{Status: "failure", Kind: string(o.Failure.Kind), Message: o.Failure.Message}
}

func ToSendMessageResponse(r *conversation.SendResult) *SendMessageResponse {
	return &SendMessageResponse{
		UserTurn:      ToChatTurnResponse(r.UserTurn),
		AssistantTurn: ToChatTurnResponse(r.AssistantTurn),
		Outcome:       ToOutcomeResponse(r.Outcome),
	}
}
