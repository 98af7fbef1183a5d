package chatadapter

import (
	"encoding/base64"
	"strings"

	"jalrakshak-ai-api/internal/domain/entity"
)

const dataURIPrefix = "data:"

type completionRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	Temperature float64       `json:"temperature"`
	MaxTokens   int           `json:"max_tokens"`
}

// chatMessage Content 为 string（纯文本）或 []contentPart（多模态）
type chatMessage struct {
	Role    entity.Role `json:"role"`
	Content any         `json:"content"`
}

type contentPart struct {
	Type     string    `json:"type"`
	Text     string    `json:"text,omitempty"`
	ImageURL *imageURL `json:"image_url,omitempty"`
}

type imageURL struct {
	URL string `json:"url"`
}

// ToDataURI 将原始字节编码为 data URI
func ToDataURI(mimeType string, data []byte) string {
	return dataURIPrefix + mimeType + ";base64," + base64.StdEncoding.EncodeToString(data)
}

// IsDataURI 是否已经是 data URI
func IsDataURI(s string) bool {
	return len(s) >= len(dataURIPrefix) && strings.EqualFold(s[:len(dataURIPrefix)], dataURIPrefix)
}

// imageReference 已有 data URI 原样返回，不做二次编码
func imageReference(a *Attachment) string {
	if IsDataURI(a.DataURI) {
		return a.DataURI
	}
	return ToDataURI(a.MIMEType, a.Data)
}

// splitDataURI 拆出 data:<mime>;base64,<payload> 中的类型与负载
func splitDataURI(s string) (mimeType, payload string, ok bool) {
	if !IsDataURI(s) {
		return "", "", false
	}
	header, payload, found := strings.Cut(s[len(dataURIPrefix):], ",")
	if !found {
		return "", "", false
	}
	mimeType, _, _ = strings.Cut(header, ";")
	return strings.ToLower(strings.TrimSpace(mimeType)), payload, true
}

func decodedLen(payload string) int64 {
	return int64(base64.StdEncoding.DecodedLen(len(payload)) - strings.Count(payload, "="))
}

func (a *Adapter) buildTextRequest(prompt string) completionRequest {
	return completionRequest{
		Model: a.cfg.TextModel,
		Messages: []chatMessage{
			{Role: entity.RoleSystem, Content: a.cfg.Persona},
			{Role: entity.RoleUser, Content: prompt},
		},
		Temperature: a.cfg.TextTemperature,
		MaxTokens:   a.cfg.MaxOutputTokens,
	}
}

func (a *Adapter) buildImageRequest(prompt string, att *Attachment) completionRequest {
	return completionRequest{
		Model: a.cfg.VisionModel,
		Messages: []chatMessage{{
			Role: entity.RoleUser,
			Content: []contentPart{
				{Type: "text", Text: a.imagePrompt(prompt)},
				{Type: "image_url", ImageURL: &imageURL{URL: imageReference(att)}},
			},
		}},
		Temperature: a.cfg.VisionTemperature,
		MaxTokens:   a.cfg.MaxOutputTokens,
	}
}

// imagePrompt 用户未输入文字时使用默认提示词，再套用模板
func (a *Adapter) imagePrompt(prompt string) string {
	prompt = strings.TrimSpace(prompt)
	if prompt == "" {
		prompt = a.cfg.DefaultImagePrompt
	}
	if strings.Contains(a.cfg.ImagePromptTemplate, "%s") {
		return strings.Replace(a.cfg.ImagePromptTemplate, "%s", prompt, 1)
	}
	return prompt
}
