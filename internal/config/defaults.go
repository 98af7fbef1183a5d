package config

// DefaultPersona 纯文本请求的默认 system 指令
const DefaultPersona = "You are JalRakshak AI, a helpful assistant for water safety and general health questions. " +
	"You can analyze medical documents and answer general medical questions. Provide accurate, helpful information " +
	"while always recommending consulting with healthcare professionals for serious medical concerns."

// DefaultImagePromptTemplate 图片请求文本部分的默认模板
const DefaultImagePromptTemplate = "As a helpful medical assistant, please analyze this image and respond to the user's question: %s. " +
	"If this appears to be a medical document or image, provide helpful information while always recommending " +
	"consulting with healthcare professionals for medical advice."

// Warnings 返回启动时需要提示的配置缺失项，不阻止启动
func (c *ChatConfig) Warnings() []string {
	var out []string
	if c.BaseURL == "" {
		out = append(out, "chat.base_url is not configured")
	}
	if c.APIKey == "" {
		out = append(out, "chat.api_key is not configured")
	}
	return out
}
