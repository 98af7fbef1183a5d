package chatadapter

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/santhosh-tekuri/jsonschema/v5"
	"github.com/tidwall/gjson"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"jalrakshak-ai-api/internal/config"
	"jalrakshak-ai-api/pkg/logger"
	"jalrakshak-ai-api/pkg/metrics"
	"jalrakshak-ai-api/pkg/tracer"
)

const (
	completionsPath = "/chat/completions"
	maxResponseSize = 8 << 20
)

// completionSchema 只约束会被读取的 choices[0].message.content
const completionSchema = `{
	"$schema": "http://json-schema.org/draft-07/schema#",
	"type": "object",
	"required": ["choices"],
	"properties": {
		"choices": {
			"type": "array",
			"minItems": 1,
			"items": [{
				"type": "object",
				"required": ["message"],
				"properties": {
					"message": {
						"type": "object",
						"required": ["content"],
						"properties": {"content": {"type": "string"}}
					}
				}
			}]
		}
	}
}`

var responseSchema = jsonschema.MustCompileString("chat_completion_response.json", completionSchema)

// Option 适配器选项
type Option func(*Adapter)

// WithHTTPClient 替换 HTTP 客户端
func WithHTTPClient(c *http.Client) Option {
	return func(a *Adapter) {
		a.httpClient = c
	}
}

// Adapter 对话补全请求适配器，调用之间不保存任何状态
type Adapter struct {
	cfg        config.ChatConfig
	validator  *Validator
	httpClient *http.Client
	endpoint   string
}

// NewAdapter 创建适配器；缺少 base URL 或 API key 时只记录告警
func NewAdapter(cfg *config.ChatConfig, attachments *config.AttachmentConfig, opts ...Option) *Adapter {
	a := &Adapter{
		cfg:        *cfg,
		validator:  NewValidator(attachments),
		httpClient: &http.Client{},
		endpoint:   strings.TrimRight(cfg.BaseURL, "/") + completionsPath,
	}
	for _, opt := range opts {
		opt(a)
	}

	for _, w := range cfg.Warnings() {
		logger.Warn(context.Background(), "chat adapter misconfigured, requests will fail until fixed", "reason", w)
	}
	return a
}

// Configured base URL 与 API key 是否都已配置
func (a *Adapter) Configured() bool {
	return len(a.cfg.Warnings()) == 0
}

// Validator 返回附件校验器
func (a *Adapter) Validator() *Validator {
	return a.validator
}

// Send 将一个 Request 转换为恰好一个 Outcome
// 附件在任何路径上都会被释放
func (a *Adapter) Send(ctx context.Context, req Request) (out Outcome) {
	defer req.Attachment.Release()

	shape := req.Shape()
	model := a.cfg.TextModel
	if shape == ShapeImage {
		model = a.cfg.VisionModel
	}

	ctx, span := tracer.Start(ctx, "chatadapter.Send")
	span.SetAttributes(
		attribute.String("chat.shape", string(shape)),
		attribute.String("chat.model", model),
	)
	start := time.Now()

	defer func() {
		if r := recover(); r != nil {
			out = Failed(KindMalformed, fmt.Sprintf("unexpected adapter error: %v", r))
		}
		metrics.ChatCallTotal.WithLabelValues(string(shape), model, out.Label()).Inc()
		if !out.IsSuccess() {
			span.SetStatus(codes.Error, out.Failure.Message)
			span.SetAttributes(attribute.String("chat.failure_kind", string(out.Failure.Kind)))
			logger.Warn(ctx, "chat request failed",
				"shape", shape,
				"kind", out.Failure.Kind,
				"message", out.Failure.Message,
			)
		}
		span.End()
	}()

	var body completionRequest
	if shape == ShapeImage {
		if f := a.validator.Validate(req.Attachment); f != nil {
			return Outcome{Failure: f}
		}
		metrics.ChatAttachmentBytes.Observe(float64(req.Attachment.SizeBytes))
		body = a.buildImageRequest(req.PromptText, req.Attachment)
	} else {
		body = a.buildTextRequest(req.PromptText)
	}

	payload, err := json.Marshal(body)
	if err != nil {
		return Failed(KindInvalidInput, fmt.Sprintf("could not encode request: %v", err))
	}

	out = a.dispatch(ctx, payload)
	metrics.ChatCallDuration.WithLabelValues(string(shape), model).Observe(time.Since(start).Seconds())
	return out
}

// dispatch 发出唯一一次 POST 并按 状态码 -> 空响应 -> JSON -> 结构 的顺序解码
func (a *Adapter) dispatch(ctx context.Context, payload []byte) Outcome {
	if a.cfg.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, a.cfg.Timeout)
		defer cancel()
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, a.endpoint, bytes.NewReader(payload))
	if err != nil {
		return Failed(KindNetwork, err.Error())
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+a.cfg.APIKey)

	logger.Debug(ctx, "dispatching chat completion", "endpoint", a.endpoint, "bytes", len(payload))

	resp, err := a.httpClient.Do(httpReq)
	if err != nil {
		return Failed(KindNetwork, err.Error())
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize))
	if err != nil {
		return Failed(KindNetwork, fmt.Sprintf("failed to read response: %v", err))
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return Failed(KindAPIError, apiErrorMessage(resp.Status, raw))
	}

	if len(bytes.TrimSpace(raw)) == 0 {
		return Failed(KindMalformed, "empty response")
	}

	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	var doc any
	if err := dec.Decode(&doc); err != nil {
		return Failed(KindMalformed, "could not parse response")
	}
	if _, err := dec.Token(); err != io.EOF {
		return Failed(KindMalformed, "could not parse response")
	}

	if err := responseSchema.Validate(doc); err != nil {
		return Failed(KindMalformed, "unexpected response structure")
	}

	return Succeeded(gjson.GetBytes(raw, "choices.0.message.content").String())
}

// apiErrorMessage 优先取 error.message，否则拼接状态行
func apiErrorMessage(status string, raw []byte) string {
	if gjson.ValidBytes(raw) {
		if msg := gjson.GetBytes(raw, "error.message"); msg.Type == gjson.String && msg.String() != "" {
			return msg.String()
		}
		if msg := gjson.GetBytes(raw, "error"); msg.Type == gjson.String && msg.String() != "" {
			return msg.String()
		}
		return "API Error: " + status
	}
	text := strings.TrimSpace(string(raw))
	if text == "" {
		return "API Error: " + status
	}
	return fmt.Sprintf("API Error: %s - %s", status, text)
}
