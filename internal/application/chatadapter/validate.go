package chatadapter

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"mime"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/gabriel-vasile/mimetype"
	_ "golang.org/x/image/webp"

	"jalrakshak-ai-api/internal/config"
)

// Validator 发送前的附件校验，失败时不会发起任何网络请求
type Validator struct {
	allowed       []string
	maxSize       int64
	maxMegapixels float64
}

// NewValidator 根据附件配置创建校验器
func NewValidator(cfg *config.AttachmentConfig) *Validator {
	allowed := make([]string, 0, len(cfg.AllowedMIMETypes))
	for _, mt := range cfg.AllowedMIMETypes {
		if mt = NormalizeMIME(mt); mt != "" {
			allowed = append(allowed, mt)
		}
	}
	return &Validator{
		allowed:       allowed,
		maxSize:       cfg.MaxSize.Int64(),
		maxMegapixels: cfg.MaxMegapixels,
	}
}

// AllowedTypes 允许的 MIME 类型
func (v *Validator) AllowedTypes() []string {
	return append([]string(nil), v.allowed...)
}

// Validate 依次检查类型、大小与分辨率；返回 nil 表示通过
// 未声明类型时按内容嗅探并回写到附件
func (v *Validator) Validate(att *Attachment) *Failure {
	if att == nil {
		return nil
	}

	raw, err := attachmentBytes(att)
	if err != nil {
		return invalid("image could not be read: %v", err)
	}

	if att.MIMEType == "" && raw != nil {
		att.MIMEType = mimetype.Detect(raw).String()
	}
	mt := NormalizeMIME(att.MIMEType)
	if !v.isAllowed(mt) {
		return invalid("unsupported image type %q: allowed types are %s", att.MIMEType, strings.Join(v.allowed, ", "))
	}
	att.MIMEType = mt

	size := att.SizeBytes
	if raw != nil {
		size = int64(len(raw))
		att.SizeBytes = size
	}
	if v.maxSize > 0 && size > v.maxSize {
		return invalid("image is too large (%s): maximum size is %s",
			humanize.IBytes(uint64(size)), humanize.IBytes(uint64(v.maxSize)))
	}

	// 仅在本地可解码时检查分辨率
	if v.maxMegapixels > 0 && raw != nil {
		if cfg, _, err := image.DecodeConfig(bytes.NewReader(raw)); err == nil {
			mp := float64(cfg.Width) * float64(cfg.Height) / 1e6
			if mp > v.maxMegapixels {
				return invalid("image resolution %dx%d (%.1f MP) exceeds the %.1f MP limit",
					cfg.Width, cfg.Height, mp, v.maxMegapixels)
			}
		}
	}

	return nil
}

func (v *Validator) isAllowed(mt string) bool {
	for _, a := range v.allowed {
		if a == mt {
			return true
		}
	}
	return false
}

// attachmentBytes 返回可用于检查的原始字节；无法获得时返回 nil
func attachmentBytes(att *Attachment) ([]byte, error) {
	if att.Data != nil {
		return att.Data, nil
	}
	if att.DataURI == "" {
		return nil, fmt.Errorf("attachment has no data")
	}
	mt, payload, ok := splitDataURI(att.DataURI)
	if !ok {
		return nil, fmt.Errorf("image reference is not a data URI")
	}
	if att.MIMEType == "" {
		att.MIMEType = mt
	}
	if !strings.Contains(att.DataURI[:len(att.DataURI)-len(payload)], ";base64") {
		return nil, nil
	}
	raw, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return nil, fmt.Errorf("invalid base64 payload")
	}
	return raw, nil
}

// NormalizeMIME 去掉参数并转为小写，image/jpg 归一为 image/jpeg
func NormalizeMIME(mt string) string {
	mt = strings.TrimSpace(mt)
	if mt == "" {
		return ""
	}
	if parsed, _, err := mime.ParseMediaType(mt); err == nil {
		mt = parsed
	}
	mt = strings.ToLower(mt)
	if mt == "image/jpg" {
		return "image/jpeg"
	}
	return mt
}

func invalid(format string, args ...any) *Failure {
	return &Failure{Kind: KindInvalidInput, Message: fmt.Sprintf(format, args...)}
}
