// Package chatadapter 将一次用户输入（文本，可附一张图片）转换为一次对话补全调用，
// 并把结果或失败统一归一为 Outcome。
package chatadapter

import (
	"fmt"
	"strings"
)

// ErrorKind 失败类别
type ErrorKind string

const (
	// KindInvalidInput 本地校验失败，从未发起网络请求
	KindInvalidInput ErrorKind = "invalid_input"
	// KindNetwork 传输层失败（连接失败、超时、取消），未获得响应
	KindNetwork ErrorKind = "network"
	// KindAPIError 服务端返回非 2xx 状态
	KindAPIError ErrorKind = "api_error"
	// KindMalformed 2xx 状态但响应为空、无法解析或结构不符
	KindMalformed ErrorKind = "malformed"
)

// Shape 请求形态
type Shape string

const (
	ShapeText  Shape = "text"
	ShapeImage Shape = "image"
)

// Attachment 待发送的图片附件，只被消费一次，发送后释放
// Data 与 DataURI 二选一；DataURI 以 "data:" 开头时原样透传
type Attachment struct {
	Data      []byte
	DataURI   string
	MIMEType  string
	SizeBytes int64
}

// NewAttachment 由原始字节创建附件
func NewAttachment(data []byte, mimeType string) *Attachment {
	return &Attachment{Data: data, MIMEType: mimeType, SizeBytes: int64(len(data))}
}

// NewDataURIAttachment 由已编码的 data URI 创建附件
func NewDataURIAttachment(dataURI string) *Attachment {
	a := &Attachment{DataURI: dataURI}
	if mt, payload, ok := splitDataURI(dataURI); ok {
		a.MIMEType = mt
		a.SizeBytes = decodedLen(payload)
	}
	return a
}

// Release 清零并丢弃附件数据，可重复调用
func (a *Attachment) Release() {
	if a == nil {
		return
	}
	clear(a.Data)
	a.Data = nil
	a.DataURI = ""
}

// Released 附件数据是否已释放
func (a *Attachment) Released() bool {
	return a == nil || (a.Data == nil && a.DataURI == "")
}

// Request 单次调用的输入
type Request struct {
	PromptText string
	Attachment *Attachment
}

// Shape 根据是否带附件返回请求形态
func (r Request) Shape() Shape {
	if r.Attachment != nil {
		return ShapeImage
	}
	return ShapeText
}

// IsEmpty 文本为空白且无附件
func (r Request) IsEmpty() bool {
	return strings.TrimSpace(r.PromptText) == "" && r.Attachment == nil
}

// Failure 失败结果
type Failure struct {
	Kind    ErrorKind `json:"kind"`
	Message string    `json:"message"`
}

func (f *Failure) Error() string {
	return fmt.Sprintf("%s: %s", f.Kind, f.Message)
}

// Outcome 每个 Request 对应恰好一个 Outcome：Failure 为 nil 时为成功
type Outcome struct {
	Text    string
	Failure *Failure
}

// Succeeded 构造成功结果
func Succeeded(text string) Outcome {
	return Outcome{Text: text}
}

// Failed 构造失败结果
func Failed(kind ErrorKind, message string) Outcome {
	return Outcome{Failure: &Failure{Kind: kind, Message: message}}
}

// IsSuccess 是否成功
func (o Outcome) IsSuccess() bool {
	return o.Failure == nil
}

// Kind 失败类别，成功时为空
func (o Outcome) Kind() ErrorKind {
	if o.Failure == nil {
		return ""
	}
	return o.Failure.Kind
}

// Label 用于指标标签
func (o Outcome) Label() string {
	if o.Failure == nil {
		return "success"
	}
	return string(o.Failure.Kind)
}
