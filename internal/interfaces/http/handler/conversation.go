// Package handler 提供 HTTP 请求处理器
package handler

import (
	"io"
	"net/http"
	"strings"

	"github.com/gabriel-vasile/mimetype"
	"github.com/gin-gonic/gin"

	"jalrakshak-ai-api/internal/application/chatadapter"
	"jalrakshak-ai-api/internal/application/conversation"
	"jalrakshak-ai-api/internal/interfaces/http/dto"
	"jalrakshak-ai-api/pkg/errors"
)

// ConversationHandler 会话处理器
type ConversationHandler struct {
	svc             *conversation.Service
	maxUploadBytes  int64
	defaultPageSize int
}

// NewConversationHandler 创建会话处理器
// maxUploadBytes 限制单次请求体大小，附件本身的大小上限由发送校验负责
func NewConversationHandler(svc *conversation.Service, maxUploadBytes int64, defaultPageSize int) *ConversationHandler {
	return &ConversationHandler{
		svc:             svc,
		maxUploadBytes:  maxUploadBytes,
		defaultPageSize: defaultPageSize,
	}
}

// CreateConversation 创建会话
// @Summary 创建会话
// @Tags Conversations
// @Produce json
// @Success 201 {object} dto.Response[dto.ConversationResponse]
// @Router /v1/conversations [post]
func (h *ConversationHandler) CreateConversation(c *gin.Context) {
	conv, err := h.svc.Create(c.Request.Context(), c.GetString("client_id"))
	if err != nil {
		respondError(c, err, "failed to create conversation")
		return
	}
	dto.Created(c, dto.ToConversationResponse(conv))
}

// GetConversation 获取会话
// @Summary 获取会话
// @Tags Conversations
// @Produce json
// @Param cid path string true "会话 ID"
// @Success 200 {object} dto.Response[dto.ConversationResponse]
// @Failure 404 {object} dto.ErrorResponse
// @Router /v1/conversations/{cid} [get]
func (h *ConversationHandler) GetConversation(c *gin.Context) {
	conv, err := h.svc.Get(c.Request.Context(), dto.BindConversationID(c))
	if err != nil {
		respondError(c, err, "failed to get conversation")
		return
	}
	dto.Success(c, dto.ToConversationResponse(conv))
}

// ListTurns 分页获取会话记录
// @Summary 获取会话记录
// @Tags Conversations
// @Produce json
// @Param cid path string true "会话 ID"
// @Param page query int false "页码"
// @Param page_size query int false "每页数量"
// @Success 200 {object} dto.Response[[]dto.ChatTurnResponse]
// @Router /v1/conversations/{cid}/turns [get]
func (h *ConversationHandler) ListTurns(c *gin.Context) {
	page := dto.BindPage(c, h.defaultPageSize)
	result, err := h.svc.ListTurns(c.Request.Context(), dto.BindConversationID(c), page)
	if err != nil {
		respondError(c, err, "failed to list turns")
		return
	}
	dto.SuccessWithPage(c, dto.ToChatTurnResponses(result.Items),
		dto.NewPageMeta(result.Page, result.PageSize, int(result.Total)))
}

// SendMessage 发送消息
// 支持 JSON（text + image_data_uri）与 multipart（text + image 文件）两种格式
// @Summary 发送消息
// @Tags Conversations
// @Accept json,mpfd
// @Produce json
// @Param cid path string true "会话 ID"
// @Success 200 {object} dto.Response[dto.SendMessageResponse]
// @Failure 400 {object} dto.ErrorResponse
// @Failure 409 {object} dto.ErrorResponse
// @Router /v1/conversations/{cid}/messages [post]
func (h *ConversationHandler) SendMessage(c *gin.Context) {
	if h.maxUploadBytes > 0 {
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, h.maxUploadBytes)
	}

	var (
		in  conversation.SendInput
		err error
	)
	if strings.HasPrefix(c.ContentType(), "multipart/") {
		in, err = bindMultipartMessage(c)
	} else {
		in, err = bindJSONMessage(c)
	}
	if err != nil {
		respondError(c, err, "invalid message")
		return
	}

	result, err := h.svc.Send(c.Request.Context(), dto.BindConversationID(c), in)
	if err != nil {
		respondError(c, err, "failed to send message")
		return
	}
	dto.Success(c, dto.ToSendMessageResponse(result))
}

func bindJSONMessage(c *gin.Context) (conversation.SendInput, error) {
	var req dto.SendMessageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		return conversation.SendInput{}, errors.ErrInvalidParam.WithDetail("invalid request body: " + err.Error())
	}
	in := conversation.SendInput{Text: req.Text}
	if uri := strings.TrimSpace(req.ImageDataURI); uri != "" {
		if !chatadapter.IsDataURI(uri) {
			return in, errors.ErrAttachmentInvalid.WithDetail("image_data_uri must start with data:")
		}
		in.Attachment = chatadapter.NewDataURIAttachment(uri)
	}
	return in, nil
}

func bindMultipartMessage(c *gin.Context) (conversation.SendInput, error) {
	in := conversation.SendInput{Text: c.PostForm("text")}

	fh, err := c.FormFile("image")
	if err == http.ErrMissingFile {
		return in, nil
	}
	if err != nil {
		return in, errors.ErrAttachmentInvalid.WithDetail(err.Error())
	}

	f, err := fh.Open()
	if err != nil {
		return in, errors.ErrAttachmentInvalid.WithDetail(err.Error())
	}
	defer f.Close()

	data, err := io.ReadAll(f)
	if err != nil {
		return in, errors.ErrAttachmentInvalid.WithDetail(err.Error())
	}

	declared := fh.Header.Get("Content-Type")
	if declared == "" || declared == "application/octet-stream" {
		declared = mimetype.Detect(data).String()
	}
	in.Attachment = chatadapter.NewAttachment(data, declared)
	return in, nil
}
