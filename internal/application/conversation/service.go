package conversation

import (
	"context"
	"fmt"
	"strings"

	"go.opentelemetry.io/otel/attribute"

	"jalrakshak-ai-api/internal/application/chatadapter"
	"jalrakshak-ai-api/internal/domain/entity"
	"jalrakshak-ai-api/internal/domain/repository"
	"jalrakshak-ai-api/pkg/errors"
	"jalrakshak-ai-api/pkg/logger"
	"jalrakshak-ai-api/pkg/metrics"
	"jalrakshak-ai-api/pkg/tracer"
)

// SendInput 用户提交的一条消息
type SendInput struct {
	Text       string
	Attachment *chatadapter.Attachment
}

// SendResult 一次发送产生的两个回合与结果
type SendResult struct {
	UserTurn      *entity.ChatTurn
	AssistantTurn *entity.ChatTurn
	Outcome       chatadapter.Outcome
}

// Service 会话服务
type Service struct {
	convs   repository.ConversationRepository
	turns   repository.ChatTurnRepository
	sender  Sender
	locker  Locker
	speaker Speaker
}

// NewService 创建会话服务；speaker 可为 nil
func NewService(
	convs repository.ConversationRepository,
	turns repository.ChatTurnRepository,
	sender Sender,
	locker Locker,
	speaker Speaker,
) *Service {
	if locker == nil {
		locker = NewLocalLocker()
	}
	return &Service{
		convs:   convs,
		turns:   turns,
		sender:  sender,
		locker:  locker,
		speaker: speaker,
	}
}

// Create 创建会话
func (s *Service) Create(ctx context.Context, clientID string) (*entity.Conversation, error) {
	conv := entity.NewConversation(clientID)
	if err := s.convs.Create(ctx, conv); err != nil {
		return nil, errors.Wrap(err, errors.CodeDatabaseError, "failed to create conversation")
	}
	logger.Info(logger.WithContext(ctx, logger.ConversationIDKey, conv.ID), "conversation created")
	return conv, nil
}

// Get 获取会话
func (s *Service) Get(ctx context.Context, id string) (*entity.Conversation, error) {
	conv, err := s.convs.GetByID(ctx, id)
	if err != nil {
		return nil, errors.Wrap(err, errors.CodeDatabaseError, "failed to get conversation")
	}
	if conv == nil {
		return nil, errors.ErrConversationNotFound
	}
	return conv, nil
}

// ListTurns 按创建顺序分页返回会话记录
func (s *Service) ListTurns(ctx context.Context, id string, page repository.Pagination) (*repository.PagedResult[*entity.ChatTurn], error) {
	if _, err := s.Get(ctx, id); err != nil {
		return nil, err
	}
	result, err := s.turns.ListByConversation(ctx, id, page)
	if err != nil {
		return nil, errors.Wrap(err, errors.CodeDatabaseError, "failed to list turns")
	}
	return result, nil
}

// Send 追加用户回合，调用对话补全，再追加助手回合
// 同一会话同时只允许一次发送；调用方取消时不追加助手回合
func (s *Service) Send(ctx context.Context, conversationID string, in SendInput) (*SendResult, error) {
	// 附件只消费一次，无论成功与否都释放
	defer in.Attachment.Release()

	ctx = logger.WithContext(ctx, logger.ConversationIDKey, conversationID)
	ctx, span := tracer.Start(ctx, "conversation.Send")
	defer span.End()
	span.SetAttributes(
		attribute.String("conversation.id", conversationID),
		attribute.Bool("conversation.has_attachment", in.Attachment != nil),
	)

	if strings.TrimSpace(in.Text) == "" && in.Attachment == nil {
		metrics.ConversationSendTotal.WithLabelValues("rejected").Inc()
		return nil, errors.ErrEmptyMessage
	}

	if _, err := s.Get(ctx, conversationID); err != nil {
		return nil, err
	}

	release, ok, err := s.locker.TryAcquire(ctx, conversationID)
	if err != nil {
		span.RecordError(err)
		return nil, errors.Wrap(err, errors.CodeCacheError, "failed to acquire send lock")
	}
	if !ok {
		metrics.ConversationSendTotal.WithLabelValues("busy").Inc()
		return nil, errors.ErrConversationBusy
	}
	defer release()

	userTurn := entity.NewUserTurn(conversationID, in.Text)
	if in.Attachment != nil {
		userTurn.WithAttachment(chatadapter.NormalizeMIME(in.Attachment.MIMEType), in.Attachment.SizeBytes)
	}
	if err := s.turns.Append(ctx, userTurn); err != nil {
		span.RecordError(err)
		return nil, errors.Wrap(err, errors.CodeDatabaseError, "failed to append user turn")
	}

	outcome := s.sender.Send(ctx, chatadapter.Request{PromptText: in.Text, Attachment: in.Attachment})
	if ctx.Err() != nil {
		metrics.ConversationSendTotal.WithLabelValues("canceled").Inc()
		return nil, fmt.Errorf("send canceled: %w", ctx.Err())
	}

	assistantTurn := entity.NewAssistantTurn(conversationID, ReplyText(outcome), entity.OutcomeKind(outcome.Kind()))
	if err := s.turns.Append(ctx, assistantTurn); err != nil {
		span.RecordError(err)
		return nil, errors.Wrap(err, errors.CodeDatabaseError, "failed to append assistant turn")
	}

	if outcome.IsSuccess() {
		metrics.ConversationSendTotal.WithLabelValues("success").Inc()
		s.speak(ctx, outcome.Text)
	} else {
		metrics.ConversationSendTotal.WithLabelValues("failure").Inc()
	}

	return &SendResult{UserTurn: userTurn, AssistantTurn: assistantTurn, Outcome: outcome}, nil
}

func (s *Service) speak(ctx context.Context, text string) {
	if s.speaker == nil || strings.TrimSpace(text) == "" {
		return
	}
	metrics.SpeechDispatched.Inc()
	go s.speaker.Speak(context.WithoutCancel(ctx), text)
}

// ConsumeTranscripts 将最终识别结果依次作为消息发送，忽略中间结果
// 通道关闭时返回 nil，上下文结束时返回 ctx.Err()
func (s *Service) ConsumeTranscripts(ctx context.Context, conversationID string, events <-chan TranscriptEvent, onResult func(*SendResult, error)) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case ev, ok := <-events:
			if !ok {
				return nil
			}
			if !ev.Final || strings.TrimSpace(ev.Text) == "" {
				continue
			}
			res, err := s.Send(ctx, conversationID, SendInput{Text: ev.Text})
			if err != nil {
				logger.Warn(ctx, "voice transcript not sent", "conversation_id", conversationID, "error", err.Error())
			}
			if onResult != nil {
				onResult(res, err)
			}
		}
	}
}

// Listen 启动语音输入并消费其识别结果
func (s *Service) Listen(ctx context.Context, conversationID string, listener Listener, onResult func(*SendResult, error)) error {
	events, err := listener.Listen(ctx)
	if err != nil {
		return fmt.Errorf("failed to start listening: %w", err)
	}
	return s.ConsumeTranscripts(ctx, conversationID, events, onResult)
}
