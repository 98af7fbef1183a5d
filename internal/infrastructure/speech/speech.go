// Package speech 提供语音输入输出能力的服务端实现
package speech

import (
	"bufio"
	"context"
	"io"
	"strings"

	"jalrakshak-ai-api/internal/application/conversation"
	"jalrakshak-ai-api/internal/infrastructure/messaging"
	"jalrakshak-ai-api/pkg/logger"
)

// NoopSpeaker 丢弃所有语音输出
type NoopSpeaker struct{}

func (NoopSpeaker) Speak(context.Context, string) {}

// LogSpeaker 将待朗读文本写入日志，供接入外部 TTS 前调试使用
type LogSpeaker struct{}

func (LogSpeaker) Speak(ctx context.Context, text string) {
	logger.Info(ctx, "speech output requested", "chars", len([]rune(text)))
}

// NewSpeaker 根据开关选择实现
func NewSpeaker(enabled bool) conversation.Speaker {
	if enabled {
		return LogSpeaker{}
	}
	return NoopSpeaker{}
}

// StreamSpeaker 将待朗读文本投递到 Redis Stream，由外部 TTS 进程朗读
type StreamSpeaker struct {
	producer *messaging.Producer
	language string
}

// NewStreamSpeaker 创建基于消息流的语音输出
func NewStreamSpeaker(producer *messaging.Producer, language string) *StreamSpeaker {
	return &StreamSpeaker{producer: producer, language: language}
}

func (s *StreamSpeaker) Speak(ctx context.Context, text string) {
	conversationID, _ := ctx.Value(logger.ConversationIDKey).(string)
	if _, err := s.producer.PublishSpeech(ctx, conversationID, &messaging.SpeechMessage{
		Text:     text,
		Language: s.language,
	}); err != nil {
		logger.Warn(ctx, "failed to publish speech request", "error", err.Error())
	}
}

// LineListener 将每一行输入视为一次最终识别结果
type LineListener struct {
	r io.Reader
}

// NewLineListener 创建按行识别的监听器
func NewLineListener(r io.Reader) *LineListener {
	return &LineListener{r: r}
}

func (l *LineListener) Listen(ctx context.Context) (<-chan conversation.TranscriptEvent, error) {
	out := make(chan conversation.TranscriptEvent)
	go func() {
		defer close(out)
		scanner := bufio.NewScanner(l.r)
		for scanner.Scan() {
			text := strings.TrimSpace(scanner.Text())
			if text == "" {
				continue
			}
			select {
			case out <- conversation.TranscriptEvent{Text: text, Final: true}:
			case <-ctx.Done():
				return
			}
		}
	}()
	return out, nil
}
