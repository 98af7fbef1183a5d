// Package conversation 管理会话记录：追加回合、串行化发送、渲染失败提示以及语音协作
package conversation

import (
	"context"

	"jalrakshak-ai-api/internal/application/chatadapter"
)

// Sender 对话补全调用
type Sender interface {
	Send(ctx context.Context, req chatadapter.Request) chatadapter.Outcome
}

// Locker 会话级发送锁；ok=false 表示已有发送在进行中
type Locker interface {
	TryAcquire(ctx context.Context, conversationID string) (release func(), ok bool, err error)
}

// Speaker 语音输出，调用方不等待结果
type Speaker interface {
	Speak(ctx context.Context, text string)
}

// TranscriptEvent 语音识别事件
type TranscriptEvent struct {
	Text  string
	Final bool
}

// Listener 语音输入，返回的通道在识别结束时关闭
type Listener interface {
	Listen(ctx context.Context) (<-chan TranscriptEvent, error)
}
