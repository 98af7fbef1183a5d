package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/otel/attribute"
)

// releaseScript 仅当锁仍归属于持有者时删除
var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// SendLock 基于 SET NX PX 的会话发送锁，跨实例保证同一会话同时只有一次发送
type SendLock struct {
	client *Client
	ttl    time.Duration
}

// NewSendLock 创建发送锁
func NewSendLock(client *Client, ttl time.Duration) *SendLock {
	if ttl <= 0 {
		ttl = 2 * time.Minute
	}
	return &SendLock{client: client, ttl: ttl}
}

func sendLockKey(conversationID string) string {
	return "conv:sending:" + conversationID
}

// TryAcquire 尝试获取锁，已被占用时返回 ok=false
func (l *SendLock) TryAcquire(ctx context.Context, conversationID string) (func(), bool, error) {
	ctx, span := tracer.Start(ctx, "sendlock.TryAcquire")
	defer span.End()
	span.SetAttributes(attribute.String("conversation.id", conversationID))

	key := sendLockKey(conversationID)
	token := uuid.NewString()

	ok, err := l.client.rdb.SetNX(ctx, key, token, l.ttl).Result()
	if err != nil {
		span.RecordError(err)
		return nil, false, fmt.Errorf("failed to acquire send lock: %w", err)
	}
	span.SetAttributes(attribute.Bool("sendlock.acquired", ok))
	if !ok {
		return nil, false, nil
	}

	release := func() {
		// 请求上下文可能已取消，释放使用独立上下文
		rctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 3*time.Second)
		defer cancel()
		_ = releaseScript.Run(rctx, l.client.rdb, []string{key}, token).Err()
	}
	return release, true, nil
}
