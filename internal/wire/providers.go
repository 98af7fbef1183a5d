package wire

import (
	"context"

	"jalrakshak-ai-api/internal/application/chatadapter"
	"jalrakshak-ai-api/internal/application/conversation"
	"jalrakshak-ai-api/internal/application/preference"
	"jalrakshak-ai-api/internal/config"
	"jalrakshak-ai-api/internal/domain/repository"
	"jalrakshak-ai-api/internal/infrastructure/messaging"
	"jalrakshak-ai-api/internal/infrastructure/persistence/gormstore"
	"jalrakshak-ai-api/internal/infrastructure/persistence/redis"
	"jalrakshak-ai-api/internal/infrastructure/speech"
	"jalrakshak-ai-api/internal/interfaces/http/handler"
	"jalrakshak-ai-api/internal/interfaces/http/middleware"
	"jalrakshak-ai-api/pkg/logger"
)

// uploadSlack 请求体中除图片外字段的余量
const uploadSlack = 64 << 10

// ProvideDatabaseClient 提供数据库客户端
func ProvideDatabaseClient(ctx context.Context, cfg *config.Config) (*gormstore.Client, func(), error) {
	client, err := gormstore.NewClient(&cfg.Database)
	if err != nil {
		return nil, nil, err
	}
	logger.Debug(ctx, "database connected", "driver", client.Driver())
	cleanup := func() {
		_ = client.Close()
	}
	return client, cleanup, nil
}

// ProvideRedisClientOptional 提供可选的 Redis 客户端；未启用或不可达时返回 nil
func ProvideRedisClientOptional(ctx context.Context, cfg *config.Config) (*redis.Client, func(), error) {
	if !cfg.Cache.Redis.Enabled {
		return nil, func() {}, nil
	}
	client, err := redis.NewClient(&cfg.Cache.Redis)
	if err != nil {
		logger.Warn(ctx, "redis not available, falling back to in-process cache, lock and limiter", "error", err.Error())
		return nil, func() {}, nil
	}
	cleanup := func() {
		_ = client.Close()
	}
	return client, cleanup, nil
}

// ProvidePreferenceCacheOptional Redis 不可用时返回 nil，偏好直接读库
func ProvidePreferenceCacheOptional(client *redis.Client) preference.Cache {
	if client == nil {
		return nil
	}
	return redis.NewCache(client, "preference")
}

// ProvideRateLimiter 优先使用 Redis 滑动窗口，否则使用进程内令牌桶
func ProvideRateLimiter(cfg *config.Config, client *redis.Client) middleware.RateLimiter {
	if client == nil {
		return middleware.NewLocalRateLimiter(cfg.Security.RateLimit.Burst)
	}
	return redis.NewRateLimiter(client)
}

// ProvideSendLocker 会话发送锁
func ProvideSendLocker(cfg *config.Config, client *redis.Client) conversation.Locker {
	if client == nil {
		return conversation.NewLocalLocker()
	}
	return redis.NewSendLock(client, cfg.Conversation.LockTTL)
}

// ProvideChatAdapter 提供对话补全适配器
func ProvideChatAdapter(cfg *config.Config) *chatadapter.Adapter {
	return chatadapter.NewAdapter(&cfg.Chat, &cfg.Attachment)
}

// ProvideSpeaker 按配置选择语音输出；启用且 Redis 可用时投递到消息流
func ProvideSpeaker(cfg *config.Config, client *redis.Client) conversation.Speaker {
	if cfg.Speech.Enabled && client != nil {
		producer := messaging.NewProducer(client.Redis(), cfg.Speech.StreamMaxLen)
		return speech.NewStreamSpeaker(producer, cfg.Speech.Language)
	}
	return speech.NewSpeaker(cfg.Speech.Enabled)
}

// ProvidePreferenceService 提供偏好服务
func ProvidePreferenceService(cfg *config.Config, repo repository.PreferenceRepository, cache preference.Cache) *preference.Service {
	return preference.NewService(repo, cache, cfg.Cache.Redis.PreferenceTTL)
}

// ProvideHealthHandler 健康检查处理器；Redis 未启用时不参与就绪检查
func ProvideHealthHandler(cfg *config.Config, db *gormstore.Client, rc *redis.Client, adapter *chatadapter.Adapter) *handler.HealthHandler {
	var redisChecker handler.HealthChecker
	if rc != nil {
		redisChecker = rc
	}
	return handler.NewHealthHandler(db, redisChecker, adapter.Configured(), cfg.App.Version)
}

// ProvideConversationHandler 会话处理器
func ProvideConversationHandler(cfg *config.Config, svc *conversation.Service) *handler.ConversationHandler {
	maxUpload := uploadLimit(cfg.Server.HTTP.MaxMultipartMemory.Int64(), cfg.Attachment.MaxSize.Int64())
	return handler.NewConversationHandler(svc, maxUpload, cfg.Conversation.HistoryPageSize)
}

// uploadLimit 请求体上限需容纳 base64 编码后的最大附件（JSON data URI）
func uploadLimit(multipartMemory, attachmentMax int64) int64 {
	encoded := (attachmentMax + 2) / 3 * 4
	return max(multipartMemory, encoded+uploadSlack)
}
