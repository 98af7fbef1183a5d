//go:build wireinject
// +build wireinject

// Package wire 提供依赖注入配置
package wire

import (
	"context"

	"github.com/google/wire"

	"jalrakshak-ai-api/internal/application/chatadapter"
	"jalrakshak-ai-api/internal/application/conversation"
	"jalrakshak-ai-api/internal/config"
	"jalrakshak-ai-api/internal/domain/repository"
	"jalrakshak-ai-api/internal/infrastructure/persistence/gormstore"
	"jalrakshak-ai-api/internal/interfaces/http/handler"
	"jalrakshak-ai-api/internal/interfaces/http/router"
)

// InitializeDatabase 仅初始化数据库（用于 bootstrap 迁移）
func InitializeDatabase(ctx context.Context, cfg *config.Config) (*gormstore.Client, func(), error) {
	wire.Build(
		ProvideDatabaseClient,
	)
	return nil, nil, nil
}

// InitializeConversationService 初始化会话服务（用于命令行客户端）
func InitializeConversationService(ctx context.Context, cfg *config.Config) (*conversation.Service, func(), error) {
	wire.Build(
		ConversationRepoSet,
		LockSet,
		ChatSet,
	)
	return nil, nil, nil
}

// InitializeApp 初始化整个应用（带路由器）
func InitializeApp(ctx context.Context, cfg *config.Config) (*router.Router, func(), error) {
	wire.Build(
		ConversationRepoSet,
		PreferenceRepoSet,
		RedisSet,
		ChatSet,
		PreferenceSet,
		RouterSet,
	)
	return nil, nil, nil
}

// ConversationRepoSet 会话存储与接口绑定
var ConversationRepoSet = wire.NewSet(
	ProvideDatabaseClient,
	gormstore.NewTxManager,
	gormstore.NewConversationRepository,
	gormstore.NewChatTurnRepository,
	wire.Bind(new(repository.Transactor), new(*gormstore.TxManager)),
	wire.Bind(new(repository.ConversationRepository), new(*gormstore.ConversationRepository)),
	wire.Bind(new(repository.ChatTurnRepository), new(*gormstore.ChatTurnRepository)),
)

// PreferenceRepoSet 偏好存储
var PreferenceRepoSet = wire.NewSet(
	gormstore.NewPreferenceRepository,
	wire.Bind(new(repository.PreferenceRepository), new(*gormstore.PreferenceRepository)),
)

// LockSet 会话发送锁（Redis 不可用时退化为进程内锁）
var LockSet = wire.NewSet(
	ProvideRedisClientOptional,
	ProvideSendLocker,
)

// RedisSet 可选 Redis 的全部用途
var RedisSet = wire.NewSet(
	LockSet,
	ProvidePreferenceCacheOptional,
	ProvideRateLimiter,
)

// ChatSet 对话补全与会话服务
var ChatSet = wire.NewSet(
	ProvideChatAdapter,
	ProvideSpeaker,
	wire.Bind(new(conversation.Sender), new(*chatadapter.Adapter)),
	conversation.NewService,
)

// PreferenceSet 偏好服务
var PreferenceSet = wire.NewSet(
	ProvidePreferenceService,
)

// RouterSet 路由器提供者集合
var RouterSet = wire.NewSet(
	ProvideHealthHandler,
	ProvideConversationHandler,
	handler.NewPreferenceHandler,
	wire.Struct(new(router.Handlers), "*"),
	router.New,
)
