// Package preference 持久化客户端界面偏好（深色模式）
package preference

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	"jalrakshak-ai-api/internal/domain/entity"
	"jalrakshak-ai-api/internal/domain/repository"
	"jalrakshak-ai-api/pkg/errors"
	"jalrakshak-ai-api/pkg/logger"
)

// Cache 偏好读穿缓存
type Cache interface {
	GetOrLoadSafe(ctx context.Context, key string, ttl time.Duration, loader func(ctx context.Context) (any, error)) ([]byte, error)
	Delete(ctx context.Context, keys ...string) error
}

// Service 偏好服务
type Service struct {
	repo  repository.PreferenceRepository
	cache Cache
	ttl   time.Duration
}

// NewService 创建偏好服务；cache 为 nil 时直接读库
func NewService(repo repository.PreferenceRepository, cache Cache, ttl time.Duration) *Service {
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &Service{repo: repo, cache: cache, ttl: ttl}
}

func cacheKey(clientID string) string {
	return "pref:" + clientID
}

// Get 获取偏好，从未保存过时返回默认值
func (s *Service) Get(ctx context.Context, clientID string) (*entity.Preference, error) {
	clientID = strings.TrimSpace(clientID)
	if clientID == "" {
		return nil, errors.ErrInvalidParam.WithDetail("client_id is required")
	}

	if s.cache != nil {
		raw, err := s.cache.GetOrLoadSafe(ctx, cacheKey(clientID), s.ttl, func(ctx context.Context) (any, error) {
			return s.load(ctx, clientID)
		})
		if err == nil {
			var pref entity.Preference
			if err := json.Unmarshal(raw, &pref); err == nil {
				return &pref, nil
			}
		}
		// 缓存不可用时退回数据库
		logger.Warn(ctx, "preference cache unavailable, reading from database", "client_id", clientID)
	}

	return s.load(ctx, clientID)
}

func (s *Service) load(ctx context.Context, clientID string) (*entity.Preference, error) {
	pref, err := s.repo.Get(ctx, clientID)
	if err != nil {
		return nil, errors.Wrap(err, errors.CodeDatabaseError, "failed to load preference")
	}
	if pref == nil {
		pref = entity.DefaultPreference(clientID)
	}
	return pref, nil
}

// SetDarkMode 保存深色模式开关并使缓存失效
func (s *Service) SetDarkMode(ctx context.Context, clientID string, enabled bool) (*entity.Preference, error) {
	clientID = strings.TrimSpace(clientID)
	if clientID == "" {
		return nil, errors.ErrInvalidParam.WithDetail("client_id is required")
	}

	pref := &entity.Preference{ClientID: clientID, DarkMode: enabled, UpdatedAt: time.Now()}
	if err := s.repo.Upsert(ctx, pref); err != nil {
		return nil, errors.Wrap(err, errors.CodeDatabaseError, "failed to save preference")
	}

	if s.cache != nil {
		if err := s.cache.Delete(ctx, cacheKey(clientID)); err != nil {
			logger.Warn(ctx, "failed to invalidate preference cache", "client_id", clientID, "error", err.Error())
		}
	}
	return pref, nil
}
