package middleware

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"

	"jalrakshak-ai-api/pkg/logger"
	"jalrakshak-ai-api/pkg/metrics"
)

// RateLimitConfig 限流配置
type RateLimitConfig struct {
	Enabled           bool
	RequestsPerSecond int
	Burst             int
	KeyPrefix         string
}

// RateLimiter 限流器接口
type RateLimiter interface {
	Allow(ctx context.Context, key string, limit int, window time.Duration) (bool, error)
}

// RateLimit 限流中间件，按客户端标识（缺省为来源 IP）与路由限流
func RateLimit(cfg RateLimitConfig, limiter RateLimiter) gin.HandlerFunc {
	if !cfg.Enabled || limiter == nil {
		return func(c *gin.Context) {
			c.Next()
		}
	}

	if cfg.RequestsPerSecond <= 0 {
		cfg.RequestsPerSecond = 100
	}
	if cfg.KeyPrefix == "" {
		cfg.KeyPrefix = "ratelimit"
	}

	return func(c *gin.Context) {
		who := c.GetString("client_id")
		if who == "" {
			who = c.ClientIP()
		}
		path := routePath(c)
		key := cfg.KeyPrefix + ":" + who + ":" + path

		allowed, err := limiter.Allow(c.Request.Context(), key, cfg.RequestsPerSecond, time.Second)
		if err != nil {
			// 限流器故障时放行
			logger.Warn(c.Request.Context(), "rate limiter unavailable", "error", err.Error())
			c.Next()
			return
		}

		if !allowed {
			metrics.HTTPRateLimited.WithLabelValues(path).Inc()
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{
				"code":     http.StatusTooManyRequests,
				"message":  "rate limit exceeded",
				"trace_id": c.GetString("trace_id"),
			})
			return
		}

		c.Next()
	}
}

// localLimiterIdleTTL 进程内限流桶的空闲回收时间
const localLimiterIdleTTL = 10 * time.Minute

type localLimiter struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// LocalRateLimiter 进程内令牌桶限流，未启用 Redis 时使用；空闲的桶按 idleTTL 周期回收
type LocalRateLimiter struct {
	burst     int
	idleTTL   time.Duration
	now       func() time.Time
	mu        sync.Mutex
	limiters  map[string]*localLimiter
	lastSweep time.Time
}

// NewLocalRateLimiter 创建进程内限流器；burst<=0 时等于每秒请求数
func NewLocalRateLimiter(burst int) *LocalRateLimiter {
	return &LocalRateLimiter{
		burst:     burst,
		idleTTL:   localLimiterIdleTTL,
		now:       time.Now,
		limiters:  make(map[string]*localLimiter),
		lastSweep: time.Now(),
	}
}

func (l *LocalRateLimiter) Allow(_ context.Context, key string, limit int, window time.Duration) (bool, error) {
	now := l.now()

	l.mu.Lock()
	if now.Sub(l.lastSweep) >= l.idleTTL {
		l.sweep(now)
	}
	entry, ok := l.limiters[key]
	if !ok {
		burst := l.burst
		if burst <= 0 {
			burst = limit
		}
		entry = &localLimiter{limiter: rate.NewLimiter(rate.Limit(float64(limit)/window.Seconds()), burst)}
		l.limiters[key] = entry
	}
	entry.lastSeen = now
	l.mu.Unlock()

	return entry.limiter.AllowN(now, 1), nil
}

// sweep 删除超过 idleTTL 未访问的桶，调用方持有锁
func (l *LocalRateLimiter) sweep(now time.Time) {
	for key, entry := range l.limiters {
		if now.Sub(entry.lastSeen) >= l.idleTTL {
			delete(l.limiters, key)
		}
	}
	l.lastSweep = now
}

// buckets 当前持有的限流桶数量
func (l *LocalRateLimiter) buckets() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.limiters)
}
