package middleware

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func TestRequestID_GeneratesAndEchoes(t *testing.T) {
	r := gin.New()
	r.Use(RequestID())
	r.GET("/x", func(c *gin.Context) {
		c.String(http.StatusOK, c.GetString("request_id")+"|"+c.GetString("client_id"))
	})

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/x", nil))
	generated := w.Header().Get(RequestIDHeader)
	assert.NotEmpty(t, generated)
	assert.Equal(t, generated+"|", w.Body.String())

	req := httptest.NewRequest(http.MethodGet, "/x", nil)
	req.Header.Set(RequestIDHeader, "req-7")
	req.Header.Set(ClientIDHeader, " browser-1 ")
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, "req-7", w.Header().Get(RequestIDHeader))
	assert.Equal(t, "req-7|browser-1", w.Body.String())
}

func TestRecovery_ReturnsInternalError(t *testing.T) {
	r := gin.New()
	r.Use(Recovery())
	r.GET("/boom", func(*gin.Context) { panic("boom") })

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/boom", nil))
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Contains(t, w.Body.String(), "internal server error")
}

func TestLocalRateLimiter_PerKeyBurst(t *testing.T) {
	l := NewLocalRateLimiter(2)
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		ok, err := l.Allow(ctx, "a", 1, time.Hour)
		require.NoError(t, err)
		assert.True(t, ok)
	}
	ok, err := l.Allow(ctx, "a", 1, time.Hour)
	require.NoError(t, err)
	assert.False(t, ok)

	ok, err = l.Allow(ctx, "b", 1, time.Hour)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestLocalRateLimiter_EvictsIdleBuckets(t *testing.T) {
	l := NewLocalRateLimiter(1)
	now := time.Now()
	l.now = func() time.Time { return now }
	l.lastSweep = now
	ctx := context.Background()

	for _, key := range []string{"a", "b", "c"} {
		ok, err := l.Allow(ctx, key, 1, time.Hour)
		require.NoError(t, err)
		require.True(t, ok)
	}
	assert.Equal(t, 3, l.buckets())

	now = now.Add(l.idleTTL / 2)
	_, err := l.Allow(ctx, "c", 1, time.Hour)
	require.NoError(t, err)
	assert.Equal(t, 3, l.buckets())

	now = now.Add(l.idleTTL/2 + time.Second)
	ok, err := l.Allow(ctx, "d", 1, time.Hour)
	require.NoError(t, err)
	assert.True(t, ok)
	// a、b 已空闲超时被回收，c 在半程时访问过仍保留
	assert.Equal(t, 2, l.buckets())

	ok, err = l.Allow(ctx, "a", 1, time.Hour)
	require.NoError(t, err)
	assert.True(t, ok)
}

type failingLimiter struct{}

func (failingLimiter) Allow(context.Context, string, int, time.Duration) (bool, error) {
	return false, errors.New("redis down")
}

func newLimitedEngine(limiter RateLimiter) *gin.Engine {
	r := gin.New()
	r.Use(RequestID())
	r.Use(RateLimit(RateLimitConfig{Enabled: true, RequestsPerSecond: 1}, limiter))
	r.GET("/v1/ping", func(c *gin.Context) { c.Status(http.StatusNoContent) })
	return r
}

func TestRateLimit_RejectsPerClient(t *testing.T) {
	r := newLimitedEngine(NewLocalRateLimiter(1))

	send := func(client string) int {
		req := httptest.NewRequest(http.MethodGet, "/v1/ping", nil)
		req.Header.Set(ClientIDHeader, client)
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)
		return w.Code
	}

	assert.Equal(t, http.StatusNoContent, send("one"))
	assert.Equal(t, http.StatusTooManyRequests, send("one"))
	assert.Equal(t, http.StatusNoContent, send("two"))
}

func TestRateLimit_FailsOpen(t *testing.T) {
	r := newLimitedEngine(failingLimiter{})

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/v1/ping", nil))
	assert.Equal(t, http.StatusNoContent, w.Code)
}

func TestRateLimit_DisabledOrNilLimiterPassesThrough(t *testing.T) {
	r := gin.New()
	r.Use(RateLimit(RateLimitConfig{Enabled: true}, nil))
	r.GET("/v1/ping", func(c *gin.Context) { c.Status(http.StatusNoContent) })

	for i := 0; i < 3; i++ {
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/v1/ping", nil))
		assert.Equal(t, http.StatusNoContent, w.Code)
	}
}

func TestAccessLog_DoesNotAlterResponse(t *testing.T) {
	r := gin.New()
	r.Use(AccessLog(DefaultAccessLogSkipPaths...))
	r.GET("/health", func(c *gin.Context) { c.Status(http.StatusOK) })
	r.GET("/v1/fail", func(c *gin.Context) { c.Status(http.StatusBadGateway) })

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusOK, w.Code)

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/v1/fail", nil))
	assert.Equal(t, http.StatusBadGateway, w.Code)
}
