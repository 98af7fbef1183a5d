package router

import (
	"bytes"
	"context"
	"encoding/json"
	"image"
	"image/png"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tidwall/gjson"

	"jalrakshak-ai-api/internal/application/chatadapter"
	"jalrakshak-ai-api/internal/application/conversation"
	"jalrakshak-ai-api/internal/application/preference"
	"jalrakshak-ai-api/internal/config"
	"jalrakshak-ai-api/internal/infrastructure/persistence/gormstore"
	"jalrakshak-ai-api/internal/interfaces/http/handler"
	"jalrakshak-ai-api/internal/interfaces/http/middleware"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type testEnv struct {
	engine   *gin.Engine
	provider *httptest.Server
	calls    int
	lastBody []byte
	reply    string
	status   int
}

func newTestEnv(t *testing.T, limiter middleware.RateLimiter) *testEnv {
	t.Helper()
	env := &testEnv{reply: `{"choices":[{"message":{"content":"Boil the water first."}}]}`, status: http.StatusOK}
	env.provider = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		env.calls++
		env.lastBody, _ = io.ReadAll(r.Body)
		w.WriteHeader(env.status)
		_, _ = io.WriteString(w, env.reply)
	}))
	t.Cleanup(env.provider.Close)

	cfg := &config.Config{
		App: config.AppConfig{Name: "jalrakshak-test", Env: "test"},
		Chat: config.ChatConfig{
			BaseURL:            env.provider.URL,
			APIKey:             "k",
			TextModel:          "text",
			VisionModel:        "vision",
			MaxOutputTokens:    64,
			Persona:            "persona",
			DefaultImagePrompt: "Describe this image.",
		},
		Attachment: config.AttachmentConfig{
			MaxSize:          1 << 20,
			MaxMegapixels:    33.1776,
			AllowedMIMETypes: []string{"image/jpeg", "image/png", "image/webp"},
		},
		Security: config.SecurityConfig{
			RateLimit: config.RateLimitConfig{Enabled: limiter != nil, RequestsPerSecond: 2, Burst: 2},
		},
	}

	db, err := gormstore.NewClient(&config.DatabaseConfig{
		Driver:   gormstore.DriverSQLite,
		SQLite:   config.SQLiteConfig{Path: ":memory:"},
		LogLevel: "silent",
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	require.NoError(t, db.AutoMigrate(context.Background()))

	tx := gormstore.NewTxManager(db)
	adapter := chatadapter.NewAdapter(&cfg.Chat, &cfg.Attachment)
	convSvc := conversation.NewService(
		gormstore.NewConversationRepository(db),
		gormstore.NewChatTurnRepository(db, tx),
		adapter,
		conversation.NewLocalLocker(),
		nil,
	)
	prefSvc := preference.NewService(gormstore.NewPreferenceRepository(db), nil, 0)

	r := New(cfg, Handlers{
		Health:       handler.NewHealthHandler(db, nil, adapter.Configured(), "test"),
		Conversation: handler.NewConversationHandler(convSvc, 8<<20, 50),
		Preference:   handler.NewPreferenceHandler(prefSvc),
	}, limiter)
	env.engine = r.Engine()
	return env
}

func (e *testEnv) do(t *testing.T, method, path string, body io.Reader, contentType string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, body)
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	req.Header.Set(middleware.ClientIDHeader, "browser-1")
	w := httptest.NewRecorder()
	e.engine.ServeHTTP(w, req)
	return w
}

func (e *testEnv) createConversation(t *testing.T) string {
	t.Helper()
	w := e.do(t, http.MethodPost, "/v1/conversations", nil, "")
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	id := gjson.Get(w.Body.String(), "data.id").String()
	require.NotEmpty(t, id)
	return id
}

func jsonBody(t *testing.T, v any) io.Reader {
	t.Helper()
	b, err := json.Marshal(v)
	require.NoError(t, err)
	return bytes.NewReader(b)
}

func TestHealthEndpoints(t *testing.T) {
	env := newTestEnv(t, nil)

	w := env.do(t, http.MethodGet, "/health", nil, "")
	assert.Equal(t, http.StatusOK, w.Code)

	w = env.do(t, http.MethodGet, "/ready", nil, "")
	assert.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, "ok", gjson.Get(w.Body.String(), "checks.database.status").String())
	assert.Equal(t, "disabled", gjson.Get(w.Body.String(), "checks.redis.status").String())
	assert.Equal(t, "ok", gjson.Get(w.Body.String(), "checks.chat.status").String())

	w = env.do(t, http.MethodGet, "/live", nil, "")
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestConversationFlow_JSONText(t *testing.T) {
	env := newTestEnv(t, nil)
	id := env.createConversation(t)

	w := env.do(t, http.MethodPost, "/v1/conversations/"+id+"/messages",
		jsonBody(t, map[string]string{"text": "Is my well water safe?"}), "application/json")
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	body := w.Body.String()
	assert.Equal(t, "success", gjson.Get(body, "data.outcome.status").String())
	assert.Equal(t, "user", gjson.Get(body, "data.user_turn.role").String())
	assert.Equal(t, "Boil the water first.", gjson.Get(body, "data.assistant_turn.content").String())
	assert.Equal(t, 1, env.calls)

	w = env.do(t, http.MethodGet, "/v1/conversations/"+id+"/turns", nil, "")
	require.Equal(t, http.StatusOK, w.Code)
	turns := gjson.Get(w.Body.String(), "data").Array()
	require.Len(t, turns, 2)
	assert.EqualValues(t, 1, turns[0].Get("seq").Int())
	assert.EqualValues(t, 2, gjson.Get(w.Body.String(), "meta.total").Int())

	w = env.do(t, http.MethodGet, "/v1/conversations/"+id, nil, "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.EqualValues(t, 2, gjson.Get(w.Body.String(), "data.turn_count").Int())
	assert.Equal(t, "browser-1", gjson.Get(w.Body.String(), "data.client_id").String())
}

func TestConversationFlow_MultipartImage(t *testing.T) {
	env := newTestEnv(t, nil)
	id := env.createConversation(t)

	var img bytes.Buffer
	require.NoError(t, png.Encode(&img, image.NewGray(image.Rect(0, 0, 3, 3))))

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	require.NoError(t, mw.WriteField("text", ""))
	h := textproto.MIMEHeader{}
	h.Set("Content-Disposition", `form-data; name="image"; filename="glass.png"`)
	h.Set("Content-Type", "application/octet-stream")
	part, err := mw.CreatePart(h)
	require.NoError(t, err)
	_, err = part.Write(img.Bytes())
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	w := env.do(t, http.MethodPost, "/v1/conversations/"+id+"/messages", &buf, mw.FormDataContentType())
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	body := w.Body.String()
	assert.Equal(t, "image/png", gjson.Get(body, "data.user_turn.attachment_mime").String())
	assert.NotEmpty(t, gjson.Get(body, "data.user_turn.attached_image_ref").String())

	sent := gjson.ParseBytes(env.lastBody)
	assert.Equal(t, "vision", sent.Get("model").String())
	assert.Equal(t, "Describe this image.", sent.Get("messages.0.content.0.text").String())
	assert.Contains(t, sent.Get("messages.0.content.1.image_url.url").String(), "data:image/png;base64,")
}

func TestConversationFlow_InvalidImageBecomesFailureTurn(t *testing.T) {
	env := newTestEnv(t, nil)
	id := env.createConversation(t)

	w := env.do(t, http.MethodPost, "/v1/conversations/"+id+"/messages",
		jsonBody(t, map[string]string{"text": "what is this", "image_data_uri": "data:image/gif;base64,R0lGODlhAQABAAAAACw="}),
		"application/json")
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	body := w.Body.String()
	assert.Equal(t, "failure", gjson.Get(body, "data.outcome.status").String())
	assert.Equal(t, "invalid_input", gjson.Get(body, "data.outcome.kind").String())
	assert.True(t, gjson.Get(body, "data.assistant_turn.failed").Bool())
	assert.Contains(t, gjson.Get(body, "data.assistant_turn.content").String(), "different image")
	assert.Equal(t, 0, env.calls)
}

func TestConversationFlow_ProviderErrorSurfaced(t *testing.T) {
	env := newTestEnv(t, nil)
	env.status = http.StatusInternalServerError
	env.reply = `{"error":{"message":"overloaded"}}`
	id := env.createConversation(t)

	w := env.do(t, http.MethodPost, "/v1/conversations/"+id+"/messages",
		jsonBody(t, map[string]string{"text": "hi"}), "application/json")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "api_error", gjson.Get(w.Body.String(), "data.outcome.kind").String())
	assert.Equal(t, "overloaded", gjson.Get(w.Body.String(), "data.outcome.message").String())
}

func TestSendMessage_EmptyRejected(t *testing.T) {
	env := newTestEnv(t, nil)
	id := env.createConversation(t)

	w := env.do(t, http.MethodPost, "/v1/conversations/"+id+"/messages",
		jsonBody(t, map[string]string{"text": "  "}), "application/json")
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "4001", gjson.Get(w.Body.String(), "error.error_code").String())
	assert.Equal(t, 0, env.calls)
}

func TestSendMessage_NonDataURIRejected(t *testing.T) {
	env := newTestEnv(t, nil)
	id := env.createConversation(t)

	w := env.do(t, http.MethodPost, "/v1/conversations/"+id+"/messages",
		jsonBody(t, map[string]string{"image_data_uri": "https://example.com/a.png"}), "application/json")
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestConversation_NotFound(t *testing.T) {
	env := newTestEnv(t, nil)

	w := env.do(t, http.MethodGet, "/v1/conversations/nope", nil, "")
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = env.do(t, http.MethodPost, "/v1/conversations/nope/messages",
		jsonBody(t, map[string]string{"text": "hi"}), "application/json")
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestPreferences(t *testing.T) {
	env := newTestEnv(t, nil)

	w := env.do(t, http.MethodGet, "/v1/preferences/browser-1", nil, "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.False(t, gjson.Get(w.Body.String(), "data.dark_mode").Bool())

	w = env.do(t, http.MethodPut, "/v1/preferences/browser-1", jsonBody(t, map[string]bool{"dark_mode": true}), "application/json")
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	w = env.do(t, http.MethodGet, "/v1/preferences/browser-1", nil, "")
	assert.True(t, gjson.Get(w.Body.String(), "data.dark_mode").Bool())

	w = env.do(t, http.MethodPut, "/v1/preferences/browser-1", jsonBody(t, map[string]string{}), "application/json")
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestRateLimit(t *testing.T) {
	env := newTestEnv(t, middleware.NewLocalRateLimiter(2))

	codes := make([]int, 0, 3)
	for i := 0; i < 3; i++ {
		codes = append(codes, env.do(t, http.MethodGet, "/v1/preferences/browser-1", nil, "").Code)
	}
	assert.Equal(t, []int{http.StatusOK, http.StatusOK, http.StatusTooManyRequests}, codes)

	// 系统端点不限流
	assert.Equal(t, http.StatusOK, env.do(t, http.MethodGet, "/health", nil, "").Code)
}
