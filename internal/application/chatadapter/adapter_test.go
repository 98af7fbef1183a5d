package chatadapter

import (
	"bytes"
	"context"
	"encoding/json"
	"image"
	"image/color"
	"image/png"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tidwall/gjson"

	"jalrakshak-ai-api/internal/config"
)

// fakeProvider 记录收到的请求并返回预设响应
type fakeProvider struct {
	server  *httptest.Server
	calls   atomic.Int32
	lastReq atomic.Pointer[capturedRequest]
}

type capturedRequest struct {
	Method  string
	Path    string
	Headers http.Header
	Body    []byte
}

func newFakeProvider(t *testing.T, status int, body string) *fakeProvider {
	t.Helper()
	p := &fakeProvider{}
	p.server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		p.calls.Add(1)
		raw, _ := io.ReadAll(r.Body)
		p.lastReq.Store(&capturedRequest{Method: r.Method, Path: r.URL.Path, Headers: r.Header.Clone(), Body: raw})
		w.WriteHeader(status)
		_, _ = io.WriteString(w, body)
	}))
	t.Cleanup(p.server.Close)
	return p
}

func testChatConfig(baseURL string) *config.ChatConfig {
	return &config.ChatConfig{
		BaseURL:            baseURL,
		APIKey:             "test-key",
		TextModel:          "text-model",
		VisionModel:        "vision-model",
		TextTemperature:    0.7,
		VisionTemperature:  0.3,
		MaxOutputTokens:    256,
		Persona:            "You are a helpful assistant.",
		DefaultImagePrompt: "Describe this image.",
		Timeout:            5 * time.Second,
	}
}

func testAttachmentConfig() *config.AttachmentConfig {
	return &config.AttachmentConfig{
		MaxSize:          4 << 20,
		MaxMegapixels:    33.1776,
		AllowedMIMETypes: []string{"image/jpeg", "image/png", "image/webp"},
	}
}

func pngBytes(t *testing.T, w, h int) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	img.Set(0, 0, color.RGBA{R: 255, A: 255})
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

const helloBody = `{"choices":[{"message":{"content":"Hello"}}]}`

func TestSend_TextOnlyIssuesOneCallWithSystemAndUser(t *testing.T) {
	p := newFakeProvider(t, http.StatusOK, helloBody)
	a := NewAdapter(testChatConfig(p.server.URL+"/"), testAttachmentConfig())

	out := a.Send(context.Background(), Request{PromptText: "Is tap water safe?"})

	require.True(t, out.IsSuccess(), "unexpected failure: %+v", out.Failure)
	assert.Equal(t, "Hello", out.Text)
	assert.EqualValues(t, 1, p.calls.Load())

	req := p.lastReq.Load()
	assert.Equal(t, http.MethodPost, req.Method)
	assert.Equal(t, "/chat/completions", req.Path)
	assert.Equal(t, "application/json", req.Headers.Get("Content-Type"))
	assert.Equal(t, "Bearer test-key", req.Headers.Get("Authorization"))

	body := gjson.ParseBytes(req.Body)
	assert.Equal(t, "text-model", body.Get("model").String())
	assert.InDelta(t, 0.7, body.Get("temperature").Float(), 1e-9)
	assert.EqualValues(t, 256, body.Get("max_tokens").Int())
	msgs := body.Get("messages").Array()
	require.Len(t, msgs, 2)
	assert.Equal(t, "system", msgs[0].Get("role").String())
	assert.Equal(t, "You are a helpful assistant.", msgs[0].Get("content").String())
	assert.Equal(t, "user", msgs[1].Get("role").String())
	assert.Equal(t, "Is tap water safe?", msgs[1].Get("content").String())
}

func TestSend_DisallowedMIMEMakesNoCall(t *testing.T) {
	p := newFakeProvider(t, http.StatusOK, helloBody)
	a := NewAdapter(testChatConfig(p.server.URL), testAttachmentConfig())

	out := a.Send(context.Background(), Request{
		PromptText: "what is this?",
		Attachment: NewAttachment([]byte("GIF89a...."), "image/gif"),
	})

	require.False(t, out.IsSuccess())
	assert.Equal(t, KindInvalidInput, out.Kind())
	assert.Contains(t, out.Failure.Message, "image/jpeg")
	assert.Contains(t, out.Failure.Message, "image/png")
	assert.EqualValues(t, 0, p.calls.Load())
}

func TestSend_OversizedAttachmentMakesNoCall(t *testing.T) {
	p := newFakeProvider(t, http.StatusOK, helloBody)
	att := testAttachmentConfig()
	att.MaxSize = 64
	a := NewAdapter(testChatConfig(p.server.URL), att)

	out := a.Send(context.Background(), Request{
		Attachment: NewAttachment(bytes.Repeat([]byte{0xff}, 65), "image/jpeg"),
	})

	assert.Equal(t, KindInvalidInput, out.Kind())
	assert.Contains(t, out.Failure.Message, "too large")
	assert.EqualValues(t, 0, p.calls.Load())
}

func TestSend_DeclaredSizeOfDataURIChecked(t *testing.T) {
	p := newFakeProvider(t, http.StatusOK, helloBody)
	att := testAttachmentConfig()
	att.MaxSize = 16
	a := NewAdapter(testChatConfig(p.server.URL), att)

	uri := ToDataURI("image/png", bytes.Repeat([]byte{1}, 64))
	out := a.Send(context.Background(), Request{Attachment: NewDataURIAttachment(uri)})

	assert.Equal(t, KindInvalidInput, out.Kind())
	assert.EqualValues(t, 0, p.calls.Load())
}

func TestSend_MegapixelCeilingShortCircuits(t *testing.T) {
	p := newFakeProvider(t, http.StatusOK, helloBody)
	att := testAttachmentConfig()
	att.MaxMegapixels = 0.0001 // 100 px
	a := NewAdapter(testChatConfig(p.server.URL), att)

	out := a.Send(context.Background(), Request{Attachment: NewAttachment(pngBytes(t, 20, 20), "image/png")})

	assert.Equal(t, KindInvalidInput, out.Kind())
	assert.Contains(t, out.Failure.Message, "20x20")
	assert.EqualValues(t, 0, p.calls.Load())
}

func TestSend_DataURIPassedThroughUnchanged(t *testing.T) {
	p := newFakeProvider(t, http.StatusOK, helloBody)
	a := NewAdapter(testChatConfig(p.server.URL), testAttachmentConfig())

	uri := ToDataURI("image/png", pngBytes(t, 4, 4))
	out := a.Send(context.Background(), Request{PromptText: "what is this?", Attachment: NewDataURIAttachment(uri)})
	require.True(t, out.IsSuccess(), "unexpected failure: %+v", out.Failure)

	body := gjson.ParseBytes(p.lastReq.Load().Body)
	assert.Equal(t, "vision-model", body.Get("model").String())
	assert.InDelta(t, 0.3, body.Get("temperature").Float(), 1e-9)
	msgs := body.Get("messages").Array()
	require.Len(t, msgs, 1)
	assert.Equal(t, "user", msgs[0].Get("role").String())
	parts := msgs[0].Get("content").Array()
	require.Len(t, parts, 2)
	assert.Equal(t, "text", parts[0].Get("type").String())
	assert.Equal(t, "what is this?", parts[0].Get("text").String())
	assert.Equal(t, "image_url", parts[1].Get("type").String())
	assert.Equal(t, uri, parts[1].Get("image_url.url").String())
}

func TestSend_RawBytesEncodedAsDataURI(t *testing.T) {
	p := newFakeProvider(t, http.StatusOK, helloBody)
	a := NewAdapter(testChatConfig(p.server.URL), testAttachmentConfig())

	raw := pngBytes(t, 4, 4)
	want := ToDataURI("image/png", raw)
	out := a.Send(context.Background(), Request{Attachment: NewAttachment(append([]byte(nil), raw...), "")})
	require.True(t, out.IsSuccess())

	body := gjson.ParseBytes(p.lastReq.Load().Body)
	assert.Equal(t, want, body.Get("messages.0.content.1.image_url.url").String())
	assert.Equal(t, "Describe this image.", body.Get("messages.0.content.0.text").String())
}

func TestSend_ImagePromptTemplate(t *testing.T) {
	p := newFakeProvider(t, http.StatusOK, helloBody)
	cfg := testChatConfig(p.server.URL)
	cfg.ImagePromptTemplate = "Analyze this image (100% honest): %s"
	a := NewAdapter(cfg, testAttachmentConfig())

	out := a.Send(context.Background(), Request{PromptText: "any mold?", Attachment: NewAttachment(pngBytes(t, 2, 2), "image/png")})
	require.True(t, out.IsSuccess())

	text := gjson.GetBytes(p.lastReq.Load().Body, "messages.0.content.0.text").String()
	assert.Equal(t, "Analyze this image (100% honest): any mold?", text)
}

func TestSend_APIErrorWithProviderMessage(t *testing.T) {
	p := newFakeProvider(t, http.StatusInternalServerError, `{"error":{"message":"overloaded"}}`)
	a := NewAdapter(testChatConfig(p.server.URL), testAttachmentConfig())

	out := a.Send(context.Background(), Request{PromptText: "hi"})

	require.NotNil(t, out.Failure)
	assert.Equal(t, KindAPIError, out.Failure.Kind)
	assert.Equal(t, "overloaded", out.Failure.Message)
}

func TestSend_APIErrorFallsBackToStatusLineAndBody(t *testing.T) {
	p := newFakeProvider(t, http.StatusBadGateway, "upstream down")
	a := NewAdapter(testChatConfig(p.server.URL), testAttachmentConfig())

	out := a.Send(context.Background(), Request{PromptText: "hi"})

	assert.Equal(t, KindAPIError, out.Kind())
	assert.Equal(t, "API Error: 502 Bad Gateway - upstream down", out.Failure.Message)
}

func TestSend_APIErrorJSONWithoutMessage(t *testing.T) {
	p := newFakeProvider(t, http.StatusUnauthorized, `{"detail":"nope"}`)
	a := NewAdapter(testChatConfig(p.server.URL), testAttachmentConfig())

	out := a.Send(context.Background(), Request{PromptText: "hi"})

	assert.Equal(t, KindAPIError, out.Kind())
	assert.Equal(t, "API Error: 401 Unauthorized", out.Failure.Message)
}

func TestSend_DecodeSequence(t *testing.T) {
	tests := []struct {
		name    string
		body    string
		kind    ErrorKind
		message string
	}{
		{name: "empty body", body: "", kind: KindMalformed, message: "empty response"},
		{name: "whitespace body", body: " \n\t", kind: KindMalformed, message: "empty response"},
		{name: "not json", body: "<html>", kind: KindMalformed, message: "could not parse response"},
		{name: "trailing garbage", body: helloBody + "}", kind: KindMalformed, message: "could not parse response"},
		{name: "no choices", body: `{"choices":[]}`, kind: KindMalformed, message: "unexpected response structure"},
		{name: "missing content", body: `{"choices":[{"message":{}}]}`, kind: KindMalformed, message: "unexpected response structure"},
		{name: "null content", body: `{"choices":[{"message":{"content":null}}]}`, kind: KindMalformed, message: "unexpected response structure"},
		{name: "array root", body: `[1,2]`, kind: KindMalformed, message: "unexpected response structure"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := newFakeProvider(t, http.StatusOK, tt.body)
			a := NewAdapter(testChatConfig(p.server.URL), testAttachmentConfig())

			out := a.Send(context.Background(), Request{PromptText: "hi"})

			require.NotNil(t, out.Failure)
			assert.Equal(t, tt.kind, out.Failure.Kind)
			assert.Equal(t, tt.message, out.Failure.Message)
			assert.EqualValues(t, 1, p.calls.Load())
		})
	}
}

func TestSend_SuccessIgnoresExtraFields(t *testing.T) {
	p := newFakeProvider(t, http.StatusOK, `{"id":"x","choices":[{"index":0,"message":{"role":"assistant","content":"Hi there"}},{"message":{}}],"usage":{"total_tokens":3}}`)
	a := NewAdapter(testChatConfig(p.server.URL), testAttachmentConfig())

	out := a.Send(context.Background(), Request{PromptText: "hi"})

	require.True(t, out.IsSuccess())
	assert.Equal(t, "Hi there", out.Text)
}

func TestSend_ConnectionRefusedIsNetwork(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	a := NewAdapter(testChatConfig(url), testAttachmentConfig())

	var out Outcome
	require.NotPanics(t, func() {
		out = a.Send(context.Background(), Request{PromptText: "hi"})
	})
	assert.Equal(t, KindNetwork, out.Kind())
	assert.NotEmpty(t, out.Failure.Message)
}

func TestSend_TimeoutIsNetwork(t *testing.T) {
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	defer srv.Close()
	defer close(release)

	cfg := testChatConfig(srv.URL)
	cfg.Timeout = 50 * time.Millisecond
	a := NewAdapter(cfg, testAttachmentConfig())

	out := a.Send(context.Background(), Request{PromptText: "hi"})
	assert.Equal(t, KindNetwork, out.Kind())
}

func TestSend_ReleasesAttachmentOnEveryPath(t *testing.T) {
	ok := newFakeProvider(t, http.StatusOK, helloBody)
	failing := newFakeProvider(t, http.StatusInternalServerError, `{"error":{"message":"boom"}}`)

	cases := map[string]struct {
		url string
		att *Attachment
	}{
		"success":       {url: ok.server.URL, att: NewAttachment(pngBytes(t, 2, 2), "image/png")},
		"api error":     {url: failing.server.URL, att: NewAttachment(pngBytes(t, 2, 2), "image/png")},
		"invalid input": {url: ok.server.URL, att: NewAttachment([]byte("plain text"), "text/plain")},
	}
	for name, c := range cases {
		t.Run(name, func(t *testing.T) {
			data := c.att.Data
			a := NewAdapter(testChatConfig(c.url), testAttachmentConfig())
			a.Send(context.Background(), Request{Attachment: c.att})

			assert.True(t, c.att.Released())
			assert.Equal(t, make([]byte, len(data)), data, "attachment bytes must be zeroed")
		})
	}
}

func TestSend_RequestBodyIsValidJSON(t *testing.T) {
	p := newFakeProvider(t, http.StatusOK, helloBody)
	a := NewAdapter(testChatConfig(p.server.URL), testAttachmentConfig())

	a.Send(context.Background(), Request{PromptText: `quote " and newline` + "\n"})

	var decoded completionRequest
	require.NoError(t, json.Unmarshal(p.lastReq.Load().Body, &decoded))
	assert.True(t, strings.HasSuffix(decoded.Messages[1].Content.(string), "\n"))
}

func TestNewAdapter_MissingCredentialsDoesNotBlock(t *testing.T) {
	a := NewAdapter(&config.ChatConfig{}, testAttachmentConfig())
	require.NotNil(t, a)
	assert.False(t, a.Configured())
}

func TestNormalizeMIME(t *testing.T) {
	cases := map[string]string{
		"":                          "",
		" image/PNG ":               "image/png",
		"image/jpg":                 "image/jpeg",
		"image/png; name=photo.png": "image/png",
		"image/webp":                "image/webp",
	}
	for in, want := range cases {
		assert.Equal(t, want, NormalizeMIME(in), in)
	}
}
