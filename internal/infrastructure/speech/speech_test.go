package speech

import (
	"context"
	"strings"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"jalrakshak-ai-api/internal/application/conversation"
	"jalrakshak-ai-api/internal/infrastructure/messaging"
	"jalrakshak-ai-api/pkg/logger"
)

func TestNewSpeaker(t *testing.T) {
	assert.IsType(t, LogSpeaker{}, NewSpeaker(true))
	assert.IsType(t, NoopSpeaker{}, NewSpeaker(false))
}

func TestLineListener_EmitsFinalEventsPerLine(t *testing.T) {
	l := NewLineListener(strings.NewReader("first question\n\n  second  \n"))
	ch, err := l.Listen(context.Background())
	require.NoError(t, err)

	var got []conversation.TranscriptEvent
	for ev := range ch {
		got = append(got, ev)
	}
	assert.Equal(t, []conversation.TranscriptEvent{
		{Text: "first question", Final: true},
		{Text: "second", Final: true},
	}, got)
}

func TestStreamSpeaker_PublishesWithConversationID(t *testing.T) {
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })

	s := NewStreamSpeaker(messaging.NewProducer(rdb, 100), "hi-IN")
	ctx := logger.WithContext(context.Background(), logger.ConversationIDKey, "conv-42")
	s.Speak(ctx, "Store water in a covered container.")

	entries, err := rdb.XRange(ctx, string(messaging.StreamSpeechOut), "-", "+").Result()
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Contains(t, entries[0].Values["data"], `"conversation_id":"conv-42"`)
	assert.Contains(t, entries[0].Values["data"], `"language":"hi-IN"`)
}

func TestStreamSpeaker_PublishFailureIsSwallowed(t *testing.T) {
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })
	mr.Close()

	s := NewStreamSpeaker(messaging.NewProducer(rdb, 100), "en-US")
	assert.NotPanics(t, func() {
		s.Speak(context.Background(), "hello")
	})
}
