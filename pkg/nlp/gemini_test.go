package nlp

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/soundprediction/duocdien/pkg/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestGemini(t *testing.T, handler http.HandlerFunc) *GeminiClient {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	client, err := NewGeminiClient(NewLLMConfig().WithAPIKey("k").WithModel("gemini-test").WithBaseURL(srv.URL))
	require.NoError(t, err)
	return client
}

func TestGeminiClient_Chat(t *testing.T) {
	var got geminiRequest
	client := newTestGemini(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1beta/models/gemini-test:generateContent", r.URL.Path)
		assert.Equal(t, "k", r.URL.Query().Get("key"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))

		_, _ = w.Write([]byte(`{
			"candidates": [{"content": {"role": "model", "parts": [{"text": "Ho gà "}, {"text": "là bệnh truyền nhiễm."}]}, "finishReason": "STOP"}],
			"usageMetadata": {"promptTokenCount": 7, "candidatesTokenCount": 5, "totalTokenCount": 12}
		}`))
	})

	resp, err := client.Chat(context.Background(), []types.Message{
		NewSystemMessage("Bạn là bác sĩ AI."),
		NewUserMessage("Ho gà là gì?"),
	})
	require.NoError(t, err)
	assert.Equal(t, "Ho gà là bệnh truyền nhiễm.", resp.Content)
	assert.Equal(t, "STOP", resp.FinishReason)
	require.NotNil(t, resp.TokensUsed)
	assert.Equal(t, 12, resp.TokensUsed.TotalTokens)

	require.Len(t, got.Contents, 1)
	assert.Equal(t, "user", got.Contents[0].Role)
	assert.True(t, strings.HasPrefix(got.Contents[0].Parts[0].Text, "Bạn là bác sĩ AI.\n\n"))
}

func TestGeminiClient_ErrorMapping(t *testing.T) {
	tests := []struct {
		name   string
		status int
		body   string
		target error
	}{
		{"rate limit", http.StatusTooManyRequests, `{}`, ErrRateLimit},
		{"blocked", http.StatusOK, `{"promptFeedback": {"blockReason": "SAFETY"}}`, ErrRefusal},
		{"no candidates", http.StatusOK, `{"candidates": []}`, ErrEmptyResponse},
		{"blank text", http.StatusOK, `{"candidates": [{"content": {"parts": [{"text": "  "}]}}]}`, ErrEmptyResponse},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client := newTestGemini(t, func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			})
			_, err := client.Chat(context.Background(), userMsg("q"))
			assert.ErrorIs(t, err, tt.target)
		})
	}
}

func TestGeminiClient_ServerErrorIsRetryable(t *testing.T) {
	client := newTestGemini(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	})
	_, err := client.Chat(context.Background(), userMsg("q"))
	require.Error(t, err)
	assert.True(t, isRetryableError(err))
}

func TestGeminiClient_StructuredOutputSetsMimeType(t *testing.T) {
	var got geminiRequest
	client := newTestGemini(t, func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		_, _ = w.Write([]byte(`{"candidates": [{"content": {"parts": [{"text": "{\"question\": \"q\"}"}]}}]}`))
	})

	_, err := client.ChatWithStructuredOutput(context.Background(), userMsg("q"), map[string]string{"question": "string"})
	require.NoError(t, err)
	assert.Equal(t, "application/json", got.GenerationConfig.ResponseMimeType)
	assert.Len(t, got.Contents, 2)
}

func TestToGeminiContents_AssistantRole(t *testing.T) {
	contents := toGeminiContents([]types.Message{
		NewUserMessage("a"),
		NewAssistantMessage("b"),
		NewSystemMessage("trailing"),
	})
	require.Len(t, contents, 3)
	assert.Equal(t, "model", contents[1].Role)
	assert.Equal(t, "trailing", contents[2].Parts[0].Text)
}
