package nlp

import (
	"context"
	"os"
	"strings"
	"testing"

	"github.com/parquet-go/parquet-go"
	"github.com/soundprediction/duocdien/pkg/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParquetTokenTracker(t *testing.T) {
	tokenDir := t.TempDir()

	tracker, err := NewTokenTracker(tokenDir, quietLogger())
	require.NoError(t, err)
	tracker.batchSize = 1 // flush on every write

	ctx := context.Background()
	ctx = context.WithValue(ctx, types.ContextKeyRequestID, "req-1")
	ctx = context.WithValue(ctx, types.ContextKeySessionID, "test-session")
	ctx = context.WithValue(ctx, types.ContextKeyRequestSource, "cli")

	usage := &types.TokenUsage{
		PromptTokens:     10,
		CompletionTokens: 20,
		TotalTokens:      30,
	}
	require.NoError(t, tracker.AddUsage(ctx, usage, "gemini-test"))

	entries, err := os.ReadDir(tokenDir)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.True(t, strings.HasSuffix(entries[0].Name(), ".parquet"))
	assert.True(t, strings.HasPrefix(entries[0].Name(), "token_usage_"))

	rows, err := parquet.ReadFile[TokenUsageRecord](tokenDir + "/" + entries[0].Name())
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "gemini-test", rows[0].Model)
	assert.Equal(t, 30, rows[0].TotalTokens)
	assert.Equal(t, "req-1", rows[0].RequestID)
	assert.Equal(t, "cli", rows[0].RequestSource)
}

func TestTokenTrackingClient_FlushOnClose(t *testing.T) {
	tokenDir := t.TempDir()
	tracker, err := NewTokenTracker(tokenDir, quietLogger())
	require.NoError(t, err)

	mock := &mockClient{responseToReturn: &types.Response{
		Content:    "ok",
		Model:      "m",
		TokensUsed: &types.TokenUsage{TotalTokens: 5},
	}}
	client := NewTokenTrackingClient(mock, tracker)

	_, err = client.Chat(context.Background(), userMsg("hi"))
	require.NoError(t, err)

	entries, _ := os.ReadDir(tokenDir)
	assert.Empty(t, entries, "batch not yet full")

	require.NoError(t, client.Close())
	entries, _ = os.ReadDir(tokenDir)
	assert.Len(t, entries, 1)
}
