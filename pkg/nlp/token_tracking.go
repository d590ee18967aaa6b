package nlp

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/parquet-go/parquet-go"
	"github.com/soundprediction/duocdien/pkg/types"
)

// TokenUsageRecord represents a single log entry for token usage
type TokenUsageRecord struct {
	ID               string    `parquet:"id"`
	Timestamp        time.Time `parquet:"timestamp"`
	Model            string    `parquet:"model"`
	TotalTokens      int       `parquet:"total_tokens"`
	PromptTokens     int       `parquet:"prompt_tokens"`
	CompletionTokens int       `parquet:"completion_tokens"`
	RequestID        string    `parquet:"request_id"`
	SessionID        string    `parquet:"session_id"`
	RequestSource    string    `parquet:"request_source"`
	EvalRun          string    `parquet:"eval_run"`
}

// ParquetTokenTracker persists token usage to Parquet files in batches.
type ParquetTokenTracker struct {
	outputDir string
	logger    *slog.Logger
	mu        sync.Mutex
	buffer    []TokenUsageRecord
	batchSize int
}

// NewTokenTracker creates a new token tracker writing to a directory
func NewTokenTracker(outputDir string, logger *slog.Logger) (*ParquetTokenTracker, error) {
	if err := os.MkdirAll(outputDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create token tracking directory: %w", err)
	}
	if logger == nil {
		logger = slog.Default()
	}

	return &ParquetTokenTracker{
		outputDir: outputDir,
		logger:    logger,
		buffer:    make([]TokenUsageRecord, 0, 100),
		batchSize: 100,
	}, nil
}

// AddUsage adds usage to the tracker
func (t *ParquetTokenTracker) AddUsage(ctx context.Context, usage *types.TokenUsage, model string) error {
	if usage == nil {
		return nil
	}

	record := TokenUsageRecord{
		ID:               uuid.New().String(),
		Timestamp:        time.Now().UTC(),
		Model:            model,
		TotalTokens:      usage.TotalTokens,
		PromptTokens:     usage.PromptTokens,
		CompletionTokens: usage.CompletionTokens,
		RequestID:        types.StringFromContext(ctx, types.ContextKeyRequestID),
		SessionID:        types.StringFromContext(ctx, types.ContextKeySessionID),
		RequestSource:    types.StringFromContext(ctx, types.ContextKeyRequestSource),
		EvalRun:          types.StringFromContext(ctx, types.ContextKeyEvalRun),
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	t.buffer = append(t.buffer, record)
	if len(t.buffer) >= t.batchSize {
		return t.flush()
	}
	return nil
}

// Close flushes whatever is still buffered.
func (t *ParquetTokenTracker) Close() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.flush()
}

// flush writes the current buffer to a new Parquet file.
// Caller must hold the lock.
func (t *ParquetTokenTracker) flush() error {
	if len(t.buffer) == 0 {
		return nil
	}

	now := time.Now()
	filename := fmt.Sprintf("token_usage_%s_%d.parquet", now.Format("20060102_150405"), now.UnixNano())
	path := filepath.Join(t.outputDir, filename)

	if err := parquet.WriteFile(path, t.buffer); err != nil {
		return fmt.Errorf("write token usage parquet: %w", err)
	}
	t.logger.Debug("flushed token usage", "file", path, "records", len(t.buffer))

	t.buffer = t.buffer[:0]
	return nil
}

// TokenTrackingClient wraps a Client to track usage
type TokenTrackingClient struct {
	client  Client
	tracker *ParquetTokenTracker
}

// NewTokenTrackingClient creates a wrapper client
func NewTokenTrackingClient(client Client, tracker *ParquetTokenTracker) *TokenTrackingClient {
	return &TokenTrackingClient{
		client:  client,
		tracker: tracker,
	}
}

// Chat implements Client
func (c *TokenTrackingClient) Chat(ctx context.Context, messages []types.Message) (*types.Response, error) {
	resp, err := c.client.Chat(ctx, messages)
	if err != nil {
		return nil, err
	}
	c.record(ctx, resp)
	return resp, nil
}

// ChatWithStructuredOutput implements Client
func (c *TokenTrackingClient) ChatWithStructuredOutput(ctx context.Context, messages []types.Message, schema any) (*types.Response, error) {
	resp, err := c.client.ChatWithStructuredOutput(ctx, messages, schema)
	if err != nil {
		return nil, err
	}
	c.record(ctx, resp)
	return resp, nil
}

// GetCapabilities returns the list of capabilities supported by this client.
func (c *TokenTrackingClient) GetCapabilities() []TaskCapability {
	return c.client.GetCapabilities()
}

// Close flushes the tracker and closes the wrapped client.
func (c *TokenTrackingClient) Close() error {
	if err := c.tracker.Close(); err != nil {
		c.tracker.logger.Warn("failed to flush token usage", "error", err)
	}
	return c.client.Close()
}

func (c *TokenTrackingClient) record(ctx context.Context, resp *types.Response) {
	if resp == nil || resp.TokensUsed == nil {
		return
	}
	model := resp.Model
	if model == "" {
		model = "unknown"
	}
	if err := c.tracker.AddUsage(ctx, resp.TokensUsed, model); err != nil {
		c.tracker.logger.Warn("failed to log token usage", "error", err)
	}
}
