package embedder

import (
	"context"

	"github.com/soundprediction/duocdien/pkg/nlp"
	"github.com/soundprediction/duocdien/pkg/utils"
)

// Default model settings.
const (
	DefaultOpenAIModel = "text-embedding-3-small"
	DefaultHugotModel  = "keepitreal/vietnamese-sbert"
	DefaultBatchSize   = 64
)

// Client defines the interface for embedding operations.
type Client interface {
	// Embed generates embeddings for the given texts, one vector per text in order.
	Embed(ctx context.Context, texts []string) ([][]float32, error)

	// EmbedSingle generates an embedding for a single text.
	EmbedSingle(ctx context.Context, text string) ([]float32, error)

	// Dimensions returns the number of dimensions in the embeddings, or 0 if unknown.
	Dimensions() int

	// GetCapabilities returns the list of capabilities supported by this client.
	GetCapabilities() []nlp.TaskCapability

	// Close cleans up any resources.
	Close() error
}

// Config holds configuration for embedding clients.
type Config struct {
	// Provider is one of "hugot", "embedeverything" or "openai".
	Provider   string `json:"provider,omitempty"`
	Model      string `json:"model,omitempty"`
	BaseURL    string `json:"base_url,omitempty"`
	ModelPath  string `json:"model_path,omitempty"`
	Dimensions int    `json:"dimensions,omitempty"`
	BatchSize  int    `json:"batch_size,omitempty"`
}

// embedSingle is shared by the implementations.
func embedSingle(ctx context.Context, c Client, text string) ([]float32, error) {
	vecs, err := c.Embed(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	if len(vecs) == 0 {
		return nil, ErrNoEmbedding
	}
	return vecs[0], nil
}

// batches splits texts into chunks of at most size.
func batches(texts []string, size int) [][]string {
	if size <= 0 {
		size = DefaultBatchSize
	}
	return utils.Batch(texts, size)
}
