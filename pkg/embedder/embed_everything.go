package embedder

import (
	"context"
	"fmt"
	"sync"

	"github.com/soundprediction/duocdien/pkg/nlp"
	"github.com/soundprediction/go-embedeverything/pkg/embedder"
)

// EmbedEverythingClient runs a local model through go-embedeverything.
type EmbedEverythingClient struct {
	mu     sync.Mutex
	client *embedder.Embedder
	config Config
}

// NewEmbedEverythingClient loads config.Model.
func NewEmbedEverythingClient(config Config) (*EmbedEverythingClient, error) {
	if config.Model == "" {
		config.Model = DefaultHugotModel
	}
	client, err := embedder.NewEmbedder(config.Model)
	if err != nil {
		return nil, fmt.Errorf("failed to create embedder for %s: %w", config.Model, err)
	}

	return &EmbedEverythingClient{
		client: client,
		config: config,
	}, nil
}

// Embed generates embeddings for the given texts. The native library takes no
// context, so cancellation is only checked between batches.
func (e *EmbedEverythingClient) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return [][]float32{}, nil
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	out := make([][]float32, 0, len(texts))
	for _, batch := range batches(texts, e.config.BatchSize) {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		vecs, err := e.client.Embed(batch)
		if err != nil {
			return nil, fmt.Errorf("failed to generate embeddings: %w", err)
		}
		if len(vecs) != len(batch) {
			return nil, fmt.Errorf("%w: got %d for %d inputs", ErrCountMismatch, len(vecs), len(batch))
		}
		out = append(out, vecs...)
	}
	return out, nil
}

// EmbedSingle generates an embedding for a single text.
func (e *EmbedEverythingClient) EmbedSingle(ctx context.Context, text string) ([]float32, error) {
	return embedSingle(ctx, e, text)
}

// Dimensions returns the configured dimensions; the native library does not report them.
func (e *EmbedEverythingClient) Dimensions() int {
	return e.config.Dimensions
}

// GetCapabilities returns the list of capabilities supported by this client.
func (e *EmbedEverythingClient) GetCapabilities() []nlp.TaskCapability {
	return []nlp.TaskCapability{nlp.TaskEmbedding}
}

// Close releases the native model.
func (e *EmbedEverythingClient) Close() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.client.Close()
	return nil
}
