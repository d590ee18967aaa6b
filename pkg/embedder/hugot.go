package embedder

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/knights-analytics/hugot"
	"github.com/soundprediction/duocdien/pkg/nlp"
)

// HugotEmbedder runs a sentence-transformers ONNX model in-process with the
// pure Go hugot backend.
type HugotEmbedder struct {
	mu      sync.Mutex
	run     func(texts []string) ([][]float32, error)
	destroy func() error
	config  Config
}

// PrepareModel returns a local path for model, downloading it into dir when absent.
func PrepareModel(model, dir string) (string, error) {
	if dir == "" {
		dir = "./models"
	}
	modelPath := filepath.Join(dir, strings.ReplaceAll(model, "/", "_"))
	if _, err := os.Stat(modelPath); err == nil {
		return modelPath, nil
	} else if !os.IsNotExist(err) {
		return "", fmt.Errorf("stat model dir: %w", err)
	}

	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("failed to create model directory: %w", err)
	}
	opts := hugot.NewDownloadOptions()
	opts.OnnxFilePath = "onnx/model.onnx"
	downloaded, err := hugot.DownloadModel(model, dir, opts)
	if err != nil {
		return "", fmt.Errorf("failed to download model %s: %w", model, err)
	}
	return downloaded, nil
}

// NewHugotEmbedder loads config.ModelPath, or downloads config.Model when no path is set.
func NewHugotEmbedder(config Config) (*HugotEmbedder, error) {
	if config.Model == "" {
		config.Model = DefaultHugotModel
	}
	modelPath := config.ModelPath
	if modelPath == "" || filepath.Ext(modelPath) == "" {
		p, err := PrepareModel(config.Model, modelPath)
		if err != nil {
			return nil, err
		}
		modelPath = p
	}

	session, err := hugot.NewGoSession()
	if err != nil {
		return nil, fmt.Errorf("failed to create hugot session: %w", err)
	}

	pipeline, err := hugot.NewPipeline(session, hugot.FeatureExtractionConfig{
		ModelPath: modelPath,
		Name:      "duocdien-embedder",
	})
	if err != nil {
		if destroyErr := session.Destroy(); destroyErr != nil {
			return nil, fmt.Errorf("failed to create feature extraction pipeline: %w (cleanup error: %v)", err, destroyErr)
		}
		return nil, fmt.Errorf("failed to create feature extraction pipeline: %w", err)
	}

	return &HugotEmbedder{
		run: func(texts []string) ([][]float32, error) {
			result, err := pipeline.RunPipeline(texts)
			if err != nil {
				return nil, err
			}
			return result.Embeddings, nil
		},
		destroy: session.Destroy,
		config:  config,
	}, nil
}

// Embed generates embeddings for the given texts.
func (h *HugotEmbedder) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return [][]float32{}, nil
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	out := make([][]float32, 0, len(texts))
	for _, batch := range batches(texts, h.config.BatchSize) {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		vecs, err := h.run(batch)
		if err != nil {
			return nil, fmt.Errorf("failed to generate embeddings: %w", err)
		}
		if len(vecs) != len(batch) {
			return nil, fmt.Errorf("%w: got %d for %d inputs", ErrCountMismatch, len(vecs), len(batch))
		}
		if h.config.Dimensions == 0 && len(vecs) > 0 {
			h.config.Dimensions = len(vecs[0])
		}
		out = append(out, vecs...)
	}
	return out, nil
}

// EmbedSingle generates an embedding for a single text.
func (h *HugotEmbedder) EmbedSingle(ctx context.Context, text string) ([]float32, error) {
	return embedSingle(ctx, h, text)
}

// Dimensions is learned from the first batch when not configured.
func (h *HugotEmbedder) Dimensions() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.config.Dimensions
}

// GetCapabilities returns the list of capabilities supported by this client.
func (h *HugotEmbedder) GetCapabilities() []nlp.TaskCapability {
	return []nlp.TaskCapability{nlp.TaskEmbedding}
}

// Close destroys the hugot session.
func (h *HugotEmbedder) Close() error {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.destroy == nil {
		return nil
	}
	err := h.destroy()
	h.destroy = nil
	return err
}
