// Package embeddertest provides a deterministic in-memory embedder for tests.
package embeddertest

import (
	"context"
	"hash/fnv"
	"sync"

	"github.com/soundprediction/duocdien/pkg/nlp"
)

// Embedder returns fixed vectors for known texts and a hash-derived vector
// for anything else. Set Err to make every call fail.
type Embedder struct {
	mu      sync.Mutex
	Vectors map[string][]float32
	Dim     int
	Err     error
	Calls   int
}

// New returns an Embedder with the given fixed vectors. Dim is taken from the
// first vector, or 4 when vectors is empty.
func New(vectors map[string][]float32) *Embedder {
	dim := 4
	for _, v := range vectors {
		dim = len(v)
		break
	}
	return &Embedder{Vectors: vectors, Dim: dim}
}

// Embed implements embedder.Client.
func (e *Embedder) Embed(_ context.Context, texts []string) ([][]float32, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.Calls++
	if e.Err != nil {
		return nil, e.Err
	}
	out := make([][]float32, len(texts))
	for i, t := range texts {
		if v, ok := e.Vectors[t]; ok {
			out[i] = v
			continue
		}
		out[i] = hashVector(t, e.Dim)
	}
	return out, nil
}

// EmbedSingle implements embedder.Client.
func (e *Embedder) EmbedSingle(ctx context.Context, text string) ([]float32, error) {
	v, err := e.Embed(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	return v[0], nil
}

// Dimensions implements embedder.Client.
func (e *Embedder) Dimensions() int { return e.Dim }

// GetCapabilities implements embedder.Client.
func (e *Embedder) GetCapabilities() []nlp.TaskCapability {
	return []nlp.TaskCapability{nlp.TaskEmbedding}
}

// Close implements embedder.Client.
func (e *Embedder) Close() error { return nil }

func hashVector(s string, dim int) []float32 {
	v := make([]float32, dim)
	h := fnv.New64a()
	_, _ = h.Write([]byte(s))
	seed := h.Sum64()
	for i := range v {
		seed = seed*6364136223846793005 + 1442695040888963407
		v[i] = float32(seed>>40)/float32(1<<24) - 0.5
	}
	return v
}
