package embedder

import "errors"

var (
	// ErrNoEmbedding is returned when a provider answers without vectors.
	ErrNoEmbedding = errors.New("no embeddings returned")

	// ErrCountMismatch is returned when a provider returns a different number of vectors than inputs.
	ErrCountMismatch = errors.New("embedding count does not match input count")
)
