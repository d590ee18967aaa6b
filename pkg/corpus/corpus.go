package corpus

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/soundprediction/duocdien/pkg/embedder"
)

// Index is the immutable search corpus: entity names addressed by position,
// their dense vectors and a BM25 index over their tokens.
type Index struct {
	entries []string
	vectors []float32
	dim     int
	bm25    *BM25
}

// Option configures Build.
type Option func(*buildOptions)

type buildOptions struct {
	logger *slog.Logger
	bm25   BM25Params
}

// WithLogger sets the logger used to report dropped entries.
func WithLogger(l *slog.Logger) Option {
	return func(o *buildOptions) { o.logger = l }
}

// WithBM25Params overrides the Okapi parameters.
func WithBM25Params(p BM25Params) Option {
	return func(o *buildOptions) { o.bm25 = p }
}

// Build normalizes entries, embeds the survivors with emb and indexes their
// tokens. Blank entries are dropped and duplicates keep their first position.
// An empty result is a valid, empty Index.
func Build(ctx context.Context, entries []string, emb embedder.Client, opts ...Option) (*Index, error) {
	o := buildOptions{logger: slog.Default(), bm25: DefaultBM25Params()}
	for _, opt := range opts {
		opt(&o)
	}

	names := Clean(entries, o.logger)
	idx := &Index{entries: names}

	tokens := make([][]string, len(names))
	for i, n := range names {
		tokens[i] = Tokenize(n)
	}
	idx.bm25 = NewBM25(tokens, o.bm25)

	if len(names) == 0 {
		o.logger.Warn("corpus is empty, searches will return no hits")
		return idx, nil
	}

	vecs, err := emb.Embed(ctx, names)
	if err != nil {
		return nil, fmt.Errorf("%w: embedding %d corpus entries: %v", ErrUpstreamUnavailable, len(names), err)
	}
	if len(vecs) != len(names) {
		return nil, fmt.Errorf("%w: got %d vectors for %d entries", ErrUpstreamUnavailable, len(vecs), len(names))
	}

	idx.dim = len(vecs[0])
	if idx.dim == 0 {
		return nil, &DimensionError{Position: 0, Entry: names[0], Expected: emb.Dimensions(), Actual: 0}
	}
	if want := emb.Dimensions(); want > 0 && want != idx.dim {
		return nil, &DimensionError{Position: 0, Entry: names[0], Expected: want, Actual: idx.dim}
	}

	idx.vectors = make([]float32, 0, idx.dim*len(names))
	for i, v := range vecs {
		if len(v) != idx.dim {
			return nil, &DimensionError{Position: i, Entry: names[i], Expected: idx.dim, Actual: len(v)}
		}
		idx.vectors = append(idx.vectors, v...)
	}

	o.logger.Info("corpus index built", "entries", len(names), "dropped", len(entries)-len(names), "dimensions", idx.dim)
	return idx, nil
}

// Clean applies the corpus normalization: NFC, trim, drop blanks, and keep
// the first occurrence of each name.
func Clean(entries []string, logger *slog.Logger) []string {
	if logger == nil {
		logger = slog.Default()
	}
	seen := make(map[string]struct{}, len(entries))
	out := make([]string, 0, len(entries))
	for i, raw := range entries {
		n := Normalize(raw)
		if n == "" {
			logger.Debug("dropping blank corpus entry", "position", i)
			continue
		}
		if _, dup := seen[n]; dup {
			continue
		}
		seen[n] = struct{}{}
		out = append(out, n)
	}
	return out
}

// Len returns the number of entries.
func (x *Index) Len() int {
	return len(x.entries)
}

// Entries returns a copy of the entity names in corpus order.
func (x *Index) Entries() []string {
	out := make([]string, len(x.entries))
	copy(out, x.entries)
	return out
}

// Entry returns the name at position i.
func (x *Index) Entry(i int) string {
	return x.entries[i]
}

// Dimensions returns the vector size, 0 for an empty index.
func (x *Index) Dimensions() int {
	return x.dim
}

// Vector returns the dense vector at position i. The slice aliases the index
// storage and must not be modified.
func (x *Index) Vector(i int) []float32 {
	return x.vectors[i*x.dim : (i+1)*x.dim : (i+1)*x.dim]
}

// BM25 returns the sparse index.
func (x *Index) BM25() *BM25 {
	return x.bm25
}
