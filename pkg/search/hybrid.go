package search

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/soundprediction/duocdien/pkg/corpus"
	"github.com/soundprediction/duocdien/pkg/embedder"
	"github.com/soundprediction/duocdien/pkg/utils"
)

// SearchMethod names one of the fused sub-searches.
type SearchMethod string

const (
	CosineSimilarity SearchMethod = "cosine_similarity"
	BM25             SearchMethod = "bm25"
)

// Methods lists the sub-searches in the order their ranks appear in FusedHit.Ranks.
var Methods = []SearchMethod{CosineSimilarity, BM25}

// DefaultCandidateLimit is N, the number of candidates taken from each sub-search.
const DefaultCandidateLimit = 10

// DefaultTopK is K, the number of fused results a caller gets when it does not
// ask for a count.
const DefaultTopK = 1

// HybridConfig tunes the ranker. Zero values mean the defaults.
type HybridConfig struct {
	RankConstant   int `json:"rank_constant" mapstructure:"rank_constant"`
	CandidateLimit int `json:"candidate_limit" mapstructure:"candidate_limit"`
}

// HybridRanker is stateless per call and safe for concurrent use.
type HybridRanker struct {
	index    *corpus.Index
	embedder embedder.Client
	config   HybridConfig
	logger   *slog.Logger
}

// NewHybridRanker creates a ranker over index. emb must be the model the index was built with.
func NewHybridRanker(index *corpus.Index, emb embedder.Client, cfg HybridConfig) *HybridRanker {
	if cfg.RankConstant <= 0 {
		cfg.RankConstant = DefaultRankConstant
	}
	if cfg.CandidateLimit <= 0 {
		cfg.CandidateLimit = DefaultCandidateLimit
	}
	return &HybridRanker{index: index, embedder: emb, config: cfg, logger: slog.Default()}
}

// WithLogger sets the logger and returns the ranker.
func (h *HybridRanker) WithLogger(l *slog.Logger) *HybridRanker {
	if l != nil {
		h.logger = l
	}
	return h
}

// Config returns the effective configuration.
func (h *HybridRanker) Config() HybridConfig {
	return h.config
}

// Index returns the corpus being searched.
func (h *HybridRanker) Index() *corpus.Index {
	return h.index
}

// Search returns up to topK entity names, best first.
func (h *HybridRanker) Search(ctx context.Context, query string, topK int) ([]string, error) {
	hits, err := h.SearchDetailed(ctx, query, topK)
	if err != nil {
		return nil, err
	}
	names := make([]string, len(hits))
	for i, hit := range hits {
		names[i] = hit.Name
	}
	return names, nil
}

// SearchDetailed is Search with fused scores and per-method ranks.
func (h *HybridRanker) SearchDetailed(ctx context.Context, query string, topK int) ([]FusedHit, error) {
	if topK < 1 {
		return nil, ErrInvalidTopK
	}
	query = strings.TrimSpace(query)
	if query == "" || h.index == nil || h.index.Len() == 0 {
		return []FusedHit{}, nil
	}

	dense, err := h.denseCandidates(ctx, query)
	if err != nil {
		return nil, err
	}
	sparse := h.sparseCandidates(query)

	fused := RRF([][]int{dense, sparse}, h.config.RankConstant)
	if len(fused) > topK {
		fused = fused[:topK]
	}
	for i := range fused {
		fused[i].Name = h.index.Entry(fused[i].Position)
	}

	h.logger.Debug("hybrid search",
		"query", query,
		"dense", len(dense),
		"sparse", len(sparse),
		"hits", len(fused))
	return fused, nil
}

func (h *HybridRanker) denseCandidates(ctx context.Context, query string) ([]int, error) {
	qv, err := h.embedder.EmbedSingle(ctx, corpus.Normalize(query))
	if err != nil {
		return nil, fmt.Errorf("%w: embedding query: %v", ErrUpstreamUnavailable, err)
	}
	if len(qv) != h.index.Dimensions() {
		return nil, &corpus.DimensionError{Position: -1, Entry: query, Expected: h.index.Dimensions(), Actual: len(qv)}
	}

	scores := make([]float64, h.index.Len())
	for i := range scores {
		scores[i] = utils.CosineSimilarity(qv, h.index.Vector(i))
	}
	return positions(utils.TopKIndices(scores, h.config.CandidateLimit)), nil
}

// sparseCandidates includes zero-score documents, so both lists always have
// min(N, corpus) entries.
func (h *HybridRanker) sparseCandidates(query string) []int {
	scores := h.index.BM25().Scores(corpus.Tokenize(query))
	return positions(utils.TopKIndices(scores, h.config.CandidateLimit))
}

func positions(items []utils.ScoredIndex) []int {
	out := make([]int, len(items))
	for i, it := range items {
		out[i] = it.Index
	}
	return out
}
