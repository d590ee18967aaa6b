package handlers

import (
	"context"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/soundprediction/duocdien/pkg/search"
	"github.com/soundprediction/duocdien/pkg/server/dto"
)

// DetailedSearcher returns fused hits with scores. *search.HybridRanker implements it.
type DetailedSearcher interface {
	SearchDetailed(ctx context.Context, query string, topK int) ([]search.FusedHit, error)
}

// SearchHandler exposes the hybrid ranker
type SearchHandler struct {
	searcher    DetailedSearcher
	defaultTopK int
}

// NewSearchHandler creates a new search handler
func NewSearchHandler(s DetailedSearcher, defaultTopK int) *SearchHandler {
	if defaultTopK <= 0 {
		defaultTopK = search.DefaultTopK
	}
	return &SearchHandler{searcher: s, defaultTopK: defaultTopK}
}

// Search handles POST /api/v1/search
func (h *SearchHandler) Search(c *gin.Context) {
	var req dto.SearchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, http.StatusBadRequest, "invalid_request", err.Error())
		return
	}
	if err := req.Validate(); err != nil {
		writeError(c, http.StatusBadRequest, "invalid_request", err.Error())
		return
	}
	if h.searcher == nil {
		writeError(c, http.StatusServiceUnavailable, "not_ready", "search is not configured")
		return
	}

	topK := req.TopK
	if topK == 0 {
		topK = h.defaultTopK
	}
	query := strings.TrimSpace(req.Query)

	fused, err := h.searcher.SearchDetailed(c.Request.Context(), query, topK)
	if err != nil {
		status, code := classify(err)
		writeError(c, status, code, err.Error())
		return
	}

	hits := make([]dto.SearchHit, 0, len(fused))
	for i, f := range fused {
		hit := dto.SearchHit{Rank: i + 1, Name: f.Name, Position: f.Position, Score: f.Score}
		// Ranks are listed dense first, then BM25.
		if len(f.Ranks) > 0 && f.Ranks[0] >= 0 {
			hit.DenseRank = &f.Ranks[0]
		}
		if len(f.Ranks) > 1 && f.Ranks[1] >= 0 {
			hit.BM25Rank = &f.Ranks[1]
		}
		hits = append(hits, hit)
	}

	c.JSON(http.StatusOK, dto.SearchResponse{Query: query, Hits: hits, Total: len(hits)})
}
