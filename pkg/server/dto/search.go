package dto

import "strings"

// SearchRequest is the body of POST /api/v1/search.
type SearchRequest struct {
	Query string `json:"query" binding:"required"`
	TopK  int    `json:"top_k,omitempty"`
}

// Validate performs validation on SearchRequest
func (r *SearchRequest) Validate() error {
	if strings.TrimSpace(r.Query) == "" {
		return ErrEmptyQuery
	}
	if len(r.Query) > MaxQuestionLength {
		return ErrQuestionTooLong
	}
	if r.TopK < 0 || r.TopK > MaxTopK {
		return ErrTopKOutOfRange
	}
	return nil
}

// SearchHit is one fused candidate.
type SearchHit struct {
	Rank      int     `json:"rank"`
	Name      string  `json:"name"`
	Position  int     `json:"position"`
	Score     float64 `json:"score"`
	DenseRank *int    `json:"dense_rank,omitempty"`
	BM25Rank  *int    `json:"bm25_rank,omitempty"`
}

// SearchResponse lists fused candidates, best first.
type SearchResponse struct {
	Query string      `json:"query"`
	Hits  []SearchHit `json:"hits"`
	Total int         `json:"total"`
}
