// Package utils provides common utility functions for duocdien.
package utils

import (
	"container/heap"
	"math"
)

// CosineSimilarity calculates the cosine similarity between two float32 vectors.
// Returns 0 if vectors have different lengths, are empty, or either has zero magnitude.
func CosineSimilarity(a, b []float32) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}

	var dotProduct, normA, normB float64
	for i := range a {
		dotProduct += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}

	if normA == 0 || normB == 0 {
		return 0
	}
	return dotProduct / (math.Sqrt(normA) * math.Sqrt(normB))
}

// ScoredIndex is a position with its score.
type ScoredIndex struct {
	Index int
	Score float64
}

// Before reports whether a ranks ahead of b: higher score first, then lower index.
func (a ScoredIndex) Before(b ScoredIndex) bool {
	if a.Score != b.Score {
		return a.Score > b.Score
	}
	return a.Index < b.Index
}

// worstFirst keeps the lowest-ranked element at the root so it can be evicted.
type worstFirst []ScoredIndex

func (h worstFirst) Len() int           { return len(h) }
func (h worstFirst) Less(i, j int) bool { return h[j].Before(h[i]) }
func (h worstFirst) Swap(i, j int)      { h[i], h[j] = h[j], h[i] }

func (h *worstFirst) Push(x any) {
	*h = append(*h, x.(ScoredIndex))
}

func (h *worstFirst) Pop() any {
	old := *h
	n := len(old)
	x := old[n-1]
	*h = old[:n-1]
	return x
}

// TopKIndices returns the k best positions of scores, ordered by descending
// score with ties broken by ascending position. Runs in O(n log k).
// NaN scores are ranked last.
func TopKIndices(scores []float64, k int) []ScoredIndex {
	if k <= 0 || len(scores) == 0 {
		return nil
	}
	if k > len(scores) {
		k = len(scores)
	}

	h := make(worstFirst, 0, k)
	for i, s := range scores {
		if math.IsNaN(s) {
			s = math.Inf(-1)
		}
		item := ScoredIndex{Index: i, Score: s}
		if h.Len() < k {
			heap.Push(&h, item)
		} else if item.Before(h[0]) {
			h[0] = item
			heap.Fix(&h, 0)
		}
	}

	result := make([]ScoredIndex, h.Len())
	for i := len(result) - 1; i >= 0; i-- {
		result[i] = heap.Pop(&h).(ScoredIndex)
	}
	return result
}
