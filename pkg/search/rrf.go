package search

import "sort"

// DefaultRankConstant is the RRF k.
const DefaultRankConstant = 60

// FusedHit is one fused result.
type FusedHit struct {
	Position int     `json:"position"`
	Name     string  `json:"name,omitempty"`
	Score    float64 `json:"score"`
	// Ranks holds the 0-indexed rank in each contributing list; -1 when absent.
	Ranks []int `json:"ranks"`
}

// RRF fuses ranked lists of corpus positions. Each list contributes
// 1/(rankConstant+rank+1) to every position it contains. The result is sorted
// by descending score, ties by ascending position. A position repeated within
// one list only counts at its best rank.
func RRF(lists [][]int, rankConstant int) []FusedHit {
	if rankConstant <= 0 {
		rankConstant = DefaultRankConstant
	}

	byPos := make(map[int]*FusedHit)
	var order []int
	for li, list := range lists {
		for rank, pos := range list {
			hit, ok := byPos[pos]
			if !ok {
				hit = &FusedHit{Position: pos, Ranks: make([]int, len(lists))}
				for i := range hit.Ranks {
					hit.Ranks[i] = -1
				}
				byPos[pos] = hit
				order = append(order, pos)
			}
			if hit.Ranks[li] != -1 {
				continue
			}
			hit.Ranks[li] = rank
			hit.Score += 1.0 / float64(rankConstant+rank+1)
		}
	}

	out := make([]FusedHit, 0, len(order))
	for _, pos := range order {
		out = append(out, *byPos[pos])
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Score != out[j].Score {
			return out[i].Score > out[j].Score
		}
		return out[i].Position < out[j].Position
	})
	return out
}
