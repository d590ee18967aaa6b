package search

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRRF(t *testing.T) {
	fused := RRF([][]int{{0, 1}, {1, 2}}, 60)
	require.Len(t, fused, 3)

	assert.Equal(t, 1, fused[0].Position)
	assert.InDelta(t, 1.0/61+1.0/62, fused[0].Score, 1e-12)
	assert.Equal(t, []int{1, 0}, fused[0].Ranks)

	assert.Equal(t, 0, fused[1].Position)
	assert.InDelta(t, 1.0/61, fused[1].Score, 1e-12)
	assert.Equal(t, []int{0, -1}, fused[1].Ranks)

	assert.Equal(t, 2, fused[2].Position)
	assert.Equal(t, []int{-1, 1}, fused[2].Ranks)
}

func TestRRF_TopInBothListsIsFirst(t *testing.T) {
	fused := RRF([][]int{{7, 3, 5, 1}, {7, 1, 3}}, 60)
	assert.Equal(t, 7, fused[0].Position)
}

func TestRRF_TiesByPosition(t *testing.T) {
	// 4 and 2 each hold rank 0 in one list only
	fused := RRF([][]int{{4}, {2}}, 60)
	require.Len(t, fused, 2)
	assert.Equal(t, 2, fused[0].Position)
	assert.Equal(t, 4, fused[1].Position)
}

func TestRRF_SwappedPairTiesByPosition(t *testing.T) {
	// dense ranks [A, B], sparse ranks [B, A]
	fused := RRF([][]int{{0, 1}, {1, 0}}, 60)
	require.Len(t, fused, 2)
	assert.Equal(t, fused[0].Score, fused[1].Score)
	assert.InDelta(t, 1.0/61+1.0/62, fused[0].Score, 1e-12)
	assert.Equal(t, 0, fused[0].Position)
	assert.Equal(t, 1, fused[1].Position)
	assert.Equal(t, []int{0, 1}, fused[0].Ranks)
	assert.Equal(t, []int{1, 0}, fused[1].Ranks)
}

func TestRRF_Edges(t *testing.T) {
	assert.Empty(t, RRF(nil, 60))
	assert.Empty(t, RRF([][]int{{}, {}}, 60))

	// non-positive k falls back to the default
	fused := RRF([][]int{{0}}, 0)
	assert.InDelta(t, 1.0/61, fused[0].Score, 1e-12)

	// duplicates within a list count once, at their best rank
	fused = RRF([][]int{{3, 3}}, 60)
	require.Len(t, fused, 1)
	assert.InDelta(t, 1.0/61, fused[0].Score, 1e-12)
}

func TestRRF_Deterministic(t *testing.T) {
	lists := [][]int{{9, 8, 7, 6, 5}, {5, 6, 7, 8, 9}}
	first := RRF(lists, 60)
	for i := 0; i < 20; i++ {
		assert.Equal(t, first, RRF(lists, 60))
	}
}
