package corpus

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBM25_ExactMatchScoresHighest(t *testing.T) {
	docs := [][]string{{"ho", "gà"}, {"sốt", "xuất", "huyết"}, {"cảm", "cúm"}}
	bm := NewBM25(docs, DefaultBM25Params())

	scores := bm.Scores([]string{"ho", "gà"})
	require.Len(t, scores, 3)
	assert.Greater(t, scores[0], 0.0)
	assert.Equal(t, 0.0, scores[1])
	assert.Equal(t, 0.0, scores[2])

	// idf = ln(2.5/1.5); avgdl = 7/3; doc length 2
	idf := math.Log(2.5) - math.Log(1.5)
	denom := 1 + 1.5*(1-0.75+0.75*2/(7.0/3.0))
	want := 2 * idf * 2.5 / denom
	assert.InDelta(t, want, scores[0], 1e-9)
}

func TestBM25_NegativeIDFFloor(t *testing.T) {
	docs := [][]string{{"a", "b"}, {"a", "c"}, {"a", "d"}}
	bm := NewBM25(docs, DefaultBM25Params())

	idfA := math.Log(0.5) - math.Log(3.5)
	idfRare := math.Log(2.5) - math.Log(1.5)
	avg := (idfA + 3*idfRare) / 4

	assert.InDelta(t, 0.25*avg, bm.IDF("a"), 1e-12)
	assert.InDelta(t, idfRare, bm.IDF("b"), 1e-12)
	assert.Equal(t, 0.0, bm.IDF("zzz"))
}

func TestBM25_RepeatedQueryTokens(t *testing.T) {
	bm := NewBM25([][]string{{"ho", "gà"}, {"cảm", "cúm"}, {"sốt"}}, DefaultBM25Params())
	once := bm.Scores([]string{"ho"})
	twice := bm.Scores([]string{"ho", "ho"})
	require.Greater(t, once[0], 0.0)
	assert.InDelta(t, 2*once[0], twice[0], 1e-12)
}

func TestBM25_Empty(t *testing.T) {
	bm := NewBM25(nil, DefaultBM25Params())
	assert.Equal(t, 0, bm.Len())
	assert.Empty(t, bm.Scores([]string{"x"}))
}

func TestBM25_FloorIdenticalAcrossBuilds(t *testing.T) {
	var docs [][]string
	for i := 0; i < 40; i++ {
		docs = append(docs, []string{"viên", "nén", "thuốc", "số" + string(rune('a'+i%26)), "lô" + string(rune('a'+i/2))})
	}
	first := NewBM25(docs, DefaultBM25Params())
	require.Less(t, math.Log(40-40+0.5)-math.Log(40+0.5), 0.0, "common terms need flooring")

	for i := 0; i < 20; i++ {
		again := NewBM25(docs, DefaultBM25Params())
		assert.Equal(t, first.IDF("viên"), again.IDF("viên"))
		assert.Equal(t, first.Scores([]string{"viên", "sốa"}), again.Scores([]string{"viên", "sốa"}))
	}
}
