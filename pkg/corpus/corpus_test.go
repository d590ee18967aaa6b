package corpus

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/soundprediction/duocdien/pkg/embedder/embeddertest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/text/unicode/norm"
)

func TestClean(t *testing.T) {
	nfd := norm.NFD.String("Cảm cúm")
	require.NotEqual(t, "Cảm cúm", nfd)

	got := Clean([]string{"  Ho gà ", "", "   ", "Sốt xuất huyết", "Ho gà", nfd, "Cảm cúm"}, nil)
	assert.Equal(t, []string{"Ho gà", "Sốt xuất huyết", "Cảm cúm"}, got)
}

func TestBuild(t *testing.T) {
	emb := embeddertest.New(map[string][]float32{
		"Ho gà":          {1, 0, 0},
		"Sốt xuất huyết": {0, 1, 0},
		"Cảm cúm":        {0, 0, 1},
	})

	idx, err := Build(context.Background(), []string{"Ho gà", "Sốt xuất huyết", "", "Cảm cúm", "Ho gà"}, emb)
	require.NoError(t, err)

	assert.Equal(t, 3, idx.Len())
	assert.Equal(t, []string{"Ho gà", "Sốt xuất huyết", "Cảm cúm"}, idx.Entries())
	assert.Equal(t, "Cảm cúm", idx.Entry(2))
	assert.Equal(t, 3, idx.Dimensions())
	assert.Equal(t, []float32{0, 1, 0}, idx.Vector(1))
	assert.Equal(t, 3, idx.BM25().Len())
	assert.Equal(t, 1, emb.Calls)
}

func TestBuild_Idempotent(t *testing.T) {
	emb := embeddertest.New(nil)
	in := []string{"Ho gà", "Cảm cúm", "Ho gà"}

	a, err := Build(context.Background(), in, emb)
	require.NoError(t, err)
	b, err := Build(context.Background(), in, emb)
	require.NoError(t, err)

	assert.Equal(t, a.Entries(), b.Entries())
	for i := 0; i < a.Len(); i++ {
		assert.Equal(t, a.Vector(i), b.Vector(i))
	}
}

func TestBuild_Empty(t *testing.T) {
	emb := embeddertest.New(nil)
	idx, err := Build(context.Background(), []string{"", "  "}, emb)
	require.NoError(t, err)
	assert.Equal(t, 0, idx.Len())
	assert.Equal(t, 0, emb.Calls, "nothing to embed")
	assert.Empty(t, idx.BM25().Scores([]string{"ho"}))
}

func TestBuild_UpstreamFailure(t *testing.T) {
	emb := embeddertest.New(nil)
	emb.Err = errors.New("connection refused")

	_, err := Build(context.Background(), []string{"Ho gà"}, emb)
	assert.ErrorIs(t, err, ErrUpstreamUnavailable)
}

func TestBuild_DimensionMismatch(t *testing.T) {
	emb := embeddertest.New(map[string][]float32{
		"Ho gà":   {1, 0, 0},
		"Cảm cúm": {1, 0},
	})
	emb.Dim = 3

	_, err := Build(context.Background(), []string{"Ho gà", "Cảm cúm"}, emb)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrDimensionMismatch)

	var dimErr *DimensionError
	require.True(t, errors.As(err, &dimErr))
	assert.Equal(t, 1, dimErr.Position)
	assert.Equal(t, 2, dimErr.Actual)
}

func TestTokenize(t *testing.T) {
	assert.Equal(t, []string{"ho", "gà"}, Tokenize("  HO   Gà "))
	assert.Empty(t, Tokenize("   "))
}

func TestReadColumn(t *testing.T) {
	data := "\ufefftên_bệnh,mô_tả\nHo gà,ho kéo dài\n\"Sốt, xuất huyết\",sốt\n"
	got, err := ReadColumn(strings.NewReader(data), "tên_bệnh")
	require.NoError(t, err)
	assert.Equal(t, []string{"Ho gà", "Sốt, xuất huyết"}, got)

	_, err = ReadColumn(strings.NewReader(data), "missing")
	assert.ErrorIs(t, err, ErrColumnNotFound)
}
