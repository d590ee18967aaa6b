package embedder

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/soundprediction/duocdien/pkg/nlp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type countingEmbedder struct {
	seen []string
	err  error
}

func (c *countingEmbedder) Embed(_ context.Context, texts []string) ([][]float32, error) {
	if c.err != nil {
		return nil, c.err
	}
	c.seen = append(c.seen, texts...)
	out := make([][]float32, len(texts))
	for i, t := range texts {
		out[i] = []float32{float32(len([]rune(t))), 0.5}
	}
	return out, nil
}

func (c *countingEmbedder) EmbedSingle(ctx context.Context, text string) ([]float32, error) {
	return embedSingle(ctx, c, text)
}
func (c *countingEmbedder) Dimensions() int                       { return 2 }
func (c *countingEmbedder) GetCapabilities() []nlp.TaskCapability { return nil }
func (c *countingEmbedder) Close() error                          { return nil }

func TestCachedClient_OnlyEmbedsMisses(t *testing.T) {
	inner := &countingEmbedder{}
	cached, err := NewCachedClientAt(inner, "", "test-model", slog.New(slog.NewTextHandler(io.Discard, nil)))
	require.NoError(t, err)
	defer cached.Close()

	ctx := context.Background()
	first, err := cached.Embed(ctx, []string{"Ho gà", "Cảm cúm"})
	require.NoError(t, err)
	assert.Equal(t, []string{"Ho gà", "Cảm cúm"}, inner.seen)

	second, err := cached.Embed(ctx, []string{"Sốt xuất huyết", "Ho gà"})
	require.NoError(t, err)
	assert.Equal(t, []string{"Ho gà", "Cảm cúm", "Sốt xuất huyết"}, inner.seen)
	assert.Equal(t, first[0], second[1])
	assert.Equal(t, []float32{float32(len([]rune("Sốt xuất huyết"))), 0.5}, second[0])
	assert.Equal(t, 2, cached.Dimensions())
}

func TestCachedClient_ModelNamespacesKeys(t *testing.T) {
	db, err := OpenCache("")
	require.NoError(t, err)
	defer db.Close()

	a := &countingEmbedder{}
	b := &countingEmbedder{}
	_, err = NewCachedClient(a, db, "model-a", nil).Embed(context.Background(), []string{"x"})
	require.NoError(t, err)
	_, err = NewCachedClient(b, db, "model-b", nil).Embed(context.Background(), []string{"x"})
	require.NoError(t, err)
	assert.Len(t, b.seen, 1)
}

func TestCachedClient_PropagatesUpstreamError(t *testing.T) {
	boom := errors.New("upstream down")
	cached, err := NewCachedClientAt(&countingEmbedder{err: boom}, "", "m", nil)
	require.NoError(t, err)
	defer cached.Close()

	_, err = cached.EmbedSingle(context.Background(), "Ho gà")
	assert.ErrorIs(t, err, boom)
}

func TestVectorCodecRoundTrip(t *testing.T) {
	v := []float32{0, -1.5, 3.25}
	got, err := decodeVector(encodeVector(v))
	require.NoError(t, err)
	assert.Equal(t, v, got)

	_, err = decodeVector([]byte{1, 2, 3})
	assert.Error(t, err)
}

func TestBatches(t *testing.T) {
	assert.Equal(t, [][]string{{"a", "b"}, {"c"}}, batches([]string{"a", "b", "c"}, 2))
	assert.Empty(t, batches(nil, 2))
}
