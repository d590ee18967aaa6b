package answer

import (
	"context"
	"errors"
	"testing"

	"github.com/soundprediction/duocdien/pkg/driver"
	"github.com/soundprediction/duocdien/pkg/nlp"
	"github.com/soundprediction/duocdien/pkg/nlp/nlptest"
	"github.com/soundprediction/duocdien/pkg/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var aspirinContext = []driver.ContextRecord{
	{Label: "HOẠT_CHẤT", Properties: map[string]string{"tên_hoạt_chất": "ASPIRIN", "công_thức_hóa_học": "C9H8O4"}},
	{Label: "TIÊU_CHUẨN", Relation: "CÓ_TIÊU_CHUẨN", Properties: map[string]string{"định_lượng": "Chuẩn độ acid-base"}},
}

func TestGenerate_EmptyContextSkipsModel(t *testing.T) {
	llm := nlptest.New("không được gọi")
	g := NewGenerator(llm)

	ans, err := g.Generate(context.Background(), "Aspirin là gì?", "ASPIRIN", nil)
	require.NoError(t, err)
	assert.Equal(t, InsufficientInformation, ans.Text)
	assert.False(t, ans.Grounded)
	assert.Zero(t, llm.Calls())
}

func TestGenerate_RendersContext(t *testing.T) {
	llm := nlptest.New("  Công thức hóa học của Aspirin là C9H8O4.\n")
	g := NewGenerator(llm)

	ans, err := g.Generate(context.Background(), "Công thức của Aspirin?", "ASPIRIN", aspirinContext)
	require.NoError(t, err)
	assert.Equal(t, "Công thức hóa học của Aspirin là C9H8O4.", ans.Text)
	assert.True(t, ans.Grounded)
	assert.Equal(t, "ASPIRIN", ans.Entity)
	assert.Equal(t, 2, ans.TokensUsed.TotalTokens)

	prompt := llm.LastPrompt()
	assert.Contains(t, prompt, `"ASPIRIN"`)
	assert.Contains(t, prompt, "C9H8O4")
	assert.Contains(t, prompt, "Chuẩn độ acid-base")
}

func TestGenerate_ErrorKinds(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		reply    string
		sentinel error
		kind     string
	}{
		{"rate limit", nlp.NewRateLimitError(), "", nlp.ErrRateLimit, "rate_limit"},
		{"refusal", nlp.NewRefusalError("blocked"), "", nlp.ErrRefusal, "refusal"},
		{"blank reply", nil, "   ", nlp.ErrEmptyResponse, "empty_response"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			llm := nlptest.New(tt.reply)
			llm.Err = tt.err
			_, err := NewGenerator(llm).Generate(context.Background(), "q", "ASPIRIN", aspirinContext)

			var genErr *GenerationError
			require.True(t, errors.As(err, &genErr))
			assert.Equal(t, tt.kind, genErr.Kind)
			assert.ErrorIs(t, err, tt.sentinel)
		})
	}
}

func TestGenerateFromRows(t *testing.T) {
	llm := nlptest.New("Paracetamol thuộc nhóm giảm đau.")
	g := NewGenerator(llm)

	ans, err := g.GenerateFromRows(context.Background(), "q", nil)
	require.NoError(t, err)
	assert.Equal(t, InsufficientInformation, ans.Text)
	assert.Zero(t, llm.Calls())

	ans, err = g.GenerateFromRows(context.Background(), "Paracetamol thuộc nhóm nào?", []map[string]any{
		{"n.tên_hoạt_chất": "PARACETAMOL", "l.tên_loại": "Giảm đau, hạ sốt"},
	})
	require.NoError(t, err)
	assert.True(t, ans.Grounded)
	assert.Contains(t, llm.LastPrompt(), "Giảm đau, hạ sốt")
}

func TestGenerateZeroShot(t *testing.T) {
	llm := nlptest.New("Aspirin có công thức C9H8O4.")
	g := NewGenerator(llm)

	_, err := g.GenerateZeroShot(context.Background(), " ")
	assert.ErrorIs(t, err, types.ErrEmptyQuestion)

	ans, err := g.GenerateZeroShot(context.Background(), "Công thức của Aspirin?")
	require.NoError(t, err)
	assert.False(t, ans.Grounded)
	assert.Contains(t, llm.LastPrompt(), "Câu hỏi: Công thức của Aspirin?")
}
