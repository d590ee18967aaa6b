package benchmark

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/soundprediction/duocdien/pkg/nlp/nlptest"
	"github.com/soundprediction/duocdien/pkg/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// echoDraft replies with the draft question found in the prompt, prefixed so
// tests can tell it was rephrased.
func echoDraft(messages []types.Message) (string, error) {
	prompt := messages[len(messages)-1].Content
	for _, draft := range []string{
		"Tên Latin của hoạt chất [ASPIRIN] là gì?",
		"Hoạt chất [ASPIRIN] thuộc nhóm hoặc loại thuốc nào?",
		"Hoạt chất nào có tên Latin là [Acidum acetylsalicylicum]?",
		"Kể tên một loại thuốc thuộc nhóm [Giảm đau]?",
		"Hoạt chất có công thức hóa học là [C9H8O4] yêu cầu điều kiện bảo quản như thế nào?",
		"Phương pháp định lượng dành cho dược chất có công thức [C9H8O4] là gì?",
	} {
		if strings.Contains(prompt, draft) {
			out, err := json.Marshal(map[string]string{"question": "Xin hỏi: " + draft})
			return "```json\n" + string(out) + "\n```", err
		}
	}
	return "", errors.New("unexpected prompt")
}

var aspirinTriples = []Triple{
	{Header: "ASPIRIN", Relation: RelLatinName, Tail: "Acidum acetylsalicylicum", Answer: "Acidum acetylsalicylicum"},
	{Header: "ASPIRIN", Relation: RelDrugClass, Tail: "Giảm đau", Answer: "Giảm đau"},
	{Header: "ASPIRIN", Relation: RelStorage, Tail: "không có thông tin", Answer: "không có thông tin"},
}

func TestOneHop(t *testing.T) {
	llm := &nlptest.Client{Respond: echoDraft}
	g := NewQuestionGenerator(llm, WithConcurrency(2))

	got, err := g.OneHop(context.Background(), aspirinTriples)
	require.NoError(t, err)
	require.Len(t, got, 4)
	assert.Equal(t, 4, llm.Calls())

	assert.Equal(t, "Xin hỏi: Tên Latin của hoạt chất [ASPIRIN] là gì?", got[0].Question)
	assert.Equal(t, TypeDrugToAttribute, got[0].QuestionType)
	assert.Equal(t, "Acidum acetylsalicylicum", got[0].Answer)
	assert.Equal(t, RelDrugClass, got[1].Relation)

	for _, q := range got[2:] {
		assert.Equal(t, TypeAttributeToDrug, q.QuestionType)
		assert.Equal(t, "ASPIRIN", q.Answer)
	}
	assert.Equal(t, "Xin hỏi: Kể tên một loại thuốc thuộc nhóm [Giảm đau]?", got[3].Question)
}

func TestOneHop_DropsUnusableReplies(t *testing.T) {
	llm := &nlptest.Client{Respond: func(messages []types.Message) (string, error) {
		if strings.Contains(messages[0].Content, "Giảm đau") {
			return `{"question": ""}`, nil
		}
		if strings.Contains(messages[0].Content, "Acidum") {
			return "NULL", nil
		}
		return echoDraft(messages)
	}}
	g := NewQuestionGenerator(llm)

	got, err := g.OneHop(context.Background(), aspirinTriples)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, TypeDrugToAttribute, got[0].QuestionType)
	assert.Equal(t, TypeDrugToAttribute, got[1].QuestionType)
	assert.Equal(t, 4, llm.Calls())
}

func TestOneHop_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := NewQuestionGenerator(nlptest.New(`{"question": "x"}`)).OneHop(ctx, aspirinTriples)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestPairs(t *testing.T) {
	triples := []Triple{
		{Header: "A", Relation: RelFormula, Tail: "F"},
		{Header: "B", Relation: RelLatinName, Tail: "L"},
		{Header: "A", Relation: RelStorage, Tail: "S"},
		{Header: "A", Relation: RelAssay, Tail: "Q"},
	}
	got := Pairs(triples)
	require.Len(t, got, 6)
	assert.Equal(t, Pair{Header: "A", Relation1: RelFormula, Tail1: "F", Relation2: RelStorage, Tail2: "S"}, got[0])
	assert.Equal(t, Pair{Header: "A", Relation1: RelStorage, Tail1: "S", Relation2: RelFormula, Tail2: "F"}, got[1])
	assert.Equal(t, "công_thức_hóa_học_to_bảo_quản", got[0].Type())
}

func TestTwoHop(t *testing.T) {
	triples := []Triple{
		{Header: "ASPIRIN", Relation: RelFormula, Tail: "C9H8O4", Answer: "C9H8O4"},
		{Header: "ASPIRIN", Relation: RelStorage, Tail: "Tránh ánh sáng", Answer: "Tránh ánh sáng"},
		{Header: "ASPIRIN", Relation: RelAssay, Tail: "Chuẩn độ acid-base", Answer: "Chuẩn độ acid-base"},
	}
	llm := &nlptest.Client{Respond: echoDraft}

	got, err := NewQuestionGenerator(llm).TwoHop(context.Background(), triples)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "công_thức_hóa_học_to_bảo_quản", got[0].QuestionType)
	assert.Equal(t, "Tránh ánh sáng", got[0].Answer)
	assert.Equal(t, "công_thức_hóa_học_to_định_lượng", got[1].QuestionType)
	assert.Equal(t, "Chuẩn độ acid-base", got[1].Answer)
	assert.Empty(t, got[1].Relation)
}

func TestTemplates(t *testing.T) {
	_, err := DrugToAttributeQuestion(Triple{Header: "X", Relation: "không_rõ"})
	assert.ErrorIs(t, err, ErrNoTemplate)

	assert.Equal(t, "Thông tin [Định tính A] thuộc về hoạt chất nào?",
		AttributeToDrugQuestion(Triple{Relation: RelIdentification, Tail: "Định tính A"}))

	_, err = TwoHopQuestion(Pair{Relation1: RelStorage, Relation2: RelFormula})
	assert.ErrorIs(t, err, ErrNoTemplate)
}

func TestParseRephrase(t *testing.T) {
	q, err := ParseRephrase(`Đây là câu hỏi: {"question": "Aspirin [C9H8O4] là gì?",}`)
	require.NoError(t, err)
	assert.Equal(t, "Aspirin [C9H8O4] là gì?", q)

	for _, reply := range []string{"{}", "NULL", `{"question": "  "}`} {
		_, err := ParseRephrase(reply)
		assert.ErrorIs(t, err, ErrMalformedLLMOutput, reply)
	}
}
