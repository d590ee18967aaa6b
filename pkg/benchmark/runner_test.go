package benchmark

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"github.com/soundprediction/duocdien/pkg/answer"
	"github.com/soundprediction/duocdien/pkg/cypher"
	"github.com/soundprediction/duocdien/pkg/driver"
	"github.com/soundprediction/duocdien/pkg/nlp"
	"github.com/soundprediction/duocdien/pkg/nlp/nlptest"
	"github.com/soundprediction/duocdien/pkg/pipeline"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type scriptedAnswerer struct {
	mu      sync.Mutex
	replies map[string]string
	errs    map[string]error
	calls   map[string]int
}

func (a *scriptedAnswerer) Name() string { return "scripted" }

func (a *scriptedAnswerer) Answer(ctx context.Context, q string) (string, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.calls == nil {
		a.calls = map[string]int{}
	}
	a.calls[q]++
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if err, ok := a.errs[q]; ok {
		return "", err
	}
	return a.replies[q], nil
}

func newTestRunner(a Answerer) *Runner {
	r := NewRunner(a)
	r.Delay = 0
	r.RetryDelay = 0
	r.Logger = nil
	return r
}

func TestRun_ScoresAndFailures(t *testing.T) {
	a := &scriptedAnswerer{
		replies: map[string]string{"q1": "C9H8O4"},
		errs:    map[string]error{"q2": fmt.Errorf("gemini: %w", nlp.NewRateLimitError())},
	}
	qs := []Question{
		{Question: "q1", Answer: "C9H8O4"},
		{Question: "q2", Answer: "Tránh ánh sáng"},
	}

	s, entries := newTestRunner(a).Run(context.Background(), "1-hop", qs)
	require.Len(t, entries, 2)

	assert.False(t, entries[0].Failed)
	assert.Equal(t, "1-hop", entries[0].Type)
	assert.Equal(t, "C9H8O4", entries[0].ModelAnswer)
	assert.Equal(t, "C9H8O4", entries[0].GroundTruth)

	assert.True(t, entries[1].Failed)
	assert.Equal(t, "rate_limit", entries[1].ErrorKind)
	assert.Empty(t, entries[1].ModelAnswer)
	assert.Zero(t, entries[1].Scores)
	assert.Equal(t, 3, a.calls["q2"])

	assert.Equal(t, 2, s.Count)
	assert.Equal(t, 1, s.Failed)
	assert.InDelta(t, entries[0].Scores.BLEU/2, s.BLEU, 1e-9)
	assert.InDelta(t, 0.5, s.RougeL, 1e-9)
}

func TestRun_OnEntry(t *testing.T) {
	a := &scriptedAnswerer{replies: map[string]string{"q1": "a", "q2": "b"}}
	r := newTestRunner(a)
	var seen []string
	r.OnEntry = func(label string, e LogEntry) {
		seen = append(seen, label+":"+e.Question)
	}

	r.Run(context.Background(), "2-hop", []Question{{Question: "q1"}, {Question: "q2"}})
	assert.Equal(t, []string{"2-hop:q1", "2-hop:q2"}, seen)
}

func TestRun_UnsafeQueryIsNotRetried(t *testing.T) {
	a := &scriptedAnswerer{errs: map[string]error{"q": &cypher.UnsafeQueryError{Clause: "DELETE"}}}

	_, entries := newTestRunner(a).Run(context.Background(), "2-hop", []Question{{Question: "q", Answer: "x"}})
	require.Len(t, entries, 1)
	assert.Equal(t, "unsafe_query", entries[0].ErrorKind)
	assert.Equal(t, 1, a.calls["q"])
}

func TestRun_MaxQuestions(t *testing.T) {
	a := &scriptedAnswerer{replies: map[string]string{}}
	qs := make([]Question, 5)
	for i := range qs {
		qs[i] = Question{Question: fmt.Sprintf("q%d", i), Answer: "a"}
	}
	r := newTestRunner(a)
	r.MaxQuestions = 3

	s, entries := r.Run(context.Background(), "1-hop", qs)
	assert.Len(t, entries, 3)
	assert.Equal(t, 3, s.Count)
}

func TestRun_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	s, entries := newTestRunner(&scriptedAnswerer{}).Run(ctx, "1-hop", []Question{{Question: "q", Answer: "a"}})
	assert.Empty(t, entries)
	assert.Zero(t, s.Count)
}

func TestSummarize_Empty(t *testing.T) {
	assert.Equal(t, Summary{Label: "x"}, Summarize("x", nil))
}

type stubRanker struct{ names []string }

func (r stubRanker) Search(context.Context, string, int) ([]string, error) { return r.names, nil }

type stubGraph struct{ records []driver.ContextRecord }

func (g stubGraph) FetchContext(context.Context, string) ([]driver.ContextRecord, error) {
	return g.records, nil
}

type stubRunner struct{ rows []map[string]any }

func (r stubRunner) RunQuery(context.Context, string, map[string]any) ([]map[string]any, error) {
	return r.rows, nil
}

func TestAnswerers(t *testing.T) {
	ctx := context.Background()
	gen := answer.NewGenerator(nlptest.New("Aspirin có công thức C9H8O4."))

	zs := NewZeroShotAnswerer(gen)
	got, err := zs.Answer(ctx, "Công thức của Aspirin?")
	require.NoError(t, err)
	assert.Equal(t, "Aspirin có công thức C9H8O4.", got)
	assert.Equal(t, "zeroshot", zs.Name())

	p := &pipeline.Pipeline{
		Ranker:    stubRanker{names: []string{"ASPIRIN"}},
		Graph:     stubGraph{records: []driver.ContextRecord{{Label: "HOẠT_CHẤT", Properties: map[string]string{"công_thức_hóa_học": "C9H8O4"}}}},
		Generator: gen,
		Cypher:    cypher.NewGenerator(nlptest.New("```cypher\nMATCH (n:HOẠT_CHẤT) RETURN n.công_thức_hóa_học\n```"), "", nil),
		Runner:    stubRunner{rows: []map[string]any{{"n.công_thức_hóa_học": "C9H8O4"}}},
	}

	got, err = NewHybridAnswerer(p).Answer(ctx, "Công thức của Aspirin?")
	require.NoError(t, err)
	assert.Equal(t, "Aspirin có công thức C9H8O4.", got)

	got, err = NewRAGAnswerer(p).Answer(ctx, "Công thức của Aspirin?")
	require.NoError(t, err)
	assert.Equal(t, "Aspirin có công thức C9H8O4.", got)
}
