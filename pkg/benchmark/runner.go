package benchmark

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/soundprediction/duocdien/pkg/answer"
	"github.com/soundprediction/duocdien/pkg/cypher"
	"github.com/soundprediction/duocdien/pkg/nlp"
	"github.com/soundprediction/duocdien/pkg/pipeline"
	"github.com/soundprediction/duocdien/pkg/types"
)

// Answerer is a question-answering system under evaluation.
type Answerer interface {
	Name() string
	Answer(ctx context.Context, question string) (string, error)
}

// ZeroShotAnswerer asks the model directly, without retrieval.
type ZeroShotAnswerer struct {
	Generator *answer.Generator
}

// NewZeroShotAnswerer wraps g.
func NewZeroShotAnswerer(g *answer.Generator) *ZeroShotAnswerer {
	return &ZeroShotAnswerer{Generator: g}
}

func (a *ZeroShotAnswerer) Name() string { return "zeroshot" }

func (a *ZeroShotAnswerer) Answer(ctx context.Context, question string) (string, error) {
	ans, err := a.Generator.GenerateZeroShot(ctx, question)
	if err != nil {
		return "", err
	}
	return ans.Text, nil
}

// RAGAnswerer answers through text-to-Cypher.
type RAGAnswerer struct {
	Pipeline *pipeline.Pipeline
}

// NewRAGAnswerer wraps p, which must have Cypher and Runner set.
func NewRAGAnswerer(p *pipeline.Pipeline) *RAGAnswerer {
	return &RAGAnswerer{Pipeline: p}
}

func (a *RAGAnswerer) Name() string { return "rag" }

func (a *RAGAnswerer) Answer(ctx context.Context, question string) (string, error) {
	res, err := a.Pipeline.AskCypher(ctx, question)
	if err != nil {
		return "", err
	}
	return res.Answer, nil
}

// HybridAnswerer answers through hybrid entity resolution and graph lookup.
type HybridAnswerer struct {
	Pipeline *pipeline.Pipeline
}

// NewHybridAnswerer wraps p.
func NewHybridAnswerer(p *pipeline.Pipeline) *HybridAnswerer {
	return &HybridAnswerer{Pipeline: p}
}

func (a *HybridAnswerer) Name() string { return "hybrid" }

func (a *HybridAnswerer) Answer(ctx context.Context, question string) (string, error) {
	res, err := a.Pipeline.Ask(ctx, question)
	if err != nil {
		return "", err
	}
	return res.Answer, nil
}

// LogEntry is the record of one evaluated question.
type LogEntry struct {
	Type        string  `json:"type"`
	Question    string  `json:"question"`
	GroundTruth string  `json:"answer_ground_truth"`
	ModelAnswer string  `json:"answer_model"`
	Scores      Scores  `json:"scores"`
	Seconds     float64 `json:"inference_seconds"`
	Failed      bool    `json:"failed,omitempty"`
	ErrorKind   string  `json:"error_kind,omitempty"`
	Error       string  `json:"error,omitempty"`
}

// Summary aggregates a run. Failed questions score 0 and count toward the averages.
type Summary struct {
	Label      string  `json:"label"`
	Count      int     `json:"count"`
	Failed     int     `json:"failed"`
	BLEU       float64 `json:"bleu"`
	RougeL     float64 `json:"rouge"`
	Meteor     float64 `json:"meteor"`
	AvgSeconds float64 `json:"avg_seconds"`
}

// Runner evaluates an Answerer over a question set, one question at a time.
type Runner struct {
	Answerer     Answerer
	Delay        time.Duration
	MaxQuestions int
	Retries      int
	RetryDelay   time.Duration
	Logger       *slog.Logger

	// OnEntry, when set, is called after each question is scored.
	OnEntry func(label string, entry LogEntry)
}

// NewRunner returns a runner with the default pacing: at most 200
// questions, 1s between questions, and 3 attempts 2s apart.
func NewRunner(a Answerer) *Runner {
	return &Runner{
		Answerer:     a,
		Delay:        time.Second,
		MaxQuestions: 200,
		Retries:      3,
		RetryDelay:   2 * time.Second,
		Logger:       slog.Default(),
	}
}

func (r *Runner) logger() *slog.Logger {
	if r.Logger == nil {
		return slog.New(slog.DiscardHandler)
	}
	return r.Logger
}

// Run answers and scores every question. When ctx is cancelled the run stops
// and the summary covers the questions already evaluated.
func (r *Runner) Run(ctx context.Context, label string, questions []Question) (Summary, []LogEntry) {
	if r.MaxQuestions > 0 && len(questions) > r.MaxQuestions {
		questions = questions[:r.MaxQuestions]
	}
	log := r.logger().With("label", label, "answerer", r.Answerer.Name())
	log.Info("evaluation started", "questions", len(questions))

	entries := make([]LogEntry, 0, len(questions))
	for i, q := range questions {
		if i > 0 && sleep(ctx, r.Delay) != nil {
			break
		}
		entry := r.evaluate(ctx, label, q)
		if entry.Failed && ctx.Err() != nil {
			break
		}
		entries = append(entries, entry)
		if r.OnEntry != nil {
			r.OnEntry(label, entry)
		}
		log.Debug("question scored",
			"index", i+1,
			"bleu", entry.Scores.BLEU,
			"rouge", entry.Scores.RougeL,
			"meteor", entry.Scores.Meteor,
			"failed", entry.Failed)
	}

	s := Summarize(label, entries)
	log.Info("evaluation finished",
		"count", s.Count,
		"failed", s.Failed,
		"bleu", s.BLEU,
		"rouge", s.RougeL,
		"meteor", s.Meteor)
	return s, entries
}

func (r *Runner) evaluate(ctx context.Context, label string, q Question) LogEntry {
	entry := LogEntry{Type: label, Question: q.Question, GroundTruth: q.Answer}

	start := time.Now()
	reply, err := r.answer(ctx, q.Question)
	entry.Seconds = time.Since(start).Seconds()

	if err != nil {
		entry.Failed = true
		entry.ErrorKind = ErrorKind(err)
		entry.Error = err.Error()
		r.logger().Warn("question failed", "label", label, "kind", entry.ErrorKind, "error", err)
		return entry
	}
	entry.ModelAnswer = reply
	entry.Scores = Score(q.Answer, reply)
	return entry
}

func (r *Runner) answer(ctx context.Context, question string) (string, error) {
	attempts := max(r.Retries, 1)
	var err error
	for attempt := 1; attempt <= attempts; attempt++ {
		var reply string
		reply, err = r.Answerer.Answer(ctx, question)
		if err == nil {
			return reply, nil
		}
		if !retryable(err) || attempt == attempts {
			break
		}
		r.logger().Debug("retrying question", "attempt", attempt, "kind", ErrorKind(err))
		if serr := sleep(ctx, r.RetryDelay); serr != nil {
			return "", serr
		}
	}
	return "", err
}

func retryable(err error) bool {
	switch {
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return false
	case errors.Is(err, types.ErrEmptyQuestion),
		errors.Is(err, cypher.ErrUnsafeQuery),
		errors.Is(err, pipeline.ErrCypherDisabled),
		errors.Is(err, nlp.ErrRefusal):
		return false
	}
	return true
}

// ErrorKind labels err for benchmark logs.
func ErrorKind(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return "canceled"
	case errors.Is(err, cypher.ErrUnsafeQuery):
		return "unsafe_query"
	case errors.Is(err, cypher.ErrEmptyQuery):
		return "empty_query"
	case errors.Is(err, types.ErrUpstreamUnavailable):
		return "unavailable"
	}
	return nlp.Kind(err)
}

// Summarize averages the scores and timings of entries.
func Summarize(label string, entries []LogEntry) Summary {
	s := Summary{Label: label, Count: len(entries)}
	if len(entries) == 0 {
		return s
	}
	for _, e := range entries {
		if e.Failed {
			s.Failed++
		}
		s.BLEU += e.Scores.BLEU
		s.RougeL += e.Scores.RougeL
		s.Meteor += e.Scores.Meteor
		s.AvgSeconds += e.Seconds
	}
	n := float64(len(entries))
	s.BLEU /= n
	s.RougeL /= n
	s.Meteor /= n
	s.AvgSeconds /= n
	return s
}

func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
