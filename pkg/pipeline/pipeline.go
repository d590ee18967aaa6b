package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/soundprediction/duocdien/pkg/answer"
	"github.com/soundprediction/duocdien/pkg/cache"
	"github.com/soundprediction/duocdien/pkg/cypher"
	"github.com/soundprediction/duocdien/pkg/driver"
	"github.com/soundprediction/duocdien/pkg/types"
)

// Status describes how a question was resolved.
type Status string

const (
	// StatusNoEntity means the ranker found no candidate entity.
	StatusNoEntity Status = "no_entity"
	// StatusNoContext means the entity has no data in the graph.
	StatusNoContext Status = "no_context"
	// StatusAnswered means the model produced a grounded answer.
	StatusAnswered Status = "answered"
)

// ErrCypherDisabled is returned by AskCypher when no query generator or runner is configured.
var ErrCypherDisabled = errors.New("pipeline: text-to-cypher is not configured")

// Ranker resolves a question to entity names.
type Ranker interface {
	Search(ctx context.Context, query string, topK int) ([]string, error)
}

// Generator produces answers from graph context or query rows.
type Generator interface {
	Generate(ctx context.Context, question, entity string, records []driver.ContextRecord) (answer.Answer, error)
	GenerateFromRows(ctx context.Context, question string, rows []map[string]any) (answer.Answer, error)
}

// QueryGenerator turns a question into Cypher.
type QueryGenerator interface {
	Generate(ctx context.Context, question string) (string, error)
}

// Cache stores results between calls. Misses report false with a nil error.
type Cache interface {
	Get(ctx context.Context, key string, v any) (bool, error)
	Set(ctx context.Context, key string, v any) error
}

// Result is the outcome of one question.
type Result struct {
	Question string                 `json:"question"`
	Status   Status                 `json:"status"`
	Entity   string                 `json:"entity,omitempty"`
	Answer   string                 `json:"answer"`
	Grounded bool                   `json:"grounded"`
	Context  []driver.ContextRecord `json:"context,omitempty"`
	Query    string                 `json:"query,omitempty"`
	Rows     []map[string]any       `json:"rows,omitempty"`
	Model    string                 `json:"model,omitempty"`
	Cached   bool                   `json:"cached"`
	Duration time.Duration          `json:"duration_ns"`
}

// Pipeline holds the collaborators of the question answering flow.
// Ranker, Graph and Generator are required; the rest are optional.
type Pipeline struct {
	Ranker    Ranker
	Graph     driver.GraphLookup
	Generator Generator
	Logger    *slog.Logger
	Cache     Cache

	// Cypher and Runner enable AskCypher.
	Cypher QueryGenerator
	Runner driver.QueryRunner
}

func (p *Pipeline) logger() *slog.Logger {
	if p.Logger == nil {
		return slog.New(slog.DiscardHandler)
	}
	return p.Logger
}

// Ask answers question by hybrid entity resolution and graph lookup.
func (p *Pipeline) Ask(ctx context.Context, question string) (*Result, error) {
	question = strings.TrimSpace(question)
	if question == "" {
		return nil, types.ErrEmptyQuestion
	}
	start := time.Now()
	log := p.logger().With("question", question)

	key := cache.Key("hybrid", question)
	if res, ok := p.cached(ctx, key); ok {
		log.DebugContext(ctx, "answer served from cache")
		return res, nil
	}

	res := &Result{Question: question}

	names, err := p.Ranker.Search(ctx, question, 1)
	if err != nil {
		return nil, fmt.Errorf("resolve entity: %w", err)
	}
	if len(names) == 0 {
		log.InfoContext(ctx, "no entity matched")
		res.Status = StatusNoEntity
		res.Answer = answer.InsufficientInformation
		res.Duration = time.Since(start)
		return res, nil
	}
	res.Entity = names[0]
	log = log.With("entity", res.Entity)

	records, err := p.Graph.FetchContext(ctx, res.Entity)
	if err != nil {
		return nil, fmt.Errorf("fetch context for %q: %w", res.Entity, err)
	}
	if len(records) == 0 {
		log.InfoContext(ctx, "entity has no graph context")
		res.Status = StatusNoContext
		res.Answer = answer.InsufficientInformation
		res.Duration = time.Since(start)
		return res, nil
	}
	res.Context = records

	ans, err := p.Generator.Generate(ctx, question, res.Entity, records)
	if err != nil {
		return nil, err
	}
	res.Status = StatusAnswered
	res.Answer = ans.Text
	res.Grounded = ans.Grounded
	res.Model = ans.Model
	res.Duration = time.Since(start)

	log.InfoContext(ctx, "question answered", "records", len(records), "duration", res.Duration)
	p.store(ctx, key, res)
	return res, nil
}

// AskCypher answers question by generating and running a read-only Cypher query.
func (p *Pipeline) AskCypher(ctx context.Context, question string) (*Result, error) {
	question = strings.TrimSpace(question)
	if question == "" {
		return nil, types.ErrEmptyQuestion
	}
	if p.Cypher == nil || p.Runner == nil {
		return nil, ErrCypherDisabled
	}
	start := time.Now()
	log := p.logger().With("question", question)

	key := cache.Key("cypher", question)
	if res, ok := p.cached(ctx, key); ok {
		return res, nil
	}

	query, err := p.Cypher.Generate(ctx, question)
	if err != nil {
		return nil, err
	}
	if err := cypher.Validate(query); err != nil {
		log.WarnContext(ctx, "rejected generated query", "query", query, "error", err)
		return nil, err
	}

	rows, err := p.Runner.RunQuery(ctx, query, nil)
	if err != nil {
		return nil, fmt.Errorf("run generated query: %w", err)
	}

	res := &Result{Question: question, Query: query, Rows: rows}
	if len(rows) == 0 {
		res.Status = StatusNoContext
		res.Answer = answer.InsufficientInformation
		res.Duration = time.Since(start)
		return res, nil
	}

	ans, err := p.Generator.GenerateFromRows(ctx, question, rows)
	if err != nil {
		return nil, err
	}
	res.Status = StatusAnswered
	res.Answer = ans.Text
	res.Grounded = ans.Grounded
	res.Model = ans.Model
	res.Duration = time.Since(start)

	log.InfoContext(ctx, "question answered via cypher", "rows", len(rows), "duration", res.Duration)
	p.store(ctx, key, res)
	return res, nil
}

// cached returns a stored result. Cache failures are logged and treated as misses.
func (p *Pipeline) cached(ctx context.Context, key string) (*Result, bool) {
	if p.Cache == nil {
		return nil, false
	}
	var res Result
	hit, err := p.Cache.Get(ctx, key, &res)
	if err != nil {
		p.logger().WarnContext(ctx, "answer cache read failed", "error", err)
		return nil, false
	}
	if !hit {
		return nil, false
	}
	res.Cached = true
	return &res, true
}

func (p *Pipeline) store(ctx context.Context, key string, res *Result) {
	if p.Cache == nil {
		return
	}
	if err := p.Cache.Set(ctx, key, res); err != nil {
		p.logger().WarnContext(ctx, "answer cache write failed", "error", err)
	}
}
