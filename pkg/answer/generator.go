package answer

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/soundprediction/duocdien/pkg/driver"
	"github.com/soundprediction/duocdien/pkg/nlp"
	"github.com/soundprediction/duocdien/pkg/prompts"
	"github.com/soundprediction/duocdien/pkg/types"
)

// InsufficientInformation is returned, without calling the model, when there is no context.
const InsufficientInformation = prompts.InsufficientInformation

// Answer is a generated reply.
type Answer struct {
	Text string `json:"text"`
	// Grounded is false when Text is the fixed insufficient-information reply.
	Grounded   bool              `json:"grounded"`
	Entity     string            `json:"entity,omitempty"`
	Model      string            `json:"model,omitempty"`
	TokensUsed *types.TokenUsage `json:"tokens_used,omitempty"`
}

// Generator renders prompts and calls the language model.
type Generator struct {
	client  nlp.Client
	prompts *prompts.Library
	logger  *slog.Logger
}

// Option configures a Generator.
type Option func(*Generator)

// WithLogger sets the logger; nil discards.
func WithLogger(l *slog.Logger) Option {
	return func(g *Generator) {
		if l != nil {
			g.logger = l
		}
	}
}

// WithPrompts replaces the default prompt library.
func WithPrompts(p *prompts.Library) Option {
	return func(g *Generator) {
		if p != nil {
			g.prompts = p
		}
	}
}

// NewGenerator creates a Generator over client.
func NewGenerator(client nlp.Client, opts ...Option) *Generator {
	g := &Generator{
		client:  client,
		prompts: prompts.NewLibrary(),
		logger:  slog.New(slog.DiscardHandler),
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Generate answers question from the graph neighbourhood of entity.
func (g *Generator) Generate(ctx context.Context, question, entity string, records []driver.ContextRecord) (Answer, error) {
	if len(records) == 0 {
		return Answer{Text: InsufficientInformation, Entity: entity}, nil
	}

	msgs, err := g.prompts.Answer().Call(map[string]interface{}{
		"question": question,
		"entity":   entity,
		"context":  records,
		"logger":   g.logger,
	})
	if err != nil {
		return Answer{}, fmt.Errorf("answer: render prompt: %w", err)
	}

	ans, err := g.complete(ctx, "generate", msgs)
	if err != nil {
		return Answer{}, err
	}
	ans.Entity = entity
	return ans, nil
}

// GenerateFromRows answers question from text-to-Cypher result rows.
func (g *Generator) GenerateFromRows(ctx context.Context, question string, rows []map[string]any) (Answer, error) {
	if len(rows) == 0 {
		return Answer{Text: InsufficientInformation}, nil
	}

	msgs, err := g.prompts.RowsAnswer().Call(map[string]interface{}{
		"question": question,
		"rows":     rows,
		"logger":   g.logger,
	})
	if err != nil {
		return Answer{}, fmt.Errorf("answer: render prompt: %w", err)
	}
	return g.complete(ctx, "generate_from_rows", msgs)
}

// GenerateZeroShot asks the model without any retrieved context.
func (g *Generator) GenerateZeroShot(ctx context.Context, question string) (Answer, error) {
	if strings.TrimSpace(question) == "" {
		return Answer{}, types.ErrEmptyQuestion
	}
	msgs, err := g.prompts.ZeroShot().Call(map[string]interface{}{
		"question": question,
		"logger":   g.logger,
	})
	if err != nil {
		return Answer{}, fmt.Errorf("answer: render prompt: %w", err)
	}
	ans, err := g.complete(ctx, "zero_shot", msgs)
	// Zero-shot answers are never backed by retrieved data.
	ans.Grounded = false
	return ans, err
}

func (g *Generator) complete(ctx context.Context, op string, msgs []types.Message) (Answer, error) {
	resp, err := g.client.Chat(ctx, msgs)
	if err != nil {
		g.logger.WarnContext(ctx, "answer generation failed", "op", op, "kind", nlp.Kind(err), "error", err)
		return Answer{}, newGenerationError(op, err)
	}

	text := strings.TrimSpace(resp.Content)
	if text == "" {
		return Answer{}, newGenerationError(op, nlp.NewEmptyResponseError("the LLM returned an empty answer"))
	}

	return Answer{
		Text:       text,
		Grounded:   true,
		Model:      resp.Model,
		TokensUsed: resp.TokensUsed,
	}, nil
}
