package cypher

import (
	"context"
	"fmt"
	"log/slog"
	"regexp"
	"strings"

	"github.com/soundprediction/duocdien/pkg/nlp"
	"github.com/soundprediction/duocdien/pkg/prompts"
)

var (
	fencePattern = regexp.MustCompile("(?s)```[A-Za-z]*\\s*\\n?(.*?)```")
	labelPattern = regexp.MustCompile(`(?i)^\s*cypher query:\s*`)
)

// Generator asks a language model for a Cypher query over one graph schema.
type Generator struct {
	client  nlp.Client
	schema  string
	prompts *prompts.Library
	logger  *slog.Logger
}

// NewGenerator creates a Generator for schema ("pharmacopoeia" or "disease").
// A nil logger discards.
func NewGenerator(client nlp.Client, schema string, logger *slog.Logger) *Generator {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	if schema == "" {
		schema = "pharmacopoeia"
	}
	return &Generator{
		client:  client,
		schema:  schema,
		prompts: prompts.NewLibrary(),
		logger:  logger,
	}
}

// Generate returns the query the model proposes for question. The query is not validated.
func (g *Generator) Generate(ctx context.Context, question string) (string, error) {
	msgs, err := g.prompts.Cypher().Call(map[string]interface{}{
		"question": question,
		"schema":   g.schema,
		"logger":   g.logger,
	})
	if err != nil {
		return "", fmt.Errorf("cypher: render prompt: %w", err)
	}

	resp, err := g.client.Chat(ctx, msgs)
	if err != nil {
		return "", fmt.Errorf("cypher: generate: %w", err)
	}

	query := CleanQuery(resp.Content)
	if query == "" {
		return "", ErrEmptyQuery
	}
	g.logger.DebugContext(ctx, "generated cypher", "question", question, "query", query)
	return query, nil
}

// CleanQuery extracts the query from a model reply: the first fenced block
// if there is one, without a leading "Cypher query:" label.
func CleanQuery(reply string) string {
	s := strings.TrimSpace(reply)
	if m := fencePattern.FindStringSubmatch(s); m != nil {
		s = m[1]
	} else {
		s = strings.ReplaceAll(s, "```", "")
	}
	s = labelPattern.ReplaceAllString(strings.TrimSpace(s), "")
	return strings.TrimSpace(s)
}
