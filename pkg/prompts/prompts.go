package prompts

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/soundprediction/duocdien/pkg/types"
)

// PromptFunction is a function that generates prompt messages from context.
type PromptFunction func(context map[string]interface{}) ([]types.Message, error)

// PromptVersion represents a versioned prompt function.
type PromptVersion interface {
	Call(context map[string]interface{}) ([]types.Message, error)
}

// promptVersionImpl implements PromptVersion.
type promptVersionImpl struct {
	fn PromptFunction
}

// Call executes the prompt function with the given context.
func (p *promptVersionImpl) Call(context map[string]interface{}) ([]types.Message, error) {
	messages, err := p.fn(context)
	if err != nil {
		return nil, err
	}
	for _, m := range messages {
		if err := m.Validate(); err != nil {
			return nil, fmt.Errorf("prompt produced an invalid %s message: %w", m.Role, err)
		}
	}
	return messages, nil
}

// NewPromptVersion creates a new PromptVersion from a function.
func NewPromptVersion(fn PromptFunction) PromptVersion {
	return &promptVersionImpl{fn: fn}
}

// Library holds every prompt the application sends to a language model.
type Library struct {
	answer          PromptVersion
	rowsAnswer      PromptVersion
	zeroShot        PromptVersion
	cypher          PromptVersion
	drugToAttribute PromptVersion
	attributeToDrug PromptVersion
	twoHop          PromptVersion
}

// NewLibrary returns the default prompt set.
func NewLibrary() *Library {
	return &Library{
		answer:          NewPromptVersion(answerPrompt),
		rowsAnswer:      NewPromptVersion(rowsAnswerPrompt),
		zeroShot:        NewPromptVersion(zeroShotPrompt),
		cypher:          NewPromptVersion(cypherPrompt),
		drugToAttribute: NewPromptVersion(drugToAttributePrompt),
		attributeToDrug: NewPromptVersion(attributeToDrugPrompt),
		twoHop:          NewPromptVersion(twoHopPrompt),
	}
}

// Answer renders a graph-grounded answer request. Keys: question, entity, context.
func (l *Library) Answer() PromptVersion { return l.answer }

// RowsAnswer renders an answer request over Cypher result rows. Keys: question, rows.
func (l *Library) RowsAnswer() PromptVersion { return l.rowsAnswer }

// ZeroShot asks the model directly, without retrieved context. Keys: question.
func (l *Library) ZeroShot() PromptVersion { return l.zeroShot }

// Cypher renders the few-shot text-to-Cypher request. Keys: question, schema.
func (l *Library) Cypher() PromptVersion { return l.cypher }

// DrugToAttribute rephrases a drug→attribute template question. Keys: question, header.
func (l *Library) DrugToAttribute() PromptVersion { return l.drugToAttribute }

// AttributeToDrug rephrases an attribute→drug template question. Keys: question.
func (l *Library) AttributeToDrug() PromptVersion { return l.attributeToDrug }

// TwoHop rephrases a two-hop template question. Keys: question.
func (l *Library) TwoHop() PromptVersion { return l.twoHop }

// requireString reads a non-empty string from the prompt context.
func requireString(context map[string]interface{}, key string) (string, error) {
	v, ok := context[key]
	if !ok {
		return "", fmt.Errorf("prompt context is missing %q", key)
	}
	s, ok := v.(string)
	if !ok {
		return "", fmt.Errorf("prompt context %q has type %T, want string", key, v)
	}
	if s == "" {
		return "", fmt.Errorf("prompt context %q is empty", key)
	}
	return s, nil
}

// optionalString reads a string from the prompt context, or def.
func optionalString(context map[string]interface{}, key, def string) string {
	if s, ok := context[key].(string); ok && s != "" {
		return s
	}
	return def
}

// logPrompts logs the rendered prompts at debug level when DEBUG_LLM_PROMPTS=true.
func logPrompts(context map[string]interface{}, sysPrompt, userPrompt string) {
	if os.Getenv("DEBUG_LLM_PROMPTS") != "true" {
		return
	}
	logger, ok := context["logger"].(*slog.Logger)
	if !ok || logger == nil {
		return
	}
	logger.Debug("rendered prompt", "system", sysPrompt, "user", userPrompt)
}
