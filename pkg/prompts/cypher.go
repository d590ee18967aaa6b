package prompts

import (
	_ "embed"
	"fmt"
	"strings"
	"sync"

	"gopkg.in/yaml.v3"

	"github.com/soundprediction/duocdien/pkg/nlp"
	"github.com/soundprediction/duocdien/pkg/types"
)

//go:embed cypher_examples.yaml
var cypherExamplesYAML []byte

// CypherExample is one question/query demonstration.
type CypherExample struct {
	Question string `yaml:"question"`
	Query    string `yaml:"query"`
}

// FewShot is the prefix and demonstrations for one graph schema.
type FewShot struct {
	Prefix   string          `yaml:"prefix"`
	Examples []CypherExample `yaml:"examples"`
}

// Render formats the prompt the way the model was tuned on:
// prefix, then "User input / Cypher query" pairs, then the open question.
func (f FewShot) Render(question string) string {
	var b strings.Builder
	b.WriteString(strings.TrimSpace(f.Prefix))
	b.WriteString("\n\n")
	for _, ex := range f.Examples {
		fmt.Fprintf(&b, "User input: %s\nCypher query: %s\n\n", ex.Question, ex.Query)
	}
	fmt.Fprintf(&b, "User input: %s\nCypher query: ", question)
	return b.String()
}

var (
	fewShotOnce sync.Once
	fewShots    map[string]FewShot
	fewShotErr  error
)

// LoadFewShot returns the embedded few-shot set for schema ("pharmacopoeia" or "disease").
func LoadFewShot(schema string) (FewShot, error) {
	fewShotOnce.Do(func() {
		fewShotErr = yaml.Unmarshal(cypherExamplesYAML, &fewShots)
	})
	if fewShotErr != nil {
		return FewShot{}, fmt.Errorf("failed to parse cypher examples: %w", fewShotErr)
	}
	fs, ok := fewShots[schema]
	if !ok {
		return FewShot{}, fmt.Errorf("no cypher examples for schema %q", schema)
	}
	return fs, nil
}

func cypherPrompt(context map[string]interface{}) ([]types.Message, error) {
	question, err := requireString(context, "question")
	if err != nil {
		return nil, err
	}
	fs, err := LoadFewShot(optionalString(context, "schema", "pharmacopoeia"))
	if err != nil {
		return nil, err
	}

	userPrompt := fs.Render(question)
	logPrompts(context, "", userPrompt)
	return []types.Message{nlp.NewUserMessage(userPrompt)}, nil
}
