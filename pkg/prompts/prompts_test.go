package prompts

import (
	"strings"
	"testing"

	"github.com/soundprediction/duocdien/pkg/nlp"
)

func TestLibrary_RequiredKeys(t *testing.T) {
	lib := NewLibrary()
	tests := []struct {
		name    string
		prompt  PromptVersion
		context map[string]interface{}
		wantErr bool
	}{
		{"answer ok", lib.Answer(), map[string]interface{}{"question": "q", "entity": "ASPIRIN", "context": []string{"x"}}, false},
		{"answer without entity", lib.Answer(), map[string]interface{}{"question": "q"}, true},
		{"rows ok with empty rows", lib.RowsAnswer(), map[string]interface{}{"question": "q", "rows": []map[string]any{}}, false},
		{"zero shot ok", lib.ZeroShot(), map[string]interface{}{"question": "q"}, false},
		{"zero shot wrong type", lib.ZeroShot(), map[string]interface{}{"question": 3}, true},
		{"cypher unknown schema", lib.Cypher(), map[string]interface{}{"question": "q", "schema": "chemistry"}, true},
		{"two hop empty question", lib.TwoHop(), map[string]interface{}{"question": ""}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := tt.prompt.Call(tt.context)
			if (err != nil) != tt.wantErr {
				t.Errorf("Call() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestAnswerPrompt_KeepsVietnamese(t *testing.T) {
	msgs, err := NewLibrary().Answer().Call(map[string]interface{}{
		"question": "Ho gà có triệu chứng gì?",
		"entity":   "Ho gà",
		"context":  []map[string]string{{"triệu_chứng": "ho kéo dài <2 tuần> & sốt"}},
	})
	if err != nil {
		t.Fatalf("Call() error = %v", err)
	}
	if len(msgs) != 2 || msgs[0].Role != nlp.RoleSystem {
		t.Fatalf("want system+user messages, got %+v", msgs)
	}
	user := msgs[1].Content
	for _, want := range []string{`"Ho gà"`, "triệu_chứng", "<2 tuần> & sốt"} {
		if !strings.Contains(user, want) {
			t.Errorf("user prompt missing %q:\n%s", want, user)
		}
	}
	if strings.Contains(user, `\u`) {
		t.Errorf("user prompt escapes unicode:\n%s", user)
	}
}

func TestCypherPrompt_FewShotLayout(t *testing.T) {
	msgs, err := NewLibrary().Cypher().Call(map[string]interface{}{"question": "Tên Latin của Paracetamol là gì?"})
	if err != nil {
		t.Fatalf("Call() error = %v", err)
	}
	content := msgs[0].Content
	if got := strings.Count(content, "User input: "); got != 6 {
		t.Errorf("want 5 examples plus the open question, got %d inputs", got)
	}
	if !strings.HasSuffix(content, "User input: Tên Latin của Paracetamol là gì?\nCypher query: ") {
		t.Errorf("prompt does not end with the open question:\n%s", content[len(content)-120:])
	}
	if !strings.Contains(content, "KEYWORD SHREDDING") {
		t.Error("prefix missing from prompt")
	}
}

func TestLoadFewShot(t *testing.T) {
	for _, schema := range []string{"pharmacopoeia", "disease"} {
		fs, err := LoadFewShot(schema)
		if err != nil {
			t.Fatalf("LoadFewShot(%q) error = %v", schema, err)
		}
		if fs.Prefix == "" || len(fs.Examples) == 0 {
			t.Errorf("LoadFewShot(%q) = %+v, want prefix and examples", schema, fs)
		}
		for _, ex := range fs.Examples {
			if !strings.HasPrefix(ex.Query, "MATCH") {
				t.Errorf("example query %q is not a MATCH", ex.Query)
			}
		}
	}
}

func TestToPromptJSON(t *testing.T) {
	data := map[string]string{"tên": "Acid & <base>"}
	tests := []struct {
		name        string
		ensureASCII bool
		want        string
	}{
		{"raw", false, `{"tên":"Acid & <base>"}`},
		{"ascii", true, `{"t\u00ean":"Acid & <base>"}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ToPromptJSON(data, tt.ensureASCII, 0)
			if err != nil {
				t.Fatalf("ToPromptJSON() error = %v", err)
			}
			if got != tt.want {
				t.Errorf("ToPromptJSON() = %s, want %s", got, tt.want)
			}
		})
	}
}

func TestToPromptYAML(t *testing.T) {
	got, err := ToPromptYAML(map[string]any{"tên_hoạt_chất": "ASPIRIN"})
	if err != nil {
		t.Fatalf("ToPromptYAML() error = %v", err)
	}
	if got != "tên_hoạt_chất: ASPIRIN\n" {
		t.Errorf("ToPromptYAML() = %q", got)
	}
}
