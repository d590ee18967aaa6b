package prompts

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
	"unicode"
	"unicode/utf16"

	"gopkg.in/yaml.v3"
)

// ToPromptJSON serializes data to JSON for use in prompts.
// When ensureASCII is false, Vietnamese text is kept as written; HTML characters are never escaped.
func ToPromptJSON(data interface{}, ensureASCII bool, indent int) (string, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if indent > 0 {
		enc.SetIndent("", strings.Repeat(" ", indent))
	}
	if err := enc.Encode(data); err != nil {
		return "", err
	}

	out := strings.TrimSuffix(buf.String(), "\n")
	if ensureASCII {
		return escapeNonASCII(out), nil
	}
	return out, nil
}

// ToPromptYAML serializes data to YAML for use in prompts.
func ToPromptYAML(data interface{}) (string, error) {
	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(data); err != nil {
		return "", err
	}
	if err := enc.Close(); err != nil {
		return "", err
	}
	return buf.String(), nil
}

// escapeNonASCII escapes non-ASCII characters the way JSON encoders with ensure_ascii do.
func escapeNonASCII(s string) string {
	var buf strings.Builder
	for _, r := range s {
		switch {
		case r <= unicode.MaxASCII:
			buf.WriteRune(r)
		case r > 0xFFFF:
			r1, r2 := utf16.EncodeRune(r)
			fmt.Fprintf(&buf, "\\u%04x\\u%04x", r1, r2)
		default:
			fmt.Fprintf(&buf, "\\u%04x", r)
		}
	}
	return buf.String()
}
