package nlp

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/kaptinlin/jsonrepair"
)

// ExtractJSON pulls the JSON payload out of a model reply. Markdown fences are
// stripped first, then the outermost object or array is located.
func ExtractJSON(response string) string {
	s := strings.TrimSpace(response)

	if start := strings.Index(s, "```json"); start != -1 {
		rest := s[start+len("```json"):]
		if end := strings.Index(rest, "```"); end != -1 {
			return strings.TrimSpace(rest[:end])
		}
		return strings.TrimSpace(rest)
	}
	if start := strings.Index(s, "```"); start != -1 {
		rest := s[start+3:]
		if end := strings.Index(rest, "```"); end != -1 {
			return strings.TrimSpace(rest[:end])
		}
	}

	objStart, objEnd := strings.Index(s, "{"), strings.LastIndex(s, "}")
	arrStart, arrEnd := strings.Index(s, "["), strings.LastIndex(s, "]")

	if objStart != -1 && objEnd > objStart && (arrStart == -1 || objStart < arrStart) {
		return s[objStart : objEnd+1]
	}
	if arrStart != -1 && arrEnd > arrStart {
		return s[arrStart : arrEnd+1]
	}
	return s
}

// DecodeJSON extracts, repairs if necessary, and unmarshals a model reply into v.
func DecodeJSON(response string, v any) error {
	payload := ExtractJSON(response)
	if payload == "" {
		return fmt.Errorf("%w: empty payload", ErrMalformedJSON)
	}

	if err := json.Unmarshal([]byte(payload), v); err == nil {
		return nil
	}

	repaired, err := jsonrepair.JSONRepair(payload)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrMalformedJSON, err)
	}
	if err := json.Unmarshal([]byte(repaired), v); err != nil {
		return fmt.Errorf("%w: %v", ErrMalformedJSON, err)
	}
	return nil
}

// StripCodeFence removes a surrounding markdown fence such as ```cypher ... ```.
func StripCodeFence(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```")
	if nl := strings.IndexByte(s, '\n'); nl != -1 {
		s = s[nl+1:]
	} else {
		s = strings.TrimLeft(s, "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ")
	}
	s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	return strings.TrimSpace(s)
}

func trimmed(s string) string {
	return strings.TrimSpace(s)
}
