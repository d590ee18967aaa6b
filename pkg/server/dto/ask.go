package dto

import (
	"strings"
)

// Answer modes
const (
	ModeHybrid = "hybrid"
	ModeCypher = "cypher"
)

// AskRequest is the body of POST /api/v1/ask.
type AskRequest struct {
	Question string `json:"question" binding:"required"`
	// Mode selects the retrieval path; empty means hybrid.
	Mode string `json:"mode,omitempty"`
}

// Validate performs validation on AskRequest
func (r *AskRequest) Validate() error {
	if err := validateQuestion(r.Question); err != nil {
		return err
	}
	switch strings.ToLower(strings.TrimSpace(r.Mode)) {
	case "", ModeHybrid, ModeCypher:
		return nil
	}
	return ErrInvalidMode
}

// NormalizedMode returns the mode, defaulting to hybrid.
func (r *AskRequest) NormalizedMode() string {
	if m := strings.ToLower(strings.TrimSpace(r.Mode)); m != "" {
		return m
	}
	return ModeHybrid
}

// CypherRequest is the body of POST /api/v1/cypher.
type CypherRequest struct {
	Question string `json:"question" binding:"required"`
}

// Validate performs validation on CypherRequest
func (r *CypherRequest) Validate() error {
	return validateQuestion(r.Question)
}

// ContextRecord is one graph node near the resolved entity.
type ContextRecord struct {
	Label      string            `json:"label"`
	Relation   string            `json:"relation,omitempty"`
	Properties map[string]string `json:"properties"`
}

// AskResponse is the answer to a question.
type AskResponse struct {
	Question   string           `json:"question"`
	Mode       string           `json:"mode"`
	Status     string           `json:"status"`
	Answer     string           `json:"answer"`
	Grounded   bool             `json:"grounded"`
	Entity     string           `json:"entity,omitempty"`
	Context    []ContextRecord  `json:"context,omitempty"`
	Query      string           `json:"query,omitempty"`
	Rows       []map[string]any `json:"rows,omitempty"`
	Model      string           `json:"model,omitempty"`
	Cached     bool             `json:"cached"`
	DurationMS int64            `json:"duration_ms"`
	RequestID  string           `json:"request_id,omitempty"`
}
