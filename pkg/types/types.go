package types

import (
	"context"
	"errors"
)

// Validation errors
var (
	ErrEmptyQuestion = errors.New("question cannot be empty")
	ErrEmptyContent  = errors.New("content cannot be empty")
	ErrInvalidLimit  = errors.New("limit must be positive")

	// ErrUpstreamUnavailable marks a failure of an external collaborator
	// (embedding model, graph store). Packages re-export it under their own name.
	ErrUpstreamUnavailable = errors.New("upstream unavailable")
)

// Role identifies the author of a chat message.
type Role string

// Message is a single chat turn sent to a language model.
type Message struct {
	Role    Role   `json:"role"`
	Content string `json:"content"`
}

// Validate checks that the message carries content.
func (m Message) Validate() error {
	if m.Content == "" {
		return ErrEmptyContent
	}
	return nil
}

// TokenUsage reports token accounting returned by a provider.
type TokenUsage struct {
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
	TotalTokens      int `json:"total_tokens"`
}

// Response is the normalized reply of a language model.
type Response struct {
	Content      string      `json:"content"`
	FinishReason string      `json:"finish_reason,omitempty"`
	Model        string      `json:"model,omitempty"`
	TokensUsed   *TokenUsage `json:"tokens_used,omitempty"`
}

// ContextKey is the type for request-scoped values carried on a context.Context.
type ContextKey string

const (
	// ContextKeyRequestID identifies a single HTTP request or CLI invocation.
	ContextKeyRequestID ContextKey = "request_id"
	// ContextKeySessionID groups requests from the same client session.
	ContextKeySessionID ContextKey = "session_id"
	// ContextKeyRequestSource names the surface that issued the call (server, cli, eval).
	ContextKeyRequestSource ContextKey = "request_source"
	// ContextKeyEvalRun tags calls made by a benchmark run.
	ContextKeyEvalRun ContextKey = "eval_run"
)

// StringFromContext returns the string stored under key, or "".
func StringFromContext(ctx context.Context, key ContextKey) string {
	if v, ok := ctx.Value(key).(string); ok {
		return v
	}
	return ""
}
