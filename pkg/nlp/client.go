package nlp

import (
	"context"

	"github.com/soundprediction/duocdien/pkg/types"
)

// TaskCapability represents a specific NLP task that a model can perform.
type TaskCapability string

const (
	// TaskEmbedding represents text embedding generation.
	TaskEmbedding TaskCapability = "embedding"
	// TaskTextGeneration represents open-ended text generation (chat/completion).
	TaskTextGeneration TaskCapability = "text_generation"
	// TaskQuestionAnswering represents grounded question answering.
	TaskQuestionAnswering TaskCapability = "question_answering"
)

// Client defines the interface for language model operations.
type Client interface {
	// Chat sends a chat completion request and returns the response.
	Chat(ctx context.Context, messages []types.Message) (*types.Response, error)

	// ChatWithStructuredOutput sends a chat completion request asking for JSON output.
	ChatWithStructuredOutput(ctx context.Context, messages []types.Message, schema any) (*types.Response, error)

	// GetCapabilities returns the list of capabilities supported by this client.
	GetCapabilities() []TaskCapability

	// Close cleans up any resources.
	Close() error
}

const (
	// RoleSystem represents a system message.
	RoleSystem types.Role = "system"
	// RoleUser represents a user message.
	RoleUser types.Role = "user"
	// RoleAssistant represents an assistant message.
	RoleAssistant types.Role = "assistant"
)

// NewMessage creates a new message with the specified role and content.
func NewMessage(role types.Role, content string) types.Message {
	return types.Message{
		Role:    role,
		Content: content,
	}
}

// NewSystemMessage creates a new system message.
func NewSystemMessage(content string) types.Message {
	return NewMessage(RoleSystem, content)
}

// NewUserMessage creates a new user message.
func NewUserMessage(content string) types.Message {
	return NewMessage(RoleUser, content)
}

// NewAssistantMessage creates a new assistant message.
func NewAssistantMessage(content string) types.Message {
	return NewMessage(RoleAssistant, content)
}

// Prompt is a convenience for the common single-turn call: one user message in,
// trimmed text out. Empty replies are reported as *EmptyResponseError.
func Prompt(ctx context.Context, client Client, prompt string) (string, error) {
	resp, err := client.Chat(ctx, []types.Message{NewUserMessage(prompt)})
	if err != nil {
		return "", err
	}
	if resp == nil || trimmed(resp.Content) == "" {
		return "", NewEmptyResponseError("the LLM returned an empty response")
	}
	return trimmed(resp.Content), nil
}
