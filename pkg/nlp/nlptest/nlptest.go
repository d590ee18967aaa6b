// Package nlptest provides a scripted in-memory language model for tests.
package nlptest

import (
	"context"
	"sync"

	"github.com/soundprediction/duocdien/pkg/nlp"
	"github.com/soundprediction/duocdien/pkg/types"
)

// Client replies through Respond when set, otherwise with Reply. Err, when
// set, is returned by every call. Every request is recorded in Requests.
type Client struct {
	mu       sync.Mutex
	Reply    string
	Model    string
	Err      error
	Respond  func(messages []types.Message) (string, error)
	Requests [][]types.Message
}

// New returns a Client that always answers reply.
func New(reply string) *Client {
	return &Client{Reply: reply, Model: "nlptest"}
}

// Chat implements nlp.Client.
func (c *Client) Chat(_ context.Context, messages []types.Message) (*types.Response, error) {
	c.mu.Lock()
	c.Requests = append(c.Requests, messages)
	respond, reply, err := c.Respond, c.Reply, c.Err
	c.mu.Unlock()

	if err != nil {
		return nil, err
	}
	if respond != nil {
		var rerr error
		reply, rerr = respond(messages)
		if rerr != nil {
			return nil, rerr
		}
	}
	return &types.Response{
		Content:    reply,
		Model:      c.Model,
		TokensUsed: &types.TokenUsage{PromptTokens: 1, CompletionTokens: 1, TotalTokens: 2},
	}, nil
}

// ChatWithStructuredOutput implements nlp.Client.
func (c *Client) ChatWithStructuredOutput(ctx context.Context, messages []types.Message, _ any) (*types.Response, error) {
	return c.Chat(ctx, messages)
}

// Calls returns how many requests were made.
func (c *Client) Calls() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.Requests)
}

// LastPrompt returns the content of the final message of the latest request.
func (c *Client) LastPrompt() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	if len(c.Requests) == 0 {
		return ""
	}
	msgs := c.Requests[len(c.Requests)-1]
	return msgs[len(msgs)-1].Content
}

// GetCapabilities implements nlp.Client.
func (c *Client) GetCapabilities() []nlp.TaskCapability {
	return []nlp.TaskCapability{nlp.TaskTextGeneration, nlp.TaskQuestionAnswering}
}

// Close implements nlp.Client.
func (c *Client) Close() error { return nil }
