package nlp

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/soundprediction/duocdien/pkg/types"
)

const defaultGeminiBaseURL = "https://generativelanguage.googleapis.com"

// GeminiClient implements the Client interface for Google Gemini models over the REST API.
type GeminiClient struct {
	config     *LLMConfig
	httpClient *http.Client
}

// NewGeminiClient creates a new Gemini client.
func NewGeminiClient(config *LLMConfig) (*GeminiClient, error) {
	if config == nil {
		return nil, fmt.Errorf("gemini: nil config")
	}
	if config.BaseURL == "" {
		config.BaseURL = defaultGeminiBaseURL
	} else if err := validateBaseURL(config.BaseURL); err != nil {
		return nil, fmt.Errorf("invalid base URL: %w", err)
	}
	if config.Model == "" {
		config.Model = DefaultGeminiModel
	}

	return &GeminiClient{
		config: config,
		httpClient: &http.Client{
			Timeout: 60 * time.Second,
		},
	}, nil
}

type geminiRequest struct {
	Contents         []geminiContent         `json:"contents"`
	GenerationConfig *geminiGenerationConfig `json:"generationConfig,omitempty"`
}

type geminiContent struct {
	Role  string       `json:"role"`
	Parts []geminiPart `json:"parts"`
}

type geminiPart struct {
	Text string `json:"text"`
}

type geminiGenerationConfig struct {
	Temperature      float64 `json:"temperature,omitempty"`
	MaxTokens        int     `json:"maxOutputTokens,omitempty"`
	TopP             float64 `json:"topP,omitempty"`
	TopK             int     `json:"topK,omitempty"`
	ResponseMimeType string  `json:"responseMimeType,omitempty"`
}

type geminiResponse struct {
	Candidates     []geminiCandidate     `json:"candidates"`
	PromptFeedback *geminiPromptFeedback `json:"promptFeedback,omitempty"`
	UsageMetadata  *geminiUsage          `json:"usageMetadata,omitempty"`
	ModelVersion   string                `json:"modelVersion,omitempty"`
	Error          *geminiError          `json:"error,omitempty"`
}

type geminiCandidate struct {
	Content      geminiContent `json:"content"`
	FinishReason string        `json:"finishReason,omitempty"`
}

type geminiPromptFeedback struct {
	BlockReason string `json:"blockReason,omitempty"`
}

type geminiUsage struct {
	PromptTokenCount     int `json:"promptTokenCount"`
	CandidatesTokenCount int `json:"candidatesTokenCount"`
	TotalTokenCount      int `json:"totalTokenCount"`
}

type geminiError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
	Status  string `json:"status"`
}

// Chat implements the Client interface for Gemini.
func (g *GeminiClient) Chat(ctx context.Context, messages []types.Message) (*types.Response, error) {
	return g.generate(ctx, messages, false)
}

// ChatWithStructuredOutput asks Gemini for a JSON reply. The schema, when given,
// is appended to the conversation as an instruction.
func (g *GeminiClient) ChatWithStructuredOutput(ctx context.Context, messages []types.Message, schema any) (*types.Response, error) {
	if schema != nil {
		schemaBytes, err := json.Marshal(schema)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal schema: %w", err)
		}
		messages = append(append([]types.Message(nil), messages...), types.Message{
			Role:    RoleUser,
			Content: fmt.Sprintf("Please respond with valid JSON that matches this schema: %s", string(schemaBytes)),
		})
	}
	return g.generate(ctx, messages, true)
}

// GetCapabilities returns the list of capabilities supported by this client.
func (g *GeminiClient) GetCapabilities() []TaskCapability {
	return []TaskCapability{TaskTextGeneration, TaskQuestionAnswering}
}

// Close is a no-op.
func (g *GeminiClient) Close() error {
	return nil
}

func (g *GeminiClient) generate(ctx context.Context, messages []types.Message, jsonMode bool) (*types.Response, error) {
	if len(messages) == 0 {
		return nil, fmt.Errorf("no messages provided")
	}

	req := geminiRequest{
		Contents: toGeminiContents(messages),
		GenerationConfig: &geminiGenerationConfig{
			Temperature: float64(g.config.Temperature),
			MaxTokens:   g.config.MaxTokens,
			TopP:        float64(g.config.TopP),
			TopK:        g.config.TopK,
		},
	}
	if jsonMode {
		req.GenerationConfig.ResponseMimeType = "application/json"
	}

	reqBody, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	endpoint := fmt.Sprintf("%s/v1beta/models/%s:generateContent?key=%s",
		strings.TrimSuffix(g.config.BaseURL, "/"), g.config.Model, url.QueryEscape(g.config.APIKey))

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(reqBody))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := g.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	switch {
	case resp.StatusCode == http.StatusTooManyRequests:
		return nil, NewRateLimitError(fmt.Sprintf("gemini rate limit: %s", truncate(string(body), 200)))
	case resp.StatusCode != http.StatusOK:
		return nil, &StatusError{StatusCode: resp.StatusCode, Body: truncate(string(body), 500)}
	}

	var geminiResp geminiResponse
	if err := json.Unmarshal(body, &geminiResp); err != nil {
		return nil, fmt.Errorf("failed to unmarshal response: %w", err)
	}

	if geminiResp.Error != nil {
		return nil, fmt.Errorf("API error: %s", geminiResp.Error.Message)
	}
	if fb := geminiResp.PromptFeedback; fb != nil && fb.BlockReason != "" {
		return nil, NewRefusalError(fmt.Sprintf("gemini blocked the prompt: %s", fb.BlockReason))
	}
	if len(geminiResp.Candidates) == 0 {
		return nil, NewEmptyResponseError("gemini returned no candidates")
	}

	cand := geminiResp.Candidates[0]
	if cand.FinishReason == "SAFETY" {
		return nil, NewRefusalError("gemini stopped the answer for safety reasons")
	}

	var sb strings.Builder
	for _, p := range cand.Content.Parts {
		sb.WriteString(p.Text)
	}
	if strings.TrimSpace(sb.String()) == "" {
		return nil, NewEmptyResponseError("gemini returned an empty candidate")
	}

	out := &types.Response{
		Content:      sb.String(),
		FinishReason: cand.FinishReason,
		Model:        g.config.Model,
	}
	if geminiResp.ModelVersion != "" {
		out.Model = geminiResp.ModelVersion
	}
	if u := geminiResp.UsageMetadata; u != nil {
		out.TokensUsed = &types.TokenUsage{
			PromptTokens:     u.PromptTokenCount,
			CompletionTokens: u.CandidatesTokenCount,
			TotalTokens:      u.TotalTokenCount,
		}
	}
	return out, nil
}

// toGeminiContents converts chat messages. Gemini has no system role, so system
// text is folded into the nearest user turn.
func toGeminiContents(messages []types.Message) []geminiContent {
	contents := make([]geminiContent, 0, len(messages))
	var pendingSystem []string

	for _, msg := range messages {
		switch msg.Role {
		case RoleSystem:
			pendingSystem = append(pendingSystem, msg.Content)
			continue
		case RoleAssistant:
			contents = append(contents, geminiContent{Role: "model", Parts: []geminiPart{{Text: msg.Content}}})
			continue
		}

		text := msg.Content
		if len(pendingSystem) > 0 {
			text = strings.Join(pendingSystem, "\n\n") + "\n\n" + text
			pendingSystem = nil
		}
		contents = append(contents, geminiContent{Role: "user", Parts: []geminiPart{{Text: text}}})
	}

	if len(pendingSystem) > 0 {
		contents = append(contents, geminiContent{Role: "user", Parts: []geminiPart{{Text: strings.Join(pendingSystem, "\n\n")}}})
	}
	return contents
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
