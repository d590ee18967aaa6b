package nlp

import (
	"fmt"
	"os"
)

// Provider names accepted by NewClient.
const (
	ProviderGemini = "gemini"
	ProviderOpenAI = "openai"
)

// Default configuration values
const (
	DefaultGeminiModel = "gemini-2.5-flash"
	DefaultOpenAIModel = "gpt-4o-mini"
	DefaultMaxTokens   = 8192
	DefaultTemperature = 0.2
)

// LLMConfig holds configuration for LLM clients.
type LLMConfig struct {
	// Provider selects the backend: "gemini" or "openai" (any OpenAI-compatible endpoint).
	Provider string `json:"provider,omitempty"`

	// APIKey is excluded from JSON so it never reaches logs or responses.
	APIKey string `json:"-"`

	Model   string `json:"model,omitempty"`
	BaseURL string `json:"base_url,omitempty"`

	// Temperature controls randomness in generation (0.0 to 2.0)
	Temperature float32 `json:"temperature,omitempty"`
	MaxTokens   int     `json:"max_tokens,omitempty"`
	TopP        float32 `json:"top_p,omitempty"`
	TopK        int     `json:"top_k,omitempty"`
}

// NewLLMConfig creates a new LLMConfig with default values
func NewLLMConfig() *LLMConfig {
	return &LLMConfig{
		Provider:    ProviderGemini,
		Temperature: DefaultTemperature,
		MaxTokens:   DefaultMaxTokens,
	}
}

// WithProvider sets the provider
func (c *LLMConfig) WithProvider(provider string) *LLMConfig {
	c.Provider = provider
	return c
}

// WithAPIKey sets the API key
func (c *LLMConfig) WithAPIKey(apiKey string) *LLMConfig {
	c.APIKey = apiKey
	return c
}

// WithModel sets the model
func (c *LLMConfig) WithModel(model string) *LLMConfig {
	c.Model = model
	return c
}

// WithBaseURL sets the base URL
func (c *LLMConfig) WithBaseURL(baseURL string) *LLMConfig {
	c.BaseURL = baseURL
	return c
}

// WithTemperature sets the temperature
func (c *LLMConfig) WithTemperature(temperature float32) *LLMConfig {
	c.Temperature = temperature
	return c
}

// WithMaxTokens sets the max tokens
func (c *LLMConfig) WithMaxTokens(maxTokens int) *LLMConfig {
	c.MaxTokens = maxTokens
	return c
}

// NewClient builds the provider client named by cfg.Provider. A missing API key
// falls back to GOOGLE_API_KEY or OPENAI_API_KEY.
func NewClient(cfg *LLMConfig) (Client, error) {
	if cfg == nil {
		cfg = NewLLMConfig()
	}
	switch cfg.Provider {
	case "", ProviderGemini:
		if cfg.APIKey == "" {
			cfg.APIKey = os.Getenv("GOOGLE_API_KEY")
		}
		if cfg.APIKey == "" {
			return nil, fmt.Errorf("gemini: %w: GOOGLE_API_KEY is not set", ErrInvalidModel)
		}
		client, err := NewGeminiClient(cfg)
		if err != nil {
			return nil, err
		}
		return client, nil
	case ProviderOpenAI:
		if cfg.APIKey == "" {
			cfg.APIKey = os.Getenv("OPENAI_API_KEY")
		}
		client, err := NewOpenAIClient(cfg)
		if err != nil {
			return nil, err
		}
		return client, nil
	default:
		return nil, fmt.Errorf("unknown llm provider %q", cfg.Provider)
	}
}
