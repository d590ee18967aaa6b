package embedder

import (
	"fmt"
	"os"
)

// Provider names accepted by New.
const (
	ProviderHugot           = "hugot"
	ProviderEmbedEverything = "embedeverything"
	ProviderOpenAI          = "openai"
)

// New builds the client named by cfg.Provider. The OpenAI key is read from OPENAI_API_KEY.
func New(cfg Config) (Client, error) {
	switch cfg.Provider {
	case "", ProviderHugot:
		c, err := NewHugotEmbedder(cfg)
		if err != nil {
			return nil, err
		}
		return c, nil
	case ProviderEmbedEverything:
		c, err := NewEmbedEverythingClient(cfg)
		if err != nil {
			return nil, err
		}
		return c, nil
	case ProviderOpenAI:
		return NewOpenAIEmbedder(os.Getenv("OPENAI_API_KEY"), cfg), nil
	default:
		return nil, fmt.Errorf("unknown embedding provider %q", cfg.Provider)
	}
}
