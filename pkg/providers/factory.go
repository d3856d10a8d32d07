package providers

import (
	"context"
	"fmt"

	"charitybot/pkg/config"
)

// CreateProvider builds the configured backend. Both pipeline roles are served
// by the same client.
func CreateProvider(ctx context.Context, cfg *config.Config) (Provider, error) {
	pc := cfg.Provider
	if pc.TimeoutSec <= 0 {
		return nil, fmt.Errorf("invalid provider timeout: %d", pc.TimeoutSec)
	}

	switch pc.Name {
	case config.ProviderOpenAI:
		if pc.OpenAIAPIKey == "" {
			return nil, fmt.Errorf("no OpenAI API key configured")
		}
		return NewOpenAIProvider(pc.OpenAIAPIKey, pc.OpenAIBase, pc.ExtractModel, pc.LookupModel, cfg.ProviderTimeout()), nil
	case config.ProviderGemini:
		if pc.GeminiAPIKey == "" {
			return nil, fmt.Errorf("no Gemini API key configured")
		}
		p, err := NewGeminiProvider(ctx, pc.GeminiAPIKey, pc.GeminiBase, pc.ExtractModel, pc.LookupModel, cfg.ProviderTimeout())
		if err != nil {
			return nil, err
		}
		return p, nil
	default:
		return nil, fmt.Errorf("unknown provider: %s", pc.Name)
	}
}
