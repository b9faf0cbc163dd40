package generation

import (
	"context"
	"fmt"

	"charmstudio/internal/config"
	"charmstudio/internal/logging"
)

// New builds the generator selected by cfg. "auto" resolves to Gemini when
// an API key is configured and to the offline generator otherwise.
func New(ctx context.Context, cfg config.LLMConfig) (Generator, error) {
	provider := cfg.ResolvedProvider()
	switch provider {
	case config.ProviderGemini:
		g, err := NewGeminiGenerator(ctx, cfg)
		if err != nil {
			return nil, err
		}
		logging.API("using generator %s", g.Name())
		return g, nil
	case config.ProviderOffline:
		logging.API("using offline generator")
		return OfflineGenerator{}, nil
	default:
		return nil, fmt.Errorf("unknown generation provider: %s", provider)
	}
}
