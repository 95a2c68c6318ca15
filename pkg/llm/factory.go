package llm

import (
	"fmt"

	"go.uber.org/zap"
)

// NewProvider creates the completion provider adapter named by provider
// ("openai" or "anthropic"). The returned adapter carries the fixed model
// identifier and sampling parameters from cfg.
func NewProvider(provider string, cfg *ProviderConfig, logger *zap.Logger) (CompletionProvider, error) {
	switch provider {
	case "openai":
		return NewOpenAIProvider(cfg, logger)
	case "anthropic":
		return NewAnthropicProvider(cfg, logger)
	}
	return nil, fmt.Errorf("unknown provider: %q", provider)
}
