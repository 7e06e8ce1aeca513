package llm

import (
	"fmt"

	"github.com/ternarybob/arbor"

	"github.com/ternarybob/safebite/internal/common"
	"github.com/ternarybob/safebite/internal/interfaces"
)

// NewCompletionService creates the completion provider selected by
// llm.default_provider.
func NewCompletionService(
	cfg *common.Config,
	storageManager interfaces.StorageManager,
	logger arbor.ILogger,
) (interfaces.CompletionService, error) {
	provider := cfg.LLM.DefaultProvider
	if provider == "" {
		provider = common.LLMProviderOpenAI
	}

	logger.Info().Str("provider", string(provider)).Msg("Initializing completion service")

	switch provider {
	case common.LLMProviderOpenAI:
		return NewOpenAIService(&cfg.OpenAI, storageManager, logger)
	case common.LLMProviderClaude:
		return NewClaudeService(&cfg.Claude, storageManager, logger)
	default:
		return nil, fmt.Errorf("unsupported completion provider '%s': must be 'openai' or 'claude'", provider)
	}
}
