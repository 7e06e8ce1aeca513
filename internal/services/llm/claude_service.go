package llm

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	"github.com/ternarybob/arbor"

	"github.com/ternarybob/safebite/internal/common"
	"github.com/ternarybob/safebite/internal/interfaces"
)

// ClaudeService implements interfaces.CompletionService using the Anthropic
// Claude API.
type ClaudeService struct {
	config    *common.ClaudeConfig
	logger    arbor.ILogger
	client    *anthropic.Client
	timeout   time.Duration
	maxTokens int
}

// convertMessagesToClaude maps conversation messages to Claude's params.
// System messages are extracted for the System parameter; the first one
// wins. At least one user message is required.
func convertMessagesToClaude(messages []interfaces.Message) ([]anthropic.MessageParam, string, error) {
	if len(messages) == 0 {
		return nil, "", fmt.Errorf("messages cannot be empty")
	}

	claudeMessages := make([]anthropic.MessageParam, 0, len(messages))
	var systemText string
	hasUser := false

	for _, msg := range messages {
		switch msg.Role {
		case interfaces.RoleSystem:
			if systemText == "" {
				systemText = msg.Content
			}
		case interfaces.RoleAssistant:
			claudeMessages = append(claudeMessages, anthropic.NewAssistantMessage(
				anthropic.NewTextBlock(msg.Content),
			))
		default:
			hasUser = true
			claudeMessages = append(claudeMessages, anthropic.NewUserMessage(
				anthropic.NewTextBlock(msg.Content),
			))
		}
	}

	if !hasUser {
		return nil, "", fmt.Errorf("at least one message must have role 'user'")
	}

	return claudeMessages, systemText, nil
}

// NewClaudeService creates a Claude completion service. The API key resolves
// environment first, then the KV store, then config.
func NewClaudeService(claudeConfig *common.ClaudeConfig, storageManager interfaces.StorageManager, logger arbor.ILogger) (*ClaudeService, error) {
	ctx := context.Background()
	apiKey, err := common.ResolveAPIKey(ctx, storageManager.KeyValueStorage(), "anthropic_api_key", claudeConfig.APIKey)
	if err != nil {
		return nil, fmt.Errorf("Anthropic API key is required (set via ANTHROPIC_API_KEY, SAFEBITE_CLAUDE_API_KEY, or claude.api_key in config): %w", err)
	}

	if claudeConfig.Model == "" {
		claudeConfig.Model = "claude-haiku-3-5-20241022"
	}

	timeout := common.ParseDurationOrDefault(claudeConfig.Timeout, 60*time.Second)

	maxTokens := claudeConfig.MaxTokens
	if maxTokens <= 0 {
		maxTokens = 8192
	}

	client := anthropic.NewClient(
		option.WithAPIKey(apiKey),
	)

	service := &ClaudeService{
		config:    claudeConfig,
		logger:    logger,
		client:    &client,
		timeout:   timeout,
		maxTokens: maxTokens,
	}

	logger.Debug().
		Str("model", claudeConfig.Model).
		Dur("timeout", timeout).
		Int("max_tokens", maxTokens).
		Msg("Claude completion service initialized")

	return service, nil
}

// Chat implements interfaces.CompletionService.
func (s *ClaudeService) Chat(ctx context.Context, messages []interfaces.Message) (string, error) {
	if len(messages) == 0 {
		return "", fmt.Errorf("messages cannot be empty for chat completion")
	}

	timeoutCtx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	claudeMessages, systemText, err := convertMessagesToClaude(messages)
	if err != nil {
		return "", fmt.Errorf("failed to convert messages to Claude format: %w", err)
	}

	params := anthropic.MessageNewParams{
		Model:     anthropic.Model(s.config.Model),
		MaxTokens: int64(s.maxTokens),
		Messages:  claudeMessages,
	}
	if s.config.Temperature > 0 {
		params.Temperature = anthropic.Float(float64(s.config.Temperature))
	}
	if systemText != "" {
		params.System = []anthropic.TextBlockParam{
			{Text: systemText},
		}
	}

	start := time.Now()
	resp, err := s.client.Messages.New(timeoutCtx, params)
	if err != nil {
		return "", fmt.Errorf("completion request failed: %w", err)
	}

	var response strings.Builder
	for _, block := range resp.Content {
		if block.Type == "text" {
			response.WriteString(block.Text)
		}
	}

	if response.Len() == 0 {
		return "", fmt.Errorf("completion request failed: response contained no content")
	}

	s.logger.Debug().
		Int("message_count", len(messages)).
		Int("response_length", response.Len()).
		Dur("duration", time.Since(start)).
		Msg("Claude chat completion completed")

	return response.String(), nil
}

// HealthCheck verifies the Claude client is initialized. No probe request is
// sent; completions are billed.
func (s *ClaudeService) HealthCheck(_ context.Context) error {
	if s.client == nil {
		return fmt.Errorf("Claude client is not initialized")
	}
	return nil
}

// Close implements interfaces.CompletionService.
func (s *ClaudeService) Close() error {
	s.client = nil
	return nil
}
