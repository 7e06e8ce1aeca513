// Package llm provides the completion providers behind
// interfaces.CompletionService: an OpenAI-compatible HTTP client and an
// Anthropic Claude client, selected by configuration.
package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/ternarybob/arbor"
	"golang.org/x/time/rate"

	"github.com/ternarybob/safebite/internal/common"
	"github.com/ternarybob/safebite/internal/interfaces"
)

// OpenAIService implements interfaces.CompletionService against any
// chat-completions-compatible endpoint (api.openai.com, Perplexity, or a
// self-hosted gateway). Only the flattened choices[0].message.content path
// of the response is consumed.
type OpenAIService struct {
	config     *common.OpenAIConfig
	logger     arbor.ILogger
	httpClient *http.Client
	apiKey     string
	timeout    time.Duration
	limiter    *rate.Limiter
}

// defaultCompletionRate caps outbound completion calls per second. A single
// scan fans out into several enrichment calls at once.
const defaultCompletionRate = 2

type chatCompletionRequest struct {
	Model       string                  `json:"model"`
	Messages    []chatCompletionMessage `json:"messages"`
	Temperature float32                 `json:"temperature,omitempty"`
}

type chatCompletionMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatCompletionResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

// NewOpenAIService creates an OpenAI-compatible completion service. The API
// key resolves environment first, then the KV store, then config.
func NewOpenAIService(openaiConfig *common.OpenAIConfig, storageManager interfaces.StorageManager, logger arbor.ILogger) (*OpenAIService, error) {
	ctx := context.Background()
	apiKey, err := common.ResolveAPIKey(ctx, storageManager.KeyValueStorage(), "openai_api_key", openaiConfig.APIKey)
	if err != nil {
		return nil, fmt.Errorf("OpenAI API key is required (set via OPENAI_API_KEY, SAFEBITE_OPENAI_API_KEY, or openai.api_key in config): %w", err)
	}

	if openaiConfig.Model == "" {
		openaiConfig.Model = "gpt-4"
	}
	if openaiConfig.BaseURL == "" {
		openaiConfig.BaseURL = "https://api.openai.com/v1"
	}

	timeout := common.ParseDurationOrDefault(openaiConfig.Timeout, 60*time.Second)

	service := &OpenAIService{
		config:     openaiConfig,
		logger:     logger,
		httpClient: &http.Client{Timeout: timeout},
		apiKey:     apiKey,
		timeout:    timeout,
		limiter:    rate.NewLimiter(rate.Limit(defaultCompletionRate), defaultCompletionRate),
	}

	logger.Debug().
		Str("model", openaiConfig.Model).
		Str("base_url", openaiConfig.BaseURL).
		Dur("timeout", timeout).
		Msg("OpenAI completion service initialized")

	return service, nil
}

// Chat implements interfaces.CompletionService. Non-2xx status, malformed
// JSON, and a missing content path all surface as the same transport-level
// error; callers never see provider schema details.
func (s *OpenAIService) Chat(ctx context.Context, messages []interfaces.Message) (string, error) {
	if len(messages) == 0 {
		return "", fmt.Errorf("messages cannot be empty for chat completion")
	}

	if err := s.limiter.Wait(ctx); err != nil {
		return "", fmt.Errorf("completion request cancelled while rate limited: %w", err)
	}

	timeoutCtx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	payload := chatCompletionRequest{
		Model:       s.config.Model,
		Temperature: s.config.Temperature,
		Messages:    make([]chatCompletionMessage, 0, len(messages)),
	}
	for _, msg := range messages {
		payload.Messages = append(payload.Messages, chatCompletionMessage{
			Role:    msg.Role,
			Content: msg.Content,
		})
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("failed to encode completion request: %w", err)
	}

	url := strings.TrimRight(s.config.BaseURL, "/") + "/chat/completions"
	req, err := http.NewRequestWithContext(timeoutCtx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("failed to create completion request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+s.apiKey)

	start := time.Now()
	resp, err := s.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("completion request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		errBody, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return "", fmt.Errorf("completion request failed: status %d: %s", resp.StatusCode, strings.TrimSpace(string(errBody)))
	}

	var result chatCompletionResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return "", fmt.Errorf("completion request failed: malformed response: %w", err)
	}

	if len(result.Choices) == 0 || result.Choices[0].Message.Content == "" {
		return "", fmt.Errorf("completion request failed: response contained no content")
	}

	content := result.Choices[0].Message.Content
	s.logger.Debug().
		Int("message_count", len(messages)).
		Int("response_length", len(content)).
		Dur("duration", time.Since(start)).
		Msg("Chat completion completed")

	return content, nil
}

// HealthCheck verifies the service holds a credential and a reachable
// endpoint configuration. No probe request is sent; completions are billed.
func (s *OpenAIService) HealthCheck(_ context.Context) error {
	if s.apiKey == "" {
		return fmt.Errorf("OpenAI API key is not configured")
	}
	if s.config.BaseURL == "" {
		return fmt.Errorf("OpenAI base URL is not configured")
	}
	return nil
}

// Close implements interfaces.CompletionService.
func (s *OpenAIService) Close() error {
	s.httpClient.CloseIdleConnections()
	return nil
}
