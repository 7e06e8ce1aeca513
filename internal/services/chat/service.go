// Package chat answers user questions about the scan history through an
// injected completion provider.
package chat

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/ternarybob/arbor"

	"github.com/ternarybob/safebite/internal/common"
	"github.com/ternarybob/safebite/internal/interfaces"
	"github.com/ternarybob/safebite/internal/models"
	"github.com/ternarybob/safebite/internal/services/prompts"
)

// FallbackReply is stored as the assistant message when the completion
// provider fails. The conversation keeps its user/assistant alternation
// either way.
const FallbackReply = "Failed to generate response."

// Service implements interfaces.ChatService.
type Service struct {
	completion   interfaces.CompletionService
	messages     interfaces.ChatStorage
	products     interfaces.ProductStorage
	logger       arbor.ILogger
	historyLimit int
}

// NewService creates a chat service. historyLimit bounds how many recent
// products are serialized into the system prompt; 0 means all.
func NewService(
	completion interfaces.CompletionService,
	messages interfaces.ChatStorage,
	products interfaces.ProductStorage,
	logger arbor.ILogger,
	historyLimit int,
) *Service {
	return &Service{
		completion:   completion,
		messages:     messages,
		products:     products,
		logger:       logger,
		historyLimit: historyLimit,
	}
}

// Send persists the user message, generates a reply against the scan
// history, persists the reply, and returns it.
func (s *Service) Send(ctx context.Context, content string) (*models.ChatMessage, error) {
	content = strings.TrimSpace(content)
	if content == "" {
		return nil, fmt.Errorf("message content is required")
	}

	userMessage := &models.ChatMessage{
		ID:        common.NewMessageID(),
		Content:   content,
		Sender:    models.SenderUser,
		Timestamp: time.Now(),
	}
	if err := s.messages.SaveMessage(ctx, userMessage); err != nil {
		return nil, err
	}

	reply := s.generateReply(ctx, content)

	assistantMessage := &models.ChatMessage{
		ID:        common.NewMessageID(),
		Content:   reply,
		Sender:    models.SenderAssistant,
		Timestamp: time.Now(),
	}
	if err := s.messages.SaveMessage(ctx, assistantMessage); err != nil {
		return nil, err
	}

	return assistantMessage, nil
}

// generateReply builds the history-aware prompt and calls the provider. Any
// failure collapses to the fallback reply so the conversation never errors
// out on the user.
func (s *Service) generateReply(ctx context.Context, content string) string {
	products, err := s.products.ListProducts(ctx, s.historyLimit)
	if err != nil {
		s.logger.Warn().Err(err).Msg("Failed to load scan history for chat")
		return FallbackReply
	}

	history := make([]models.Product, 0, len(products))
	for _, p := range products {
		history = append(history, *p)
	}

	reply, err := s.completion.Chat(ctx, []interfaces.Message{
		{Role: interfaces.RoleSystem, Content: prompts.ChatSystemPrompt(history)},
		{Role: interfaces.RoleUser, Content: content},
	})
	if err != nil {
		s.logger.Warn().Err(err).Msg("Chat completion failed")
		return FallbackReply
	}

	reply = strings.TrimSpace(reply)
	if reply == "" {
		return FallbackReply
	}
	return reply
}

// History returns the stored conversation in display order.
func (s *Service) History(ctx context.Context) ([]models.ChatMessage, error) {
	stored, err := s.messages.ListMessages(ctx)
	if err != nil {
		return nil, err
	}

	result := make([]models.ChatMessage, 0, len(stored))
	for _, m := range stored {
		result = append(result, *m)
	}
	return result, nil
}

// Clear deletes the whole conversation.
func (s *Service) Clear(ctx context.Context) error {
	return s.messages.DeleteAllMessages(ctx)
}
