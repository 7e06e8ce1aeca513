package badger

import (
	"context"
	"fmt"

	"github.com/ternarybob/arbor"
	"github.com/timshannon/badgerhold/v4"

	"github.com/ternarybob/safebite/internal/interfaces"
	"github.com/ternarybob/safebite/internal/models"
)

// ChatStorage implements interfaces.ChatStorage for Badger.
type ChatStorage struct {
	db     *BadgerDB
	logger arbor.ILogger
}

// NewChatStorage creates a new ChatStorage instance
func NewChatStorage(db *BadgerDB, logger arbor.ILogger) interfaces.ChatStorage {
	return &ChatStorage{
		db:     db,
		logger: logger,
	}
}

// SaveMessage appends a message to the conversation.
func (s *ChatStorage) SaveMessage(ctx context.Context, message *models.ChatMessage) error {
	if message.ID == "" {
		return fmt.Errorf("message ID is required")
	}

	if err := s.db.Store().Upsert(message.ID, message); err != nil {
		return fmt.Errorf("failed to save chat message: %w", err)
	}
	return nil
}

// ListMessages returns messages in timestamp ascending order, the display
// order of the conversation.
func (s *ChatStorage) ListMessages(ctx context.Context) ([]*models.ChatMessage, error) {
	var messages []models.ChatMessage
	if err := s.db.Store().Find(&messages, badgerhold.Where("ID").Ne("").SortBy("Timestamp")); err != nil {
		return nil, fmt.Errorf("failed to list chat messages: %w", err)
	}

	result := make([]*models.ChatMessage, len(messages))
	for i := range messages {
		result[i] = &messages[i]
	}
	return result, nil
}

// DeleteAllMessages clears the conversation.
func (s *ChatStorage) DeleteAllMessages(ctx context.Context) error {
	if err := s.db.Store().DeleteMatching(&models.ChatMessage{}, nil); err != nil {
		return fmt.Errorf("failed to delete chat messages: %w", err)
	}
	return nil
}

// CountMessages returns the number of stored messages.
func (s *ChatStorage) CountMessages(ctx context.Context) (int, error) {
	count, err := s.db.Store().Count(&models.ChatMessage{}, nil)
	if err != nil {
		return 0, fmt.Errorf("failed to count chat messages: %w", err)
	}
	return int(count), nil
}
