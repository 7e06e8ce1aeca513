package interfaces

import (
	"context"

	"github.com/ternarybob/safebite/internal/models"
)

// ChatService answers free-form user questions about the scan history.
type ChatService interface {
	// Send persists the user message, generates an assistant reply from
	// the stored conversation plus the scanned product context, persists
	// the reply, and returns it. A provider failure still yields a
	// persisted fallback reply rather than an error.
	Send(ctx context.Context, content string) (*models.ChatMessage, error)

	// History returns all stored messages in ascending timestamp order.
	History(ctx context.Context) ([]models.ChatMessage, error)

	// Clear removes all stored messages.
	Clear(ctx context.Context) error
}
