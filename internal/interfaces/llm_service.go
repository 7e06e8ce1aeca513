package interfaces

import (
	"context"
)

// Message roles understood by every completion provider.
const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// Message represents a single message in a chat conversation
type Message struct {
	// Role identifies the message sender: "user", "assistant", or "system"
	Role string

	// Content contains the text content of the message
	Content string
}

// CompletionService defines the "send prompt, get text" capability the
// enrichment pipeline and chat assistant consume. Implementations wrap a
// chat-completion-style provider; the pipeline depends only on the returned
// text, never on any provider's full response schema.
type CompletionService interface {
	// Chat generates a completion response based on the conversation history.
	// The messages slice should contain the full conversation context in
	// chronological order, including system prompts, user messages, and
	// previous assistant responses.
	//
	// Parameters:
	//   - ctx: Context for cancellation and timeout control
	//   - messages: Conversation history in chronological order
	//
	// Returns:
	//   - string: Generated assistant response
	//   - error: Error if the completion fails (transport, auth, timeout)
	Chat(ctx context.Context, messages []Message) (string, error)

	// HealthCheck verifies the completion service is operational.
	HealthCheck(ctx context.Context) error

	// Close releases resources and performs cleanup operations.
	Close() error
}
