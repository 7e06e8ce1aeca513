package interfaces

import "context"

// EventType represents different event types in the system
type EventType string

const (
	// EventProductScanned fires after a lookup succeeds and a record is persisted
	EventProductScanned EventType = "product_scanned"
	// EventEnrichmentStateChanged fires on every enrichment field transition
	// so callers can render partial state (summary ready, score still pending)
	EventEnrichmentStateChanged EventType = "enrichment_state_changed"
	// EventHistoryCleared fires after a bulk history delete
	EventHistoryCleared EventType = "history_cleared"
)

// Event represents a system event
type Event struct {
	Type    EventType
	Payload interface{}
}

// EventHandler is a function that handles events
type EventHandler func(ctx context.Context, event Event) error

// EventService manages pub/sub event bus
type EventService interface {
	// Subscribe to an event type
	Subscribe(eventType EventType, handler EventHandler) error

	// Publish an event to all subscribers
	Publish(ctx context.Context, event Event) error

	// PublishSync publishes event and waits for all handlers to complete
	PublishSync(ctx context.Context, event Event) error

	// Close shuts down the event service
	Close() error
}
