// Package events is the in-process pub/sub bus carrying scan and enrichment
// lifecycle notifications between services.
package events

import (
	"context"
	"fmt"
	"sync"

	"github.com/ternarybob/arbor"

	"github.com/ternarybob/safebite/internal/interfaces"
)

// Service implements interfaces.EventService.
type Service struct {
	mu          sync.RWMutex
	subscribers map[interfaces.EventType][]interfaces.EventHandler
	logger      arbor.ILogger
}

// NewService creates a new event service.
func NewService(logger arbor.ILogger) interfaces.EventService {
	return &Service{
		subscribers: make(map[interfaces.EventType][]interfaces.EventHandler),
		logger:      logger,
	}
}

// Subscribe registers a handler for an event type.
func (s *Service) Subscribe(eventType interfaces.EventType, handler interfaces.EventHandler) error {
	if handler == nil {
		return fmt.Errorf("handler cannot be nil")
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.subscribers[eventType] = append(s.subscribers[eventType], handler)

	s.logger.Debug().
		Str("event_type", string(eventType)).
		Int("subscriber_count", len(s.subscribers[eventType])).
		Msg("Event handler subscribed")

	return nil
}

// Publish delivers an event to all subscribers asynchronously. Handler
// errors are logged, never propagated to the publisher.
func (s *Service) Publish(ctx context.Context, event interfaces.Event) error {
	s.mu.RLock()
	handlers := append([]interfaces.EventHandler(nil), s.subscribers[event.Type]...)
	s.mu.RUnlock()

	for _, handler := range handlers {
		go func(h interfaces.EventHandler) {
			if err := h(ctx, event); err != nil {
				s.logger.Error().
					Err(err).
					Str("event_type", string(event.Type)).
					Msg("Event handler failed")
			}
		}(handler)
	}

	return nil
}

// PublishSync delivers an event and waits for every handler to finish.
func (s *Service) PublishSync(ctx context.Context, event interfaces.Event) error {
	s.mu.RLock()
	handlers := append([]interfaces.EventHandler(nil), s.subscribers[event.Type]...)
	s.mu.RUnlock()

	var wg sync.WaitGroup
	errChan := make(chan error, len(handlers))

	for _, handler := range handlers {
		wg.Add(1)
		go func(h interfaces.EventHandler) {
			defer wg.Done()
			if err := h(ctx, event); err != nil {
				errChan <- err
			}
		}(handler)
	}

	wg.Wait()
	close(errChan)

	var failed int
	for err := range errChan {
		failed++
		s.logger.Error().
			Err(err).
			Str("event_type", string(event.Type)).
			Msg("Event handler failed")
	}

	if failed > 0 {
		return fmt.Errorf("event handlers failed: %d errors", failed)
	}
	return nil
}

// Close drops all subscriptions.
func (s *Service) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.subscribers = make(map[interfaces.EventType][]interfaces.EventHandler)
	return nil
}
