package interfaces

import (
	"context"

	"github.com/ternarybob/safebite/internal/models"
)

// EnrichmentStateChange is the payload of EventEnrichmentStateChanged
type EnrichmentStateChange struct {
	ProductID string                 `json:"product_id"`
	Field     models.EnrichmentField `json:"field"`
	State     models.EnrichmentState `json:"state"`
}

// EnrichmentService drives the per-field enrichment state machine for a
// product record. Each field moves NotRequested -> Pending -> Succeeded or
// Failed, independently of the others. Requests for a field already pending
// are collapsed into the in-flight call (single-flight). A Failed field is
// never retried automatically; a fresh Request call re-enters Pending.
type EnrichmentService interface {
	// Request starts enrichment of the given fields. Fields already
	// pending are skipped; fields already succeeded are skipped unless
	// force is set. Returns immediately; completion is observable via
	// EventEnrichmentStateChanged and Status.
	Request(ctx context.Context, productID string, fields []models.EnrichmentField, force bool) error

	// Status returns the current per-field states, merging in-flight
	// pending marks over the persisted terminal states.
	Status(ctx context.Context, productID string) (models.EnrichmentStatus, error)

	// Wait blocks until no enrichment call is in flight for the record.
	// Used by tests and by callers that need synchronous completion.
	Wait(productID string)
}
