package enrichment

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/ternarybob/arbor"

	"github.com/ternarybob/safebite/internal/interfaces"
	"github.com/ternarybob/safebite/internal/models"
	"github.com/ternarybob/safebite/internal/services/ingredients"
	"github.com/ternarybob/safebite/internal/services/prompts"
)

const (
	// RiskScoreMin and RiskScoreMax bound the accepted risk score reply.
	RiskScoreMin = 1
	RiskScoreMax = 100

	defaultCallTimeout = 60 * time.Second
)

// Service fills the AI fields of product records. Each field runs as an
// independent asynchronous fetch guarded by a per-record per-field
// single-flight gate, so concurrent requests for the same field collapse
// into one completion call.
type Service struct {
	products   interfaces.ProductStorage
	completion interfaces.CompletionService
	events     interfaces.EventService
	logger     arbor.ILogger
	timeout    time.Duration

	mu      sync.Mutex
	cond    *sync.Cond
	pending map[string]map[models.EnrichmentField]struct{}

	// persistMu serializes the load-modify-save in persist. Without it two
	// concurrent field fetches can both read the record, each apply only
	// its own field, and the last save wipes the other field's result.
	persistMu sync.Mutex
}

// NewService creates an enrichment service.
func NewService(
	products interfaces.ProductStorage,
	completion interfaces.CompletionService,
	events interfaces.EventService,
	logger arbor.ILogger,
	timeout time.Duration,
) *Service {
	if timeout <= 0 {
		timeout = defaultCallTimeout
	}
	s := &Service{
		products:   products,
		completion: completion,
		events:     events,
		logger:     logger,
		timeout:    timeout,
		pending:    make(map[string]map[models.EnrichmentField]struct{}),
	}
	s.cond = sync.NewCond(&s.mu)
	return s
}

// Request implements interfaces.EnrichmentService. It starts one fetch per
// requested field and returns without waiting for completion. Fields already
// in flight or already succeeded (unless force) are skipped.
func (s *Service) Request(ctx context.Context, productID string, fields []models.EnrichmentField, force bool) error {
	product, err := s.products.GetProduct(ctx, productID)
	if err != nil {
		return err
	}

	if len(fields) == 0 {
		fields = models.AllEnrichmentFields
	}

	for _, field := range fields {
		if product.Enrichment.State(field) == models.EnrichmentSucceeded && !force {
			continue
		}
		if !s.beginField(productID, field) {
			continue
		}

		s.logger.Debug().
			Str("product_id", productID).
			Str("field", string(field)).
			Msg("Starting enrichment fetch")
		s.publishState(productID, field, models.EnrichmentPending)

		go s.fetchField(productID, field)
	}

	return nil
}

// Status implements interfaces.EnrichmentService, overlaying in-flight
// pending marks on the persisted terminal states.
func (s *Service) Status(ctx context.Context, productID string) (models.EnrichmentStatus, error) {
	product, err := s.products.GetProduct(ctx, productID)
	if err != nil {
		return models.EnrichmentStatus{}, err
	}

	status := product.Enrichment
	s.mu.Lock()
	for field := range s.pending[productID] {
		status.SetState(field, models.EnrichmentPending)
	}
	s.mu.Unlock()

	return status, nil
}

// Wait blocks until no fetch is in flight for the record.
func (s *Service) Wait(productID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for len(s.pending[productID]) > 0 {
		s.cond.Wait()
	}
}

// beginField claims the single-flight gate for a field. It returns false when
// a fetch for the same record and field is already in flight.
func (s *Service) beginField(productID string, field models.EnrichmentField) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, inFlight := s.pending[productID][field]; inFlight {
		return false
	}
	if s.pending[productID] == nil {
		s.pending[productID] = make(map[models.EnrichmentField]struct{})
	}
	s.pending[productID][field] = struct{}{}
	return true
}

func (s *Service) endField(productID string, field models.EnrichmentField) {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.pending[productID], field)
	if len(s.pending[productID]) == 0 {
		delete(s.pending, productID)
	}
	s.cond.Broadcast()
}

// fetchField runs one completion call and persists the outcome. It uses a
// fresh context so an abandoned HTTP request does not cancel a fetch that is
// already in flight.
func (s *Service) fetchField(productID string, field models.EnrichmentField) {
	defer s.endField(productID, field)

	ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
	defer cancel()

	product, err := s.products.GetProduct(ctx, productID)
	if err != nil {
		// Record deleted while queued; discard silently.
		s.logger.Debug().
			Str("product_id", productID).
			Str("field", string(field)).
			Msg("Record gone before enrichment fetch, discarding")
		return
	}

	var apply func(*models.Product)
	state := models.EnrichmentSucceeded

	switch field {
	case models.FieldSummary:
		apply, err = s.fetchSummary(ctx, product)
	case models.FieldExplanations:
		apply, err = s.fetchExplanations(ctx, product)
	case models.FieldRiskScore:
		apply, err = s.fetchRiskScore(ctx, product)
	default:
		err = fmt.Errorf("unknown enrichment field: %s", field)
	}

	if err != nil {
		s.logger.Warn().
			Str("product_id", productID).
			Str("field", string(field)).
			Err(err).
			Msg("Enrichment fetch failed")
		state = models.EnrichmentFailed
		apply = failureSentinel(field)
	}

	if err := s.persist(ctx, productID, field, state, apply); err != nil {
		if errors.Is(err, interfaces.ErrProductNotFound) {
			// Record deleted mid-flight; result is discarded without error.
			return
		}
		s.logger.Warn().
			Str("product_id", productID).
			Str("field", string(field)).
			Err(err).
			Msg("Failed to persist enrichment result")
		return
	}

	s.publishState(productID, field, state)
}

func (s *Service) fetchSummary(ctx context.Context, product *models.Product) (func(*models.Product), error) {
	reply, err := s.completion.Chat(ctx, []interfaces.Message{
		{Role: interfaces.RoleSystem, Content: prompts.SummarySystemPrompt},
		{Role: interfaces.RoleUser, Content: prompts.SummaryPrompt(product)},
	})
	if err != nil {
		return nil, err
	}

	summary, err := ParseSummary(reply)
	if err != nil {
		return nil, err
	}

	return func(p *models.Product) { p.Summary = summary }, nil
}

func (s *Service) fetchExplanations(ctx context.Context, product *models.Product) (func(*models.Product), error) {
	list := ingredients.Normalize(product.Ingredients)
	if len(list) == 0 {
		// Nothing to enrich counts as success with an empty result.
		return func(p *models.Product) { p.Explanations = []string{} }, nil
	}

	reply, err := s.completion.Chat(ctx, []interfaces.Message{
		{Role: interfaces.RoleUser, Content: prompts.ExplanationsPrompt(list)},
	})
	if err != nil {
		return nil, err
	}

	explanations, err := ParseExplanations(reply, len(list))
	if err != nil {
		return nil, err
	}

	return func(p *models.Product) { p.Explanations = explanations }, nil
}

func (s *Service) fetchRiskScore(ctx context.Context, product *models.Product) (func(*models.Product), error) {
	list := ingredients.Normalize(product.Ingredients)
	if len(list) == 0 {
		return nil, fmt.Errorf("no ingredients to score")
	}

	reply, err := s.completion.Chat(ctx, []interfaces.Message{
		{Role: interfaces.RoleUser, Content: prompts.RiskScorePrompt(list, RiskScoreMin, RiskScoreMax)},
	})
	if err != nil {
		return nil, err
	}

	score, err := ParseRiskScore(reply, RiskScoreMin, RiskScoreMax)
	if err != nil {
		return nil, err
	}

	return func(p *models.Product) { p.RiskScore = score }, nil
}

// failureSentinel returns the field mutation for a failed fetch: empty list
// for explanations, the failed-score sentinel for the risk score, cleared
// text for the summary.
func failureSentinel(field models.EnrichmentField) func(*models.Product) {
	return func(p *models.Product) {
		switch field {
		case models.FieldSummary:
			p.Summary = ""
		case models.FieldExplanations:
			p.Explanations = []string{}
		case models.FieldRiskScore:
			p.RiskScore = models.RiskScoreFailed
		}
	}
}

// persist reloads the record, applies the field mutation, and stores the
// terminal state. The whole read-apply-save runs under persistMu so fetches
// for different fields of the same record cannot overwrite each other.
func (s *Service) persist(ctx context.Context, productID string, field models.EnrichmentField, state models.EnrichmentState, apply func(*models.Product)) error {
	s.persistMu.Lock()
	defer s.persistMu.Unlock()

	product, err := s.products.GetProduct(ctx, productID)
	if err != nil {
		return err
	}

	apply(product)
	product.Enrichment.SetState(field, state)
	product.UpdatedAt = time.Now()

	return s.products.SaveProduct(ctx, product)
}

func (s *Service) publishState(productID string, field models.EnrichmentField, state models.EnrichmentState) {
	if s.events == nil {
		return
	}
	event := interfaces.Event{
		Type: interfaces.EventEnrichmentStateChanged,
		Payload: interfaces.EnrichmentStateChange{
			ProductID: productID,
			Field:     field,
			State:     state,
		},
	}
	if err := s.events.Publish(context.Background(), event); err != nil {
		s.logger.Warn().Err(err).Msg("Failed to publish enrichment event")
	}
}
