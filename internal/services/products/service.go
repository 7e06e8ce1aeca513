// Package products owns the scan flow: barcode lookup, record creation, and
// history access.
package products

import (
	"context"
	"time"

	"github.com/ternarybob/arbor"

	"github.com/ternarybob/safebite/internal/common"
	"github.com/ternarybob/safebite/internal/interfaces"
	"github.com/ternarybob/safebite/internal/models"
)

// Service implements interfaces.ProductService.
type Service struct {
	lookup     interfaces.ProductLookup
	storage    interfaces.ProductStorage
	enrichment interfaces.EnrichmentService
	events     interfaces.EventService
	logger     arbor.ILogger
}

// NewService creates a product service. The enrichment service may be nil in
// tests that only exercise lookup and persistence.
func NewService(
	lookup interfaces.ProductLookup,
	storage interfaces.ProductStorage,
	enrichment interfaces.EnrichmentService,
	events interfaces.EventService,
	logger arbor.ILogger,
) *Service {
	return &Service{
		lookup:     lookup,
		storage:    storage,
		enrichment: enrichment,
		events:     events,
		logger:     logger,
	}
}

// Scan resolves the barcode and appends a new record to history. Rescanning
// the same barcode creates another record; uniqueness is not enforced.
func (s *Service) Scan(ctx context.Context, barcode string) (*models.Product, error) {
	attrs, err := s.lookup.Lookup(ctx, barcode)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	product := &models.Product{
		ID:                   common.NewProductID(),
		Barcode:              attrs.Barcode,
		Name:                 attrs.Name,
		Brand:                attrs.Brand,
		Quantity:             attrs.Quantity,
		Ingredients:          attrs.Ingredients,
		NutritionScore:       attrs.NutritionScore,
		EcoScore:             attrs.EcoScore,
		FoodProcessingRating: attrs.FoodProcessingRating,
		ImageURL:             attrs.ImageURL,
		Calories:             attrs.Calories,
		TimeScanned:          now,
		RiskScore:            models.RiskScoreNone,
		Enrichment:           models.NewEnrichmentStatus(),
		CreatedAt:            now,
		UpdatedAt:            now,
	}

	if err := s.storage.SaveProduct(ctx, product); err != nil {
		return nil, err
	}

	s.logger.Info().
		Str("product_id", product.ID).
		Str("barcode", product.Barcode).
		Str("name", product.Name).
		Msg("Product scanned")

	s.publish(interfaces.Event{Type: interfaces.EventProductScanned, Payload: product.ID})

	if s.enrichment != nil {
		if err := s.enrichment.Request(ctx, product.ID, models.AllEnrichmentFields, false); err != nil {
			// Enrichment failures never abort the scan.
			s.logger.Warn().
				Str("product_id", product.ID).
				Err(err).
				Msg("Failed to start enrichment")
		}
	}

	return product, nil
}

func (s *Service) List(ctx context.Context, limit int) ([]*models.Product, error) {
	return s.storage.ListProducts(ctx, limit)
}

func (s *Service) Get(ctx context.Context, id string) (*models.Product, error) {
	return s.storage.GetProduct(ctx, id)
}

func (s *Service) Delete(ctx context.Context, id string) error {
	return s.storage.DeleteProduct(ctx, id)
}

// DeleteAll clears the scan history. The cleared event is delivered
// synchronously so every subscriber has observed the wipe before the caller
// reports success.
func (s *Service) DeleteAll(ctx context.Context) error {
	if err := s.storage.DeleteAllProducts(ctx); err != nil {
		return err
	}
	if s.events != nil {
		if err := s.events.PublishSync(ctx, interfaces.Event{Type: interfaces.EventHistoryCleared}); err != nil {
			s.logger.Warn().Err(err).Msg("History cleared event handler failed")
		}
	}
	return nil
}

func (s *Service) Count(ctx context.Context) (int, error) {
	return s.storage.CountProducts(ctx)
}

func (s *Service) publish(event interfaces.Event) {
	if s.events == nil {
		return
	}
	if err := s.events.Publish(context.Background(), event); err != nil {
		s.logger.Warn().Err(err).Msg("Failed to publish product event")
	}
}
