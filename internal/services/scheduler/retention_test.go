package scheduler

import (
	"context"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ternarybob/safebite/internal/common"
	"github.com/ternarybob/safebite/internal/interfaces"
	"github.com/ternarybob/safebite/internal/models"
)

type sweepStorage struct {
	mu       sync.Mutex
	products map[string]models.Product
}

func (s *sweepStorage) SaveProduct(_ context.Context, product *models.Product) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.products[product.ID] = *product
	return nil
}

func (s *sweepStorage) GetProduct(_ context.Context, id string) (*models.Product, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	product, ok := s.products[id]
	if !ok {
		return nil, interfaces.ErrProductNotFound
	}
	return &product, nil
}

func (s *sweepStorage) ListProducts(_ context.Context, _ int) ([]*models.Product, error) {
	return nil, nil
}

func (s *sweepStorage) ListProductsAscending(_ context.Context) ([]*models.Product, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	result := make([]*models.Product, 0, len(s.products))
	for id := range s.products {
		product := s.products[id]
		result = append(result, &product)
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].TimeScanned.Before(result[j].TimeScanned)
	})
	return result, nil
}

func (s *sweepStorage) DeleteProduct(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.products[id]; !ok {
		return interfaces.ErrProductNotFound
	}
	delete(s.products, id)
	return nil
}

func (s *sweepStorage) DeleteAllProducts(_ context.Context) error { return nil }

func (s *sweepStorage) CountProducts(_ context.Context) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.products), nil
}

func TestSweep_DeletesOnlyExpiredRecords(t *testing.T) {
	storage := &sweepStorage{products: map[string]models.Product{
		"prod_old":    {ID: "prod_old", TimeScanned: time.Now().Add(-100 * 24 * time.Hour)},
		"prod_recent": {ID: "prod_recent", TimeScanned: time.Now().Add(-time.Hour)},
	}}

	svc := NewRetentionService(&common.RetentionConfig{
		Enabled:  true,
		Schedule: "0 0 3 * * *",
		MaxAge:   "2160h", // 90 days
	}, storage, common.GetLogger())

	svc.sweep()

	_, err := storage.GetProduct(context.Background(), "prod_old")
	assert.ErrorIs(t, err, interfaces.ErrProductNotFound)

	_, err = storage.GetProduct(context.Background(), "prod_recent")
	assert.NoError(t, err)
}

func TestStart_DisabledIsNoop(t *testing.T) {
	svc := NewRetentionService(&common.RetentionConfig{Enabled: false}, &sweepStorage{products: map[string]models.Product{}}, common.GetLogger())
	require.NoError(t, svc.Start())
	svc.Stop()
}

func TestStart_InvalidScheduleRejected(t *testing.T) {
	svc := NewRetentionService(&common.RetentionConfig{
		Enabled:  true,
		Schedule: "not a schedule",
	}, &sweepStorage{products: map[string]models.Product{}}, common.GetLogger())
	assert.Error(t, svc.Start())
}
