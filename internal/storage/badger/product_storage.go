package badger

import (
	"context"
	"errors"
	"fmt"

	"github.com/ternarybob/arbor"
	"github.com/timshannon/badgerhold/v4"

	"github.com/ternarybob/safebite/internal/interfaces"
	"github.com/ternarybob/safebite/internal/models"
)

// ProductStorage implements interfaces.ProductStorage for Badger.
type ProductStorage struct {
	db     *BadgerDB
	logger arbor.ILogger
}

// NewProductStorage creates a new ProductStorage instance
func NewProductStorage(db *BadgerDB, logger arbor.ILogger) interfaces.ProductStorage {
	return &ProductStorage{
		db:     db,
		logger: logger,
	}
}

// SaveProduct inserts or updates a product record.
func (s *ProductStorage) SaveProduct(ctx context.Context, product *models.Product) error {
	if product.ID == "" {
		return fmt.Errorf("product ID is required")
	}

	if err := s.db.Store().Upsert(product.ID, product); err != nil {
		return fmt.Errorf("failed to save product: %w", err)
	}
	return nil
}

// GetProduct retrieves a product by ID.
func (s *ProductStorage) GetProduct(ctx context.Context, id string) (*models.Product, error) {
	var product models.Product
	err := s.db.Store().Get(id, &product)
	if errors.Is(err, badgerhold.ErrNotFound) {
		return nil, interfaces.ErrProductNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get product: %w", err)
	}
	return &product, nil
}

// ListProducts returns records in scan-time descending order. A limit of 0
// means no limit.
func (s *ProductStorage) ListProducts(ctx context.Context, limit int) ([]*models.Product, error) {
	query := badgerhold.Where("ID").Ne("").SortBy("TimeScanned").Reverse()
	if limit > 0 {
		query = query.Limit(limit)
	}

	var products []models.Product
	if err := s.db.Store().Find(&products, query); err != nil {
		return nil, fmt.Errorf("failed to list products: %w", err)
	}
	return toPointers(products), nil
}

// ListProductsAscending returns all records in scan-time ascending order.
func (s *ProductStorage) ListProductsAscending(ctx context.Context) ([]*models.Product, error) {
	var products []models.Product
	if err := s.db.Store().Find(&products, badgerhold.Where("ID").Ne("").SortBy("TimeScanned")); err != nil {
		return nil, fmt.Errorf("failed to list products: %w", err)
	}
	return toPointers(products), nil
}

func toPointers(products []models.Product) []*models.Product {
	result := make([]*models.Product, len(products))
	for i := range products {
		result[i] = &products[i]
	}
	return result
}

// DeleteProduct removes a product by ID.
func (s *ProductStorage) DeleteProduct(ctx context.Context, id string) error {
	err := s.db.Store().Delete(id, &models.Product{})
	if errors.Is(err, badgerhold.ErrNotFound) {
		return interfaces.ErrProductNotFound
	}
	if err != nil {
		return fmt.Errorf("failed to delete product: %w", err)
	}
	return nil
}

// DeleteAllProducts clears the scan history.
func (s *ProductStorage) DeleteAllProducts(ctx context.Context) error {
	if err := s.db.Store().DeleteMatching(&models.Product{}, nil); err != nil {
		return fmt.Errorf("failed to delete all products: %w", err)
	}
	return nil
}

// CountProducts returns the number of stored records.
func (s *ProductStorage) CountProducts(ctx context.Context) (int, error) {
	count, err := s.db.Store().Count(&models.Product{}, nil)
	if err != nil {
		return 0, fmt.Errorf("failed to count products: %w", err)
	}
	return int(count), nil
}
