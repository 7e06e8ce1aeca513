package interfaces

import (
	"context"
	"errors"

	"github.com/ternarybob/safebite/internal/models"
)

// ErrProductNotFound is returned when a product record does not exist.
// Enrichment results arriving for a deleted record key off this error
// and are discarded without failing.
var ErrProductNotFound = errors.New("product not found")

// ProductStorage - interface for scanned product persistence.
// History is append-only; the same barcode may appear many times.
type ProductStorage interface {
	SaveProduct(ctx context.Context, product *models.Product) error
	GetProduct(ctx context.Context, id string) (*models.Product, error)

	// ListProducts returns records ordered by scan time descending (history display)
	ListProducts(ctx context.Context, limit int) ([]*models.Product, error)

	// ListProductsAscending returns records ordered by scan time ascending (aggregation)
	ListProductsAscending(ctx context.Context) ([]*models.Product, error)

	DeleteProduct(ctx context.Context, id string) error
	DeleteAllProducts(ctx context.Context) error
	CountProducts(ctx context.Context) (int, error)
}

// ChatStorage - interface for chat message persistence
type ChatStorage interface {
	SaveMessage(ctx context.Context, message *models.ChatMessage) error

	// ListMessages returns messages ordered by timestamp ascending (display order)
	ListMessages(ctx context.Context) ([]*models.ChatMessage, error)

	DeleteAllMessages(ctx context.Context) error
	CountMessages(ctx context.Context) (int, error)
}

// StorageManager provides access to all storage interfaces
type StorageManager interface {
	ProductStorage() ProductStorage
	ChatStorage() ChatStorage
	KeyValueStorage() KeyValueStorage
	Close() error
}
