package interfaces

import (
	"context"

	"github.com/ternarybob/safebite/internal/models"
)

// ProductService owns the scan flow and history access.
type ProductService interface {
	// Scan resolves a barcode, persists a new record, and kicks off
	// enrichment of every AI field. A failed lookup creates nothing:
	// there is no partial record without baseline attributes.
	Scan(ctx context.Context, barcode string) (*models.Product, error)

	// List returns history in scan-time descending order. A limit of 0
	// means no limit.
	List(ctx context.Context, limit int) ([]*models.Product, error)

	Get(ctx context.Context, id string) (*models.Product, error)
	Delete(ctx context.Context, id string) error
	DeleteAll(ctx context.Context) error
	Count(ctx context.Context) (int, error)
}
