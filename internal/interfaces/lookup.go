package interfaces

import (
	"context"
	"errors"

	"github.com/ternarybob/safebite/internal/models"
)

// ErrBarcodeNotFound is returned when the product database has no record for
// a barcode. A lookup failure aborts record creation entirely; there is never
// a partial product without baseline attributes.
var ErrBarcodeNotFound = errors.New("barcode not found")

// ProductLookup resolves a scanned barcode to product attributes via an
// external product database.
type ProductLookup interface {
	// Lookup fetches raw attributes for a barcode. Returns
	// ErrBarcodeNotFound when the database has no such product, or a
	// transport error (wrapped) on network/timeout/non-2xx failures.
	// Absent or malformed response fields are mapped to the sentinel
	// values in models, never propagated as nulls.
	Lookup(ctx context.Context, barcode string) (*models.ProductAttributes, error)
}
