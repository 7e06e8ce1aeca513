// Package openfoodfacts provides a client for the Open Food Facts product
// database. This package centralizes all barcode lookup interactions for the
// application.
package openfoodfacts

import (
	"fmt"
	"time"
)

// APIError represents an error from the Open Food Facts API.
type APIError struct {
	StatusCode int
	Message    string
	Endpoint   string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("Open Food Facts API error: %s (status: %d, endpoint: %s)", e.Message, e.StatusCode, e.Endpoint)
}

// RateLimitError represents a rate limit error.
type RateLimitError struct {
	RetryAfter time.Duration
}

func (e *RateLimitError) Error() string {
	return fmt.Sprintf("Open Food Facts rate limit exceeded, retry after %v", e.RetryAfter)
}
