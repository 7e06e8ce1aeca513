package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/ternarybob/arbor"

	"github.com/ternarybob/safebite/internal/interfaces"
	"github.com/ternarybob/safebite/internal/models"
	"github.com/ternarybob/safebite/internal/openfoodfacts"
)

// ProductHandler serves the scan and history endpoints.
type ProductHandler struct {
	productService    interfaces.ProductService
	enrichmentService interfaces.EnrichmentService
	logger            arbor.ILogger
}

// NewProductHandler creates a new product handler
func NewProductHandler(productService interfaces.ProductService, enrichmentService interfaces.EnrichmentService, logger arbor.ILogger) *ProductHandler {
	return &ProductHandler{
		productService:    productService,
		enrichmentService: enrichmentService,
		logger:            logger,
	}
}

type scanRequest struct {
	Barcode string `json:"barcode"`
}

type enrichRequest struct {
	Fields []models.EnrichmentField `json:"fields,omitempty"`
	Force  bool                     `json:"force,omitempty"`
}

// ScanHandler handles POST /api/scan
func (h *ProductHandler) ScanHandler(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodPost) {
		return
	}

	var req scanRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		WriteError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if strings.TrimSpace(req.Barcode) == "" {
		WriteError(w, http.StatusBadRequest, "barcode is required")
		return
	}

	product, err := h.productService.Scan(r.Context(), req.Barcode)
	if err != nil {
		h.writeScanError(w, req.Barcode, err)
		return
	}

	WriteJSON(w, http.StatusCreated, product)
}

// writeScanError maps lookup failures to API status codes: unknown barcodes
// are the caller's problem, transport failures are the upstream's.
func (h *ProductHandler) writeScanError(w http.ResponseWriter, barcode string, err error) {
	if errors.Is(err, interfaces.ErrBarcodeNotFound) {
		WriteError(w, http.StatusNotFound, "No product found for barcode "+barcode)
		return
	}

	var apiErr *openfoodfacts.APIError
	if errors.As(err, &apiErr) {
		h.logger.Warn().Err(err).Str("barcode", barcode).Msg("Product lookup upstream failure")
		WriteError(w, http.StatusBadGateway, "Product lookup failed, try again")
		return
	}

	h.logger.Error().Err(err).Str("barcode", barcode).Msg("Scan failed")
	WriteError(w, http.StatusInternalServerError, "Scan failed")
}

// ProductsHandler handles GET and DELETE on /api/products
func (h *ProductHandler) ProductsHandler(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		limit := 0
		if raw := r.URL.Query().Get("limit"); raw != "" {
			parsed, err := strconv.Atoi(raw)
			if err != nil || parsed < 0 {
				WriteError(w, http.StatusBadRequest, "Invalid limit parameter")
				return
			}
			limit = parsed
		}

		products, err := h.productService.List(r.Context(), limit)
		if err != nil {
			h.logger.Error().Err(err).Msg("Failed to list products")
			WriteError(w, http.StatusInternalServerError, "Failed to list products")
			return
		}

		WriteJSON(w, http.StatusOK, map[string]interface{}{
			"count":    len(products),
			"products": products,
		})

	case http.MethodDelete:
		if err := h.productService.DeleteAll(r.Context()); err != nil {
			h.logger.Error().Err(err).Msg("Failed to clear history")
			WriteError(w, http.StatusInternalServerError, "Failed to clear history")
			return
		}
		WriteSuccess(w, "History cleared")

	default:
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
	}
}

// ProductRoutes dispatches /api/products/{id} and its subresources:
//
//	GET    /api/products/{id}            - fetch one record
//	DELETE /api/products/{id}            - delete one record
//	POST   /api/products/{id}/enrich     - request enrichment fields
//	GET    /api/products/{id}/enrichment - per-field enrichment states
func (h *ProductHandler) ProductRoutes(w http.ResponseWriter, r *http.Request) {
	path := strings.TrimPrefix(r.URL.Path, "/api/products/")
	parts := strings.SplitN(path, "/", 2)
	id := parts[0]
	if id == "" {
		WriteError(w, http.StatusBadRequest, "Product ID is required")
		return
	}

	if len(parts) == 1 {
		h.handleProduct(w, r, id)
		return
	}

	switch parts[1] {
	case "enrich":
		h.handleEnrich(w, r, id)
	case "enrichment":
		h.handleEnrichmentStatus(w, r, id)
	default:
		WriteError(w, http.StatusNotFound, "Unknown product resource")
	}
}

func (h *ProductHandler) handleProduct(w http.ResponseWriter, r *http.Request, id string) {
	switch r.Method {
	case http.MethodGet:
		product, err := h.productService.Get(r.Context(), id)
		if errors.Is(err, interfaces.ErrProductNotFound) {
			WriteError(w, http.StatusNotFound, "Product not found")
			return
		}
		if err != nil {
			h.logger.Error().Err(err).Str("product_id", id).Msg("Failed to get product")
			WriteError(w, http.StatusInternalServerError, "Failed to get product")
			return
		}
		WriteJSON(w, http.StatusOK, product)

	case http.MethodDelete:
		err := h.productService.Delete(r.Context(), id)
		if errors.Is(err, interfaces.ErrProductNotFound) {
			WriteError(w, http.StatusNotFound, "Product not found")
			return
		}
		if err != nil {
			h.logger.Error().Err(err).Str("product_id", id).Msg("Failed to delete product")
			WriteError(w, http.StatusInternalServerError, "Failed to delete product")
			return
		}
		WriteSuccess(w, "Product deleted")

	default:
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
	}
}

func (h *ProductHandler) handleEnrich(w http.ResponseWriter, r *http.Request, id string) {
	if !RequireMethod(w, r, http.MethodPost) {
		return
	}

	var req enrichRequest
	if r.Body != nil && r.ContentLength != 0 {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			WriteError(w, http.StatusBadRequest, "Invalid request body")
			return
		}
	}

	for _, field := range req.Fields {
		switch field {
		case models.FieldSummary, models.FieldExplanations, models.FieldRiskScore:
		default:
			WriteError(w, http.StatusBadRequest, "Unknown enrichment field: "+string(field))
			return
		}
	}

	err := h.enrichmentService.Request(r.Context(), id, req.Fields, req.Force)
	if errors.Is(err, interfaces.ErrProductNotFound) {
		WriteError(w, http.StatusNotFound, "Product not found")
		return
	}
	if err != nil {
		h.logger.Error().Err(err).Str("product_id", id).Msg("Failed to request enrichment")
		WriteError(w, http.StatusInternalServerError, "Failed to request enrichment")
		return
	}

	WriteJSON(w, http.StatusAccepted, map[string]string{
		"status":  "started",
		"message": "Enrichment started",
	})
}

func (h *ProductHandler) handleEnrichmentStatus(w http.ResponseWriter, r *http.Request, id string) {
	if !RequireMethod(w, r, http.MethodGet) {
		return
	}

	status, err := h.enrichmentService.Status(r.Context(), id)
	if errors.Is(err, interfaces.ErrProductNotFound) {
		WriteError(w, http.StatusNotFound, "Product not found")
		return
	}
	if err != nil {
		h.logger.Error().Err(err).Str("product_id", id).Msg("Failed to get enrichment status")
		WriteError(w, http.StatusInternalServerError, "Failed to get enrichment status")
		return
	}

	WriteJSON(w, http.StatusOK, status)
}
