package models

import "time"

// EnrichmentField identifies one independently fetched AI field on a product.
type EnrichmentField string

const (
	FieldSummary      EnrichmentField = "summary"
	FieldExplanations EnrichmentField = "explanations"
	FieldRiskScore    EnrichmentField = "risk_score"
)

// AllEnrichmentFields lists every enrichment field in a stable order.
var AllEnrichmentFields = []EnrichmentField{FieldSummary, FieldExplanations, FieldRiskScore}

// EnrichmentState is the lifecycle state of a single enrichment field.
type EnrichmentState string

const (
	EnrichmentNotRequested EnrichmentState = "not_requested"
	EnrichmentPending      EnrichmentState = "pending"
	EnrichmentSucceeded    EnrichmentState = "succeeded"
	EnrichmentFailed       EnrichmentState = "failed"
)

// Sentinel values used at the storage and API boundary. Internally, absence is
// tracked by the enrichment state machine rather than by magic numbers.
const (
	// ScoreUnknown marks an externally-sourced score missing from the lookup response.
	ScoreUnknown = -1

	// RiskScoreNone means the risk score has not been computed yet.
	RiskScoreNone = -1

	// RiskScoreFailed means the risk score fetch was attempted and failed.
	RiskScoreFailed = 0

	// TextUnknown marks a string attribute missing from the lookup response.
	TextUnknown = "N/A"
)

// Product is one scanned item with its lookup attributes and AI enrichment
// fields. Records are append-only: rescanning the same barcode creates a new
// record rather than updating an existing one.
type Product struct {
	ID      string `json:"id" badgerhold:"key"`
	Barcode string `json:"barcode"`

	// Attributes resolved from the product database. Missing values carry
	// the sentinels above, never nulls.
	Name                 string `json:"name"`
	Brand                string `json:"brand"`
	Quantity             string `json:"quantity"`
	Ingredients          string `json:"ingredients"` // raw comma-separated text
	NutritionScore       int    `json:"nutrition_score"`
	EcoScore             int    `json:"eco_score"`
	FoodProcessingRating string `json:"food_processing_rating"`
	ImageURL             string `json:"image_url"`
	Calories             int    `json:"calories"`

	// TimeScanned is set at creation and never changes.
	TimeScanned time.Time `json:"time_scanned" badgerhold:"index"`

	// Enrichment fields, each filled independently any time after creation.
	Summary      string   `json:"summary,omitempty"`
	Explanations []string `json:"explanations,omitempty"` // one entry per normalized ingredient
	RiskScore    int      `json:"risk_score"`             // 1-100, RiskScoreNone until computed

	// Enrichment records the terminal per-field states. Pending is an
	// in-flight condition owned by the enrichment service and is never
	// persisted here.
	Enrichment EnrichmentStatus `json:"enrichment"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// EnrichmentStatus tracks the state of each enrichment field.
type EnrichmentStatus struct {
	Summary      EnrichmentState `json:"summary"`
	Explanations EnrichmentState `json:"explanations"`
	RiskScore    EnrichmentState `json:"risk_score"`
}

// NewEnrichmentStatus returns a status with every field not yet requested.
func NewEnrichmentStatus() EnrichmentStatus {
	return EnrichmentStatus{
		Summary:      EnrichmentNotRequested,
		Explanations: EnrichmentNotRequested,
		RiskScore:    EnrichmentNotRequested,
	}
}

// State returns the state of the given field.
func (s EnrichmentStatus) State(field EnrichmentField) EnrichmentState {
	switch field {
	case FieldSummary:
		return s.Summary
	case FieldExplanations:
		return s.Explanations
	case FieldRiskScore:
		return s.RiskScore
	}
	return EnrichmentNotRequested
}

// SetState updates the state of the given field.
func (s *EnrichmentStatus) SetState(field EnrichmentField, state EnrichmentState) {
	switch field {
	case FieldSummary:
		s.Summary = state
	case FieldExplanations:
		s.Explanations = state
	case FieldRiskScore:
		s.RiskScore = state
	}
}
