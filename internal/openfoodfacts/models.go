package openfoodfacts

import (
	"strings"

	"github.com/ternarybob/safebite/internal/models"
)

// lookupResponse is the wire envelope returned by the product endpoint.
// A status of 1 means the barcode is known; anything else means not found,
// regardless of the HTTP status code.
type lookupResponse struct {
	Status        int          `json:"status"`
	StatusVerbose string       `json:"status_verbose"`
	Code          string       `json:"code"`
	Product       *wireProduct `json:"product"`
}

// wireProduct carries the subset of Open Food Facts product fields the
// application consumes. Every field is optional on the wire.
type wireProduct struct {
	ProductName     string         `json:"product_name"`
	Brands          string         `json:"brands"`
	Quantity        string         `json:"quantity"`
	IngredientsText string         `json:"ingredients_text"`
	NutriScore      *int           `json:"nutriscore_score"`
	EcoScore        *int           `json:"ecoscore_score"`
	NovaGroupsTags  []string       `json:"nova_groups_tags"`
	ImageURL        string         `json:"image_url"`
	Nutriments      wireNutriments `json:"nutriments"`
}

type wireNutriments struct {
	EnergyKcal *float64 `json:"energy-kcal"`
}

// toAttributes maps the wire product onto normalized attributes, filling
// sentinel values for anything the database does not know.
func (p *wireProduct) toAttributes(barcode string) *models.ProductAttributes {
	attrs := &models.ProductAttributes{
		Barcode:              barcode,
		Name:                 textOrUnknown(p.ProductName),
		Brand:                textOrUnknown(p.Brands),
		Quantity:             textOrUnknown(p.Quantity),
		Ingredients:          textOrUnknown(p.IngredientsText),
		NutritionScore:       models.ScoreUnknown,
		EcoScore:             models.ScoreUnknown,
		FoodProcessingRating: models.TextUnknown,
		ImageURL:             textOrUnknown(p.ImageURL),
	}

	if p.NutriScore != nil {
		attrs.NutritionScore = *p.NutriScore
	}
	if p.EcoScore != nil {
		attrs.EcoScore = *p.EcoScore
	}
	if len(p.NovaGroupsTags) > 0 && strings.TrimSpace(p.NovaGroupsTags[0]) != "" {
		attrs.FoodProcessingRating = p.NovaGroupsTags[0]
	}
	if p.Nutriments.EnergyKcal != nil && *p.Nutriments.EnergyKcal > 0 {
		attrs.Calories = int(*p.Nutriments.EnergyKcal)
	}

	return attrs
}

func textOrUnknown(s string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return models.TextUnknown
	}
	return s
}
