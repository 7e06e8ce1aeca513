package models

import (
	"github.com/go-playground/validator/v10"
)

var attributeValidator = validator.New()

// ProductAttributes is the normalized result of a barcode lookup, before a
// Product record exists. Missing facts carry the sentinel values rather than
// pointers so records round-trip through storage without nil checks.
type ProductAttributes struct {
	Barcode              string `json:"barcode" validate:"required"`
	Name                 string `json:"name" validate:"required"`
	Brand                string `json:"brand"`
	Quantity             string `json:"quantity"`
	Ingredients          string `json:"ingredients"`
	NutritionScore       int    `json:"nutrition_score" validate:"gte=-1"`
	EcoScore             int    `json:"eco_score" validate:"gte=-1"`
	FoodProcessingRating string `json:"food_processing_rating"`
	// ImageURL carries the "N/A" sentinel when absent, so no url validation.
	ImageURL             string `json:"image_url"`
	Calories             int    `json:"calories" validate:"gte=0"`
}

// Validate checks structural constraints after wire mapping.
func (a *ProductAttributes) Validate() error {
	return attributeValidator.Struct(a)
}
