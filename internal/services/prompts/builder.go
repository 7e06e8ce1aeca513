// Package prompts builds the completion prompts for product enrichment and
// history chat. Every builder is a pure function: the same inputs always
// produce the same prompt text, so prompt output is covered by golden tests.
package prompts

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/ternarybob/safebite/internal/models"
)

// ExplanationDelimiter separates per-ingredient segments in the model reply.
const ExplanationDelimiter = "###"

// SummarySystemPrompt frames the product summary request.
const SummarySystemPrompt = `You are a nutrition assistant. Assess the overall healthiness of the packaged food product described by the user. Reply with a short plain-text summary of no more than four sentences. Do not use markdown formatting.`

// The %s slot receives the serialized scan history.
const chatSystemPromptTemplate = `You are an AI assistant in a health and nutrition app. The app allows users to scan food products and track their diet. Here's the context:
1. User's food history: %s
2. App features: product scanning, nutritional information, diet logging, calorie tracking, sugar intake monitoring.
3. Your role: Provide diet advice, answer nutrition questions, and engage in general conversation.
Guidelines:
- Analyze the user's food history when relevant to their questions.
- Offer personalized diet improvements based on their scanned products.
- Engage in general conversation, but always be ready to link back to nutrition topics.
- Keep responses concise but informative.
- If asked about specific products not in the history, provide general information and suggest scanning the product for accurate details.`

const explanationsPromptTemplate = `For each of the following ingredients, generate a five-sentence summary of what the ingredient does and whether it is associated with cancer risk. Each ingredient name should precede its summary and be separated from it by a colon (:). Use the delimiter "###" to separate each ingredient summary. Do not repeat the name of the ingredient within the summary. Do not write headers or markdown formatting (bold, italics, etc.) in any of the responses.

Here is an example of the format:
Ingredient1: This is a summary of Ingredient1. It is used in...
###
Ingredient2: This is a summary of Ingredient2. It helps with...
###
Ingredient3: This is a summary of Ingredient3. Studies show that...

Ingredients: %s`

const riskScorePromptTemplate = `Based on the following ingredients, please provide a single risk score (%d-%d, with %d being highly harmful and %d being harmless): %s. Make sure to output only a single integer which is the risk score. Do not output any reasoning or anything else.`

// SummaryPrompt serializes product attributes for the healthiness summary.
func SummaryPrompt(product *models.Product) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Name: %s\n", product.Name)
	fmt.Fprintf(&b, "Brand: %s\n", product.Brand)
	fmt.Fprintf(&b, "Quantity: %s\n", product.Quantity)
	fmt.Fprintf(&b, "Ingredients: %s\n", product.Ingredients)
	fmt.Fprintf(&b, "Nutrition score: %d\n", product.NutritionScore)
	fmt.Fprintf(&b, "Eco score: %d\n", product.EcoScore)
	fmt.Fprintf(&b, "Food processing rating: %s\n", product.FoodProcessingRating)
	fmt.Fprintf(&b, "Calories (kcal): %d", product.Calories)
	return b.String()
}

// ExplanationsPrompt asks for one delimited explanation per ingredient.
// The caller must pass the normalized list; an empty list means there is
// nothing to enrich and no prompt should be sent.
func ExplanationsPrompt(ingredients []string) string {
	return fmt.Sprintf(explanationsPromptTemplate, strings.Join(ingredients, ", "))
}

// RiskScorePrompt asks for a single bare integer in [min, max].
func RiskScorePrompt(ingredients []string, min, max int) string {
	return fmt.Sprintf(riskScorePromptTemplate, min, max, max, min, strings.Join(ingredients, ", "))
}

// chatHistoryEntry is the per-product subset serialized into the chat
// system prompt. Field order is fixed for byte-identical output.
type chatHistoryEntry struct {
	Name                 string `json:"name"`
	Brand                string `json:"brand"`
	Quantity             string `json:"quantity"`
	Ingredients          string `json:"ingredients"`
	NutritionScore       int    `json:"nutritionScore"`
	EcoScore             int    `json:"ecoScore"`
	FoodProcessingRating string `json:"foodProcessingRating"`
	TimeScanned          string `json:"timeScanned"`
}

// ChatSystemPrompt embeds the scan history into the assistant's system turn.
func ChatSystemPrompt(products []models.Product) string {
	entries := make([]chatHistoryEntry, 0, len(products))
	for _, p := range products {
		entries = append(entries, chatHistoryEntry{
			Name:                 p.Name,
			Brand:                p.Brand,
			Quantity:             p.Quantity,
			Ingredients:          p.Ingredients,
			NutritionScore:       p.NutritionScore,
			EcoScore:             p.EcoScore,
			FoodProcessingRating: p.FoodProcessingRating,
			TimeScanned:          p.TimeScanned.UTC().Format(time.RFC3339),
		})
	}

	history, err := json.Marshal(entries)
	if err != nil {
		history = []byte("[]")
	}

	return fmt.Sprintf(chatSystemPromptTemplate, string(history))
}
