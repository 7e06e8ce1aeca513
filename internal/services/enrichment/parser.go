// Package enrichment parses model output into structured enrichment values
// and drives the per-field enrichment lifecycle for product records.
package enrichment

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/ternarybob/safebite/internal/services/prompts"
)

// ErrEmptyResponse means the model returned only whitespace.
var ErrEmptyResponse = errors.New("empty model response")

// CountMismatchError means the delimited segment count did not match the
// ingredient count. This is a protocol violation and the whole result is
// discarded, never truncated or padded.
type CountMismatchError struct {
	Expected int
	Actual   int
}

func (e *CountMismatchError) Error() string {
	return fmt.Sprintf("explanation count mismatch: expected %d segments, got %d", e.Expected, e.Actual)
}

// InvalidScoreError means the model reply was not a bare integer inside the
// declared range.
type InvalidScoreError struct {
	Raw string
	Min int
	Max int
}

func (e *InvalidScoreError) Error() string {
	return fmt.Sprintf("invalid risk score %q: expected integer in [%d, %d]", e.Raw, e.Min, e.Max)
}

// ParseSummary trims the model reply and rejects blank output.
func ParseSummary(text string) (string, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return "", ErrEmptyResponse
	}
	return text, nil
}

// ParseExplanations splits the reply on the "###" delimiter and returns one
// trimmed explanation per ingredient. Blank segments are discarded before the
// count check. A leading "Name:" label on a segment is stripped so callers
// receive only the explanation body.
func ParseExplanations(text string, expectedCount int) ([]string, error) {
	if strings.TrimSpace(text) == "" {
		return nil, ErrEmptyResponse
	}

	segments := strings.Split(text, prompts.ExplanationDelimiter)
	explanations := make([]string, 0, len(segments))
	for _, segment := range segments {
		segment = strings.TrimSpace(segment)
		if segment == "" {
			continue
		}
		explanations = append(explanations, stripLabel(segment))
	}

	if len(explanations) != expectedCount {
		return nil, &CountMismatchError{Expected: expectedCount, Actual: len(explanations)}
	}

	return explanations, nil
}

// stripLabel removes an "Ingredient:" prefix when the colon appears before
// any sentence punctuation, which distinguishes a label from a colon used
// mid-sentence.
func stripLabel(segment string) string {
	idx := strings.Index(segment, ":")
	if idx < 0 || strings.ContainsAny(segment[:idx], ".!?") {
		return segment
	}
	return strings.TrimSpace(segment[idx+1:])
}

// ParseRiskScore parses a bare integer reply and rejects anything outside
// [min, max]. Out-of-range values are failures, never clamped.
func ParseRiskScore(text string, min, max int) (int, error) {
	trimmed := strings.TrimSpace(text)
	if trimmed == "" {
		return 0, ErrEmptyResponse
	}

	score, err := strconv.Atoi(trimmed)
	if err != nil || score < min || score > max {
		return 0, &InvalidScoreError{Raw: trimmed, Min: min, Max: max}
	}

	return score, nil
}
