// Package ingredients turns raw ingredient label text into a clean list
// suitable for prompting and display.
package ingredients

import (
	"strings"

	"github.com/ternarybob/safebite/internal/models"
)

// Normalize splits a raw comma-separated ingredient string into trimmed,
// non-empty entries. The unknown sentinel and blank input produce an empty
// list, never a list with empty entries.
func Normalize(raw string) []string {
	raw = strings.TrimSpace(raw)
	if raw == "" || raw == models.TextUnknown {
		return []string{}
	}

	parts := strings.Split(raw, ",")
	result := make([]string, 0, len(parts))
	for _, part := range parts {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		result = append(result, part)
	}

	return result
}
