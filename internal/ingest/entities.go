package ingest

import (
	"regexp"

	"github.com/propdesk/propdesk/internal/model"
)

// Inventory documents tend to carry a small set of structured fields.
// scanEntities pulls them out with pattern matching; the fraction of
// field kinds found becomes the document confidence score.
var entityPatterns = []struct {
	kind    string
	pattern *regexp.Regexp
}{
	{"price", regexp.MustCompile(`(?i)(?:AED|USD|EUR|\$|€)\s?[\d,]+(?:\.\d+)?`)},
	{"area", regexp.MustCompile(`(?i)\b[\d,]+(?:\.\d+)?\s?(?:sq\.? ?ft|sqft|sqm|m2|m²)\b`)},
	{"bedrooms", regexp.MustCompile(`(?i)\b(?:\d+|studio)[\s-]?(?:br\b|bed(?:room)?s?\b)`)},
	{"bathrooms", regexp.MustCompile(`(?i)\b\d+[\s-]?bath(?:room)?s?\b`)},
	{"email", regexp.MustCompile(`[A-Za-z0-9._%+\-]+@[A-Za-z0-9.\-]+\.[A-Za-z]{2,}`)},
	{"phone", regexp.MustCompile(`\+?\d[\d\s\-()]{7,}\d`)},
}

const maxEntitiesPerKind = 5

func scanEntities(text string) ([]model.Entity, float64) {
	var entities []model.Entity
	found := 0
	for _, ep := range entityPatterns {
		matches := ep.pattern.FindAllString(text, maxEntitiesPerKind)
		if len(matches) == 0 {
			continue
		}
		found++
		for _, m := range matches {
			entities = append(entities, model.Entity{Kind: ep.kind, Value: m})
		}
	}
	confidence := float64(found) / float64(len(entityPatterns))
	return entities, confidence
}
