package ingestion

import "strings"

// Document categories accepted on upload.
const (
	CategoryTechnical  = "Technical"
	CategoryCompliance = "Compliance"
	CategoryPricing    = "Pricing"
	CategoryLegal      = "Legal"
	CategoryGeneral    = "General"
)

// ParseCategory resolves a category name case-insensitively. Empty input
// maps to General.
func ParseCategory(raw string) (string, bool) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "technical":
		return CategoryTechnical, true
	case "compliance":
		return CategoryCompliance, true
	case "pricing", "financial":
		return CategoryPricing, true
	case "legal":
		return CategoryLegal, true
	case "", "general":
		return CategoryGeneral, true
	default:
		return "", false
	}
}
