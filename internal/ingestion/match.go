package ingestion

import (
	"strings"

	"bidsflow-backend/internal/analyzer"
	"bidsflow-backend/internal/bids"
)

const (
	// TaxRate is applied to the contract value excluding tax.
	TaxRate = 0.17
	// DefaultUOM is used for appended pricing rows that arrive without a unit.
	DefaultUOM = "Unit"
)

func normalize(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// MatchRow reports whether an extracted pricing row refers to an existing
// financial row: equal item names, or the extracted description mentions the
// existing item name. An existing row without an item name never matches.
func MatchRow(extracted analyzer.PricingRow, existing bids.FinancialRow) bool {
	item := normalize(existing.Item)
	if item == "" {
		return false
	}
	if normalize(extracted.Item) == item {
		return true
	}
	return strings.Contains(normalize(extracted.Description), item)
}
