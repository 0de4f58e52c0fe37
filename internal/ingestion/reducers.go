package ingestion

import (
	"strings"
	"time"

	"bidsflow-backend/internal/analyzer"
	"bidsflow-backend/internal/bids"
)

// Reducers take a bid snapshot and return a new one. None of them write to
// the input's slices.

const (
	// DefaultItemName labels appended pricing rows that arrive without an item.
	DefaultItemName = "Discovered Item"
	// ManualCheckNote is stored on documents the collaborator could not assess.
	ManualCheckNote = "Manual check needed."
)

// ApplyChecklistPatches marks checklist entries Complete for every patch whose
// status is Complete and whose id exists in either checklist. Other patches
// are dropped. Applying the same patches twice yields the same bid.
func ApplyChecklistPatches(b bids.Bid, patches []analyzer.ChecklistPatch) bids.Bid {
	out := b.Clone()
	for _, p := range patches {
		if bids.ChecklistStatus(p.Status) != bids.ChecklistComplete {
			continue
		}
		id := strings.TrimSpace(p.ID)
		if id == "" {
			continue
		}
		patchItems(out.TechnicalQualificationChecklist, id, p.AIComment)
		patchItems(out.ComplianceChecklist, id, p.AIComment)
	}
	return out
}

func patchItems(items []bids.ChecklistItem, id, comment string) {
	for i := range items {
		if items[i].ID != id {
			continue
		}
		items[i].Status = bids.ChecklistComplete
		if strings.TrimSpace(comment) != "" {
			items[i].AIComment = comment
		}
	}
}

// ChecklistRefs lists both checklists as references for the matching capability.
func ChecklistRefs(b bids.Bid) []analyzer.ChecklistRef {
	refs := make([]analyzer.ChecklistRef, 0, len(b.TechnicalQualificationChecklist)+len(b.ComplianceChecklist))
	for _, item := range b.TechnicalQualificationChecklist {
		refs = append(refs, analyzer.ChecklistRef{ID: item.ID, Requirement: item.Requirement, Category: CategoryTechnical})
	}
	for _, item := range b.ComplianceChecklist {
		refs = append(refs, analyzer.ChecklistRef{ID: item.ID, Requirement: item.Requirement, Category: CategoryCompliance})
	}
	return refs
}

// AppendDocuments adds documents to the end of the bid's document list.
func AppendDocuments(b bids.Bid, docs ...bids.TechnicalDocument) bids.Bid {
	out := b.Clone()
	out.TechnicalDocuments = append(out.TechnicalDocuments, docs...)
	return out
}

// RemoveDocument drops the document with the given id, if present.
func RemoveDocument(b bids.Bid, docID string) bids.Bid {
	out := b.Clone()
	kept := out.TechnicalDocuments[:0]
	for _, doc := range out.TechnicalDocuments {
		if doc.ID != docID {
			kept = append(kept, doc)
		}
	}
	out.TechnicalDocuments = kept
	return out
}

// MergeFinancialRows reconciles extracted pricing rows with the existing
// financial rows. Each existing row takes the unit price of the first
// extracted row that matches it. Extracted rows matching no existing row are
// appended. The contract value is recomputed afterwards.
func MergeFinancialRows(b bids.Bid, extracted []analyzer.PricingRow) bids.Bid {
	out := b.Clone()
	existing := out.FinancialFormats
	for i := range existing {
		for _, row := range extracted {
			if MatchRow(row, existing[i]) {
				existing[i].UnitPrice = row.UnitPrice
				existing[i].TotalPrice = row.UnitPrice * existing[i].Quantity
				break
			}
		}
	}
	var added []bids.FinancialRow
	for _, row := range extracted {
		if matchesAny(row, existing) {
			continue
		}
		added = append(added, newFinancialRow(row))
	}
	out.FinancialFormats = append(existing, added...)
	return RecomputeContractValue(out)
}

func matchesAny(row analyzer.PricingRow, existing []bids.FinancialRow) bool {
	for _, e := range existing {
		if MatchRow(row, e) {
			return true
		}
	}
	return false
}

func newFinancialRow(row analyzer.PricingRow) bids.FinancialRow {
	item := strings.TrimSpace(row.Item)
	if item == "" {
		item = DefaultItemName
	}
	uom := strings.TrimSpace(row.UOM)
	if uom == "" {
		uom = DefaultUOM
	}
	qty := row.Quantity
	if qty <= 0 {
		qty = 1
	}
	return bids.FinancialRow{
		Item:        item,
		Description: strings.TrimSpace(row.Description),
		UOM:         uom,
		Quantity:    qty,
		UnitPrice:   row.UnitPrice,
		TotalPrice:  row.UnitPrice * qty,
	}
}

// RecomputeContractValue sets the contract value from the row totals.
func RecomputeContractValue(b bids.Bid) bids.Bid {
	var sum float64
	for _, row := range b.FinancialFormats {
		sum += row.TotalPrice
	}
	b.TCVExclTax = sum
	b.TCVInclTax = sum * (1 + TaxRate)
	return b
}

// ApplyPricingTerms copies payment terms and contract duration reported by
// the pricing analysis. Blank values keep what the bid already has.
func ApplyPricingTerms(b bids.Bid, p analyzer.PricingAnalysis) bids.Bid {
	if v := strings.TrimSpace(p.VendorPaymentTerms); v != "" {
		b.VendorPaymentTerms = v
	}
	if v := strings.TrimSpace(p.CustomerPaymentTerms); v != "" {
		b.CustomerPaymentTerms = v
	}
	if v := strings.TrimSpace(p.ContractDuration); v != "" {
		b.ContractDuration = v
	}
	return b
}

// ReplaceChecklists swaps both checklists for freshly extracted ones. Every
// new entry gets an id from newID and starts Pending.
func ReplaceChecklists(b bids.Bid, extracted analyzer.ExtractedChecklist, newID func() string) bids.Bid {
	out := b.Clone()
	technical := make([]bids.ChecklistItem, 0, len(extracted.Technical))
	for _, item := range extracted.Technical {
		technical = append(technical, bids.ChecklistItem{
			ID:          newID(),
			Requirement: item.Requirement,
			Type:        item.Type,
			AIComment:   item.AIComment,
			Status:      bids.ChecklistPending,
		})
	}
	compliance := make([]bids.ChecklistItem, 0, len(extracted.Compliance))
	for _, item := range extracted.Compliance {
		compliance = append(compliance, bids.ChecklistItem{
			ID:          newID(),
			Requirement: item.Requirement,
			Description: item.Description,
			IsMandatory: item.IsMandatory,
			Status:      bids.ChecklistPending,
		})
	}
	out.TechnicalQualificationChecklist = technical
	out.ComplianceChecklist = compliance
	if s := strings.TrimSpace(extracted.SummaryRequirements); s != "" {
		out.SummaryRequirements = s
	}
	if s := strings.TrimSpace(extracted.ScopeOfWork); s != "" {
		out.ScopeOfWork = s
	}
	return out
}

// SetSolutionFit stores the solution-fit report on the bid.
func SetSolutionFit(b bids.Bid, fit analyzer.SolutionFit, at time.Time) bids.Bid {
	out := b.Clone()
	out.SolutionFit = &bids.SolutionFitReport{
		SolutionFit:     fit.SolutionFit,
		FitExplanation:  fit.FitExplanation,
		GapAnalysis:     append([]string(nil), fit.GapAnalysis...),
		Recommendations: append([]string(nil), fit.Recommendations...),
		GeneratedAt:     at,
	}
	return out
}
