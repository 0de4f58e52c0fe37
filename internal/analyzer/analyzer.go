// Package analyzer implements the AI collaborator consumed by bid ingestion.
package analyzer

import (
	"context"

	"bidsflow-backend/internal/bids"
)

// Analyzer is the set of collaborator capabilities. Every method may fail;
// failures come back as a Result carrying ErrUnavailable, never as a panic.
type Analyzer interface {
	AnalyzeDocumentForChecklist(ctx context.Context, criteria string, refs []ChecklistRef, docs []Document) Result[ChecklistAnalysis]
	ExtractChecklistFromDocument(ctx context.Context, doc Document) Result[ExtractedChecklist]
	AnalyzePricingDocument(ctx context.Context, doc Document, contractDuration string, existing []bids.FinancialRow) Result[PricingAnalysis]
	TagDocuments(ctx context.Context, docs []Document) Result[TagResult]
	AnalyzeSolutionFit(ctx context.Context, bid bids.Bid, docs []Document) Result[SolutionFit]
}
