package analyzer

import (
	"context"
	"errors"
	"fmt"
	"strings"

	json "github.com/goccy/go-json"

	"bidsflow-backend/internal/bids"
	"bidsflow-backend/internal/extract"
	"bidsflow-backend/internal/llm"
	"bidsflow-backend/internal/shared/telemetry"
)

const (
	defaultMaxDocChars = 60000
	tagExcerptChars    = 1500
	maxSolutionDocs    = 10
)

var errNoReadableDocuments = errors.New("no readable documents")

// LLMAnalyzer implements Analyzer on top of an llm.Client. Documents are
// converted to text before being sent.
type LLMAnalyzer struct {
	LLM llm.Client
	// MaxDocChars caps the text sent per document. Zero uses the default.
	MaxDocChars int
}

// NewLLMAnalyzer constructs an LLMAnalyzer.
func NewLLMAnalyzer(client llm.Client) *LLMAnalyzer {
	return &LLMAnalyzer{LLM: client}
}

// AnalyzeDocumentForChecklist asks which checklist entries the documents satisfy.
func (a *LLMAnalyzer) AnalyzeDocumentForChecklist(ctx context.Context, criteria string, refs []ChecklistRef, docs []Document) Result[ChecklistAnalysis] {
	const capability = CapabilityChecklistMatch
	if len(refs) == 0 {
		return Failed[ChecklistAnalysis](capability, errors.New("empty checklist"))
	}
	body, err := a.renderDocuments(ctx, docs, a.maxChars())
	if err != nil {
		return Failed[ChecklistAnalysis](capability, err)
	}
	refsJSON, err := json.Marshal(refs)
	if err != nil {
		return Failed[ChecklistAnalysis](capability, err)
	}

	var out ChecklistAnalysis
	prompt := fmt.Sprintf(checklistMatchPrompt, orNone(criteria), refsJSON, body)
	if err := a.complete(ctx, capability, prompt, &out); err != nil {
		return Failed[ChecklistAnalysis](capability, err)
	}

	known := make(map[string]struct{}, len(refs))
	for _, ref := range refs {
		known[ref.ID] = struct{}{}
	}
	patches := make([]ChecklistPatch, 0, len(out.UpdatedChecklist))
	for _, p := range out.UpdatedChecklist {
		id := strings.TrimSpace(p.ID)
		if _, ok := known[id]; !ok {
			continue
		}
		patches = append(patches, ChecklistPatch{
			ID:        id,
			Status:    string(normalizeChecklistStatus(p.Status)),
			AIComment: cleanText(p.AIComment),
		})
	}
	out.UpdatedChecklist = patches
	out.DetectedTags = cleanList(out.DetectedTags)
	out.Assessment = cleanText(out.Assessment)
	return Succeeded(out)
}

// ExtractChecklistFromDocument pulls technical and compliance requirements out of a tender.
func (a *LLMAnalyzer) ExtractChecklistFromDocument(ctx context.Context, doc Document) Result[ExtractedChecklist] {
	const capability = CapabilityChecklistExtract
	text, err := a.documentText(ctx, doc, a.maxChars())
	if err != nil {
		return Failed[ExtractedChecklist](capability, err)
	}

	var out ExtractedChecklist
	if err := a.complete(ctx, capability, fmt.Sprintf(checklistExtractPrompt, doc.Name, text), &out); err != nil {
		return Failed[ExtractedChecklist](capability, err)
	}

	technical := make([]ExtractedTechnicalItem, 0, len(out.Technical))
	for _, item := range out.Technical {
		item.Requirement = cleanText(item.Requirement)
		if item.Requirement == "" {
			continue
		}
		item.Type = cleanText(item.Type)
		item.AIComment = cleanText(item.AIComment)
		technical = append(technical, item)
	}
	compliance := make([]ExtractedComplianceItem, 0, len(out.Compliance))
	for _, item := range out.Compliance {
		item.Requirement = cleanText(item.Requirement)
		if item.Requirement == "" {
			continue
		}
		item.Description = cleanText(item.Description)
		compliance = append(compliance, item)
	}
	out.Technical = technical
	out.Compliance = compliance
	out.SummaryRequirements = cleanText(out.SummaryRequirements)
	out.ScopeOfWork = cleanText(out.ScopeOfWork)
	if out.Empty() {
		return Failed[ExtractedChecklist](capability, errors.New("no requirements extracted"))
	}
	return Succeeded(out)
}

// AnalyzePricingDocument extracts bill-of-quantities rows and payment terms.
func (a *LLMAnalyzer) AnalyzePricingDocument(ctx context.Context, doc Document, contractDuration string, existing []bids.FinancialRow) Result[PricingAnalysis] {
	const capability = CapabilityPricing
	text, err := a.documentText(ctx, doc, a.maxChars())
	if err != nil {
		return Failed[PricingAnalysis](capability, err)
	}
	existingJSON, err := json.Marshal(existing)
	if err != nil {
		return Failed[PricingAnalysis](capability, err)
	}

	var out PricingAnalysis
	prompt := fmt.Sprintf(pricingPrompt, orNone(contractDuration), existingJSON, doc.Name, text)
	if err := a.complete(ctx, capability, prompt, &out); err != nil {
		return Failed[PricingAnalysis](capability, err)
	}

	rows := make([]PricingRow, 0, len(out.Rows))
	for _, row := range out.Rows {
		row.Item = cleanText(row.Item)
		row.Description = cleanText(row.Description)
		row.UOM = cleanText(row.UOM)
		if row.Item == "" && row.Description == "" {
			continue
		}
		if row.Quantity < 0 || row.UnitPrice < 0 {
			continue
		}
		rows = append(rows, row)
	}
	out.Rows = rows
	out.VendorPaymentTerms = cleanText(out.VendorPaymentTerms)
	out.CustomerPaymentTerms = cleanText(out.CustomerPaymentTerms)
	out.ContractDuration = cleanText(out.ContractDuration)
	return Succeeded(out)
}

// TagDocuments tags and summarizes each document by name.
func (a *LLMAnalyzer) TagDocuments(ctx context.Context, docs []Document) Result[TagResult] {
	const capability = CapabilityTagging
	if len(docs) == 0 {
		return Succeeded(TagResult{Files: []TaggedFile{}})
	}
	var b strings.Builder
	for _, doc := range docs {
		excerpt, err := a.documentText(ctx, doc, tagExcerptChars)
		if err != nil {
			excerpt = "(content unavailable)"
		}
		fmt.Fprintf(&b, "### %s\n%s\n\n", doc.Name, excerpt)
	}

	var out TagResult
	if err := a.complete(ctx, capability, fmt.Sprintf(tagPrompt, b.String()), &out); err != nil {
		return Failed[TagResult](capability, err)
	}
	files := make([]TaggedFile, 0, len(out.Files))
	for _, f := range out.Files {
		f.FileName = strings.TrimSpace(f.FileName)
		if f.FileName == "" {
			continue
		}
		f.Tags = cleanList(f.Tags)
		f.Summary = cleanText(f.Summary)
		files = append(files, f)
	}
	out.Files = files
	return Succeeded(out)
}

// AnalyzeSolutionFit rates the technical fit of the bid against its documents.
func (a *LLMAnalyzer) AnalyzeSolutionFit(ctx context.Context, bid bids.Bid, docs []Document) Result[SolutionFit] {
	const capability = CapabilitySolutionFit
	if len(docs) > maxSolutionDocs {
		docs = docs[:maxSolutionDocs]
	}
	perDoc := a.maxChars() / max(1, len(docs))
	body, err := a.renderDocuments(ctx, docs, perDoc)
	if err != nil {
		return Failed[SolutionFit](capability, err)
	}
	bidJSON, err := json.Marshal(solutionBidView(bid))
	if err != nil {
		return Failed[SolutionFit](capability, err)
	}

	var out SolutionFit
	if err := a.complete(ctx, capability, fmt.Sprintf(solutionFitPrompt, bidJSON, body), &out); err != nil {
		return Failed[SolutionFit](capability, err)
	}
	out.SolutionFit = cleanText(out.SolutionFit)
	out.FitExplanation = cleanText(out.FitExplanation)
	out.GapAnalysis = cleanList(out.GapAnalysis)
	out.Recommendations = cleanList(out.Recommendations)
	if out.SolutionFit == "" && out.FitExplanation == "" {
		return Failed[SolutionFit](capability, errors.New("empty solution fit"))
	}
	return Succeeded(out)
}

func (a *LLMAnalyzer) complete(ctx context.Context, task, prompt string, out any) error {
	if a.LLM == nil {
		return llm.ErrNotImplemented
	}
	raw, err := a.LLM.CompleteJSON(ctx, llm.Request{Task: task, System: systemPrompt, Prompt: prompt})
	if err != nil {
		return err
	}
	if err := json.Unmarshal(raw, out); err != nil {
		telemetry.Warn("analyzer.decode_failed", map[string]any{
			"task":  task,
			"error": err.Error(),
		})
		return fmt.Errorf("decode %s response: %w", task, err)
	}
	return nil
}

func (a *LLMAnalyzer) maxChars() int {
	if a.MaxDocChars > 0 {
		return a.MaxDocChars
	}
	return defaultMaxDocChars
}

func (a *LLMAnalyzer) documentText(ctx context.Context, doc Document, limit int) (string, error) {
	text, err := extract.ExtractTextFromBytes(ctx, doc.Data, doc.MimeType, doc.Name)
	if err != nil {
		return "", fmt.Errorf("extract %s: %w", doc.Name, err)
	}
	text = strings.TrimSpace(text)
	if text == "" {
		return "", fmt.Errorf("extract %s: no text", doc.Name)
	}
	if limit > 0 && len(text) > limit {
		text = text[:limit]
	}
	return text, nil
}

// renderDocuments concatenates readable documents. Unreadable ones are
// skipped; it fails only when none could be read.
func (a *LLMAnalyzer) renderDocuments(ctx context.Context, docs []Document, limit int) (string, error) {
	var b strings.Builder
	readable := 0
	for _, doc := range docs {
		text, err := a.documentText(ctx, doc, limit)
		if err != nil {
			telemetry.Warn("analyzer.document_skipped", map[string]any{
				"file_name": doc.Name,
				"error":     err.Error(),
			})
			continue
		}
		readable++
		fmt.Fprintf(&b, "### %s\n%s\n\n", doc.Name, text)
	}
	if readable == 0 {
		return "", errNoReadableDocuments
	}
	return b.String(), nil
}

func normalizeChecklistStatus(raw string) bids.ChecklistStatus {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "complete", "completed", "met", "compliant", "satisfied":
		return bids.ChecklistComplete
	default:
		return bids.ChecklistPending
	}
}

func orNone(s string) string {
	if strings.TrimSpace(s) == "" {
		return "(none)"
	}
	return s
}

type bidView struct {
	CustomerName          string   `json:"customerName"`
	ProjectName           string   `json:"projectName"`
	QualificationCriteria string   `json:"qualificationCriteria,omitempty"`
	ContractDuration      string   `json:"contractDuration,omitempty"`
	Requirements          []string `json:"technicalRequirements"`
}

func solutionBidView(b bids.Bid) bidView {
	reqs := make([]string, 0, len(b.TechnicalQualificationChecklist))
	for _, item := range b.TechnicalQualificationChecklist {
		reqs = append(reqs, item.Requirement)
	}
	return bidView{
		CustomerName:          b.CustomerName,
		ProjectName:           b.ProjectName,
		QualificationCriteria: b.QualificationCriteria,
		ContractDuration:      b.ContractDuration,
		Requirements:          reqs,
	}
}

var _ Analyzer = (*LLMAnalyzer)(nil)
