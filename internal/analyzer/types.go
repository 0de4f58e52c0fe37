package analyzer

// Capability names used in logs and step reports.
const (
	CapabilityChecklistMatch   = "checklist.match"
	CapabilityChecklistExtract = "checklist.extract"
	CapabilityPricing          = "pricing.analyze"
	CapabilityTagging          = "documents.tag"
	CapabilitySolutionFit      = "solution.fit"
)

// Document is a named file payload handed to a capability.
type Document struct {
	Name     string
	MimeType string
	Data     []byte
}

// ChecklistRef identifies one checklist entry the collaborator may patch.
type ChecklistRef struct {
	ID          string `json:"id"`
	Requirement string `json:"requirement"`
	Category    string `json:"category"`
}

// ChecklistPatch is a proposed status change for a checklist entry.
type ChecklistPatch struct {
	ID        string `json:"id"`
	Status    string `json:"status"`
	AIComment string `json:"aiComment"`
}

// ChecklistAnalysis is the payload of AnalyzeDocumentForChecklist.
type ChecklistAnalysis struct {
	UpdatedChecklist []ChecklistPatch `json:"updatedChecklist"`
	DetectedTags     []string         `json:"detectedTags,omitempty"`
	ConfidenceScore  *float64         `json:"confidenceScore,omitempty"`
	Assessment       string           `json:"assessment,omitempty"`
}

// ExtractedTechnicalItem is a technical qualification requirement found in a tender.
type ExtractedTechnicalItem struct {
	Requirement string `json:"requirement"`
	Type        string `json:"type"`
	AIComment   string `json:"aiComment"`
}

// ExtractedComplianceItem is a compliance requirement found in a tender.
type ExtractedComplianceItem struct {
	Requirement string `json:"requirement"`
	Description string `json:"description"`
	IsMandatory bool   `json:"isMandatory"`
}

// ExtractedChecklist is the payload of ExtractChecklistFromDocument.
type ExtractedChecklist struct {
	Technical           []ExtractedTechnicalItem  `json:"technicalQualificationChecklist"`
	Compliance          []ExtractedComplianceItem `json:"complianceList"`
	SummaryRequirements string                    `json:"summaryRequirements,omitempty"`
	ScopeOfWork         string                    `json:"scopeOfWork,omitempty"`
}

// Empty reports whether nothing was extracted.
func (e ExtractedChecklist) Empty() bool {
	return len(e.Technical) == 0 && len(e.Compliance) == 0
}

// PricingRow is one extracted bill-of-quantities line.
type PricingRow struct {
	Item        string  `json:"item"`
	Description string  `json:"description"`
	UOM         string  `json:"uom"`
	Quantity    float64 `json:"quantity"`
	UnitPrice   float64 `json:"unitPrice"`
}

// PricingAnalysis is the payload of AnalyzePricingDocument.
type PricingAnalysis struct {
	Rows                 []PricingRow `json:"populatedFinancialFormat"`
	VendorPaymentTerms   string       `json:"vendorPaymentTerms,omitempty"`
	CustomerPaymentTerms string       `json:"customerPaymentTerms,omitempty"`
	ContractDuration     string       `json:"contractDuration,omitempty"`
}

// TaggedFile carries tags and a summary for one file name.
type TaggedFile struct {
	FileName string   `json:"fileName"`
	Tags     []string `json:"tags"`
	Summary  string   `json:"summary"`
}

// TagResult is the payload of TagDocuments.
type TagResult struct {
	Files []TaggedFile `json:"taggedFiles"`
}

// ByName indexes tagged files by file name.
func (t TagResult) ByName() map[string]TaggedFile {
	out := make(map[string]TaggedFile, len(t.Files))
	for _, f := range t.Files {
		out[f.FileName] = f
	}
	return out
}

// SolutionFit is the payload of AnalyzeSolutionFit.
type SolutionFit struct {
	SolutionFit     string   `json:"solutionFit"`
	FitExplanation  string   `json:"fitExplanation"`
	GapAnalysis     []string `json:"gapAnalysis"`
	Recommendations []string `json:"recommendations"`
}
