package bids

import (
	"strings"
	"time"
)

// Status is the bid-level lifecycle flag, orthogonal to the workflow stage.
type Status string

const (
	StatusActive    Status = "Active"
	StatusSubmitted Status = "Submitted"
	StatusWon       Status = "Won"
	StatusLost      Status = "Lost"
	StatusNoBid     Status = "No Bid"
)

// ParseStatus resolves a status name case-insensitively ("NoBid" is accepted).
func ParseStatus(raw string) (Status, error) {
	key := strings.ReplaceAll(strings.ToLower(strings.TrimSpace(raw)), " ", "")
	switch key {
	case "active":
		return StatusActive, nil
	case "submitted":
		return StatusSubmitted, nil
	case "won":
		return StatusWon, nil
	case "lost":
		return StatusLost, nil
	case "nobid", "no-bid", "no_bid":
		return StatusNoBid, nil
	default:
		return "", ErrInvalidStatus
	}
}

// IsTerminal reports whether stage advancement is no longer meaningful.
func (s Status) IsTerminal() bool {
	switch s {
	case StatusSubmitted, StatusWon, StatusLost, StatusNoBid:
		return true
	default:
		return false
	}
}

// ChecklistStatus is the completion state of a checklist entry.
type ChecklistStatus string

const (
	ChecklistPending  ChecklistStatus = "Pending"
	ChecklistComplete ChecklistStatus = "Complete"
)

// ApprovalApproved is the only management approval value that counts for the legal score.
const ApprovalApproved = "Approved"

// ChecklistItem is an entry in the technical qualification or compliance checklist.
// Identity is by ID; the requirement text is never used for matching.
type ChecklistItem struct {
	ID          string          `json:"id"`
	Requirement string          `json:"requirement"`
	Type        string          `json:"type,omitempty"`
	Description string          `json:"description,omitempty"`
	IsMandatory bool            `json:"isMandatory,omitempty"`
	Status      ChecklistStatus `json:"status"`
	AIComment   string          `json:"aiComment,omitempty"`
}

// FinancialRow is a pricing line. Rows have no stable id.
type FinancialRow struct {
	Item        string  `json:"item"`
	Description string  `json:"description"`
	UOM         string  `json:"uom"`
	Quantity    float64 `json:"quantity"`
	UnitPrice   float64 `json:"unitPrice"`
	TotalPrice  float64 `json:"totalPrice"`
}

// TechnicalDocument is an uploaded asset attached to a bid. The binary lives in
// the object store under StorageKey.
type TechnicalDocument struct {
	ID             string    `json:"id"`
	Name           string    `json:"name"`
	Type           string    `json:"type"`
	Category       string    `json:"category"`
	UploadDate     time.Time `json:"uploadDate"`
	Tags           []string  `json:"tags,omitempty"`
	Summary        string    `json:"summary,omitempty"`
	AIScore        *float64  `json:"aiScore,omitempty"`
	AIMatchDetails string    `json:"aiMatchDetails,omitempty"`
	StorageKey     string    `json:"storageKey,omitempty"`
	SizeBytes      int64     `json:"sizeBytes,omitempty"`
}

// StageTransition records the moment a bid entered a stage.
type StageTransition struct {
	Stage     Stage     `json:"stage"`
	Timestamp time.Time `json:"timestamp"`
}

// IntegrityWeights overrides the four integrity sub-score weights.
type IntegrityWeights struct {
	Technical  float64 `json:"technicalWeight"`
	Compliance float64 `json:"complianceWeight"`
	Commercial float64 `json:"commercialWeight"`
	Legal      float64 `json:"legalWeight"`
}

// Sum returns the maximum attainable integrity score for the weights.
func (w IntegrityWeights) Sum() float64 {
	return w.Technical + w.Compliance + w.Commercial + w.Legal
}

// SolutionFitReport is the result of the solution-fit analysis.
type SolutionFitReport struct {
	SolutionFit     string    `json:"solutionFit"`
	FitExplanation  string    `json:"fitExplanation"`
	GapAnalysis     []string  `json:"gapAnalysis"`
	Recommendations []string  `json:"recommendations"`
	GeneratedAt     time.Time `json:"generatedAt"`
}

// Outcome holds the details captured when a bid leaves the Active status.
type Outcome struct {
	NoBidReasonCategory string     `json:"noBidReasonCategory,omitempty"`
	NoBidComments       string     `json:"noBidComments,omitempty"`
	NoBidStage          Stage      `json:"noBidStage,omitempty"`
	CompetitionPricing  string     `json:"competitionPricing,omitempty"`
	KeyLearnings        string     `json:"keyLearnings,omitempty"`
	SubmissionDate      *time.Time `json:"submissionDate,omitempty"`
}

// Bid is the central aggregate tracked through the workflow.
type Bid struct {
	ID                              string              `json:"id"`
	CustomerName                    string              `json:"customerName"`
	ProjectName                     string              `json:"projectName"`
	Deadline                        string              `json:"deadline"`
	ReceivedDate                    string              `json:"receivedDate"`
	Status                          Status              `json:"status"`
	CurrentStage                    Stage               `json:"currentStage"`
	ViewingStage                    Stage               `json:"viewingStage,omitempty"`
	StageHistory                    []StageTransition   `json:"stageHistory"`
	Complexity                      Complexity          `json:"complexity,omitempty"`
	RiskLevel                       string              `json:"riskLevel,omitempty"`
	EstimatedValue                  float64             `json:"estimatedValue"`
	Currency                        string              `json:"currency,omitempty"`
	QualificationCriteria           string              `json:"qualificationCriteria,omitempty"`
	SummaryRequirements             string              `json:"summaryRequirements,omitempty"`
	ScopeOfWork                     string              `json:"scopeOfWork,omitempty"`
	TechnicalQualificationChecklist []ChecklistItem     `json:"technicalQualificationChecklist"`
	ComplianceChecklist             []ChecklistItem     `json:"complianceChecklist"`
	FinancialFormats                []FinancialRow      `json:"financialFormats"`
	TechnicalDocuments              []TechnicalDocument `json:"technicalDocuments"`
	ContractDuration                string              `json:"contractDuration,omitempty"`
	CustomerPaymentTerms            string              `json:"customerPaymentTerms,omitempty"`
	VendorPaymentTerms              string              `json:"vendorPaymentTerms,omitempty"`
	TCVExclTax                      float64             `json:"tcvExclTax"`
	TCVInclTax                      float64             `json:"tcvInclTax"`
	ManagementApprovalStatus        string              `json:"managementApprovalStatus,omitempty"`
	IntegrityScoreBreakdown         *IntegrityWeights   `json:"integrityScoreBreakdown,omitempty"`
	SolutionFit                     *SolutionFitReport  `json:"solutionFit,omitempty"`
	Outcome                         Outcome             `json:"outcome"`
	CreatedBy                       string              `json:"createdBy,omitempty"`
	CreatedAt                       time.Time           `json:"createdAt"`
	UpdatedAt                       time.Time           `json:"updatedAt"`
}

// Clone returns a deep copy of the bid so reducers never share slices with their input.
func (b Bid) Clone() Bid {
	out := b
	out.StageHistory = append([]StageTransition(nil), b.StageHistory...)
	out.TechnicalQualificationChecklist = append([]ChecklistItem(nil), b.TechnicalQualificationChecklist...)
	out.ComplianceChecklist = append([]ChecklistItem(nil), b.ComplianceChecklist...)
	out.FinancialFormats = append([]FinancialRow(nil), b.FinancialFormats...)
	out.TechnicalDocuments = make([]TechnicalDocument, len(b.TechnicalDocuments))
	for i, doc := range b.TechnicalDocuments {
		doc.Tags = append([]string(nil), doc.Tags...)
		out.TechnicalDocuments[i] = doc
	}
	if b.IntegrityScoreBreakdown != nil {
		w := *b.IntegrityScoreBreakdown
		out.IntegrityScoreBreakdown = &w
	}
	if b.SolutionFit != nil {
		fit := *b.SolutionFit
		fit.GapAnalysis = append([]string(nil), b.SolutionFit.GapAnalysis...)
		fit.Recommendations = append([]string(nil), b.SolutionFit.Recommendations...)
		out.SolutionFit = &fit
	}
	return out
}
