package bids

type createBidRequest struct {
	CustomerName          string          `json:"customerName"`
	ProjectName           string          `json:"projectName"`
	Deadline              string          `json:"deadline"`
	ReceivedDate          string          `json:"receivedDate"`
	Complexity            string          `json:"complexity"`
	RiskLevel             string          `json:"riskLevel"`
	EstimatedValue        float64         `json:"estimatedValue"`
	Currency              string          `json:"currency"`
	QualificationCriteria string          `json:"qualificationCriteria"`
	ContractDuration      string          `json:"contractDuration"`
	TechnicalChecklist    []ChecklistItem `json:"technicalQualificationChecklist"`
	ComplianceChecklist   []ChecklistItem `json:"complianceChecklist"`
	FinancialFormats      []FinancialRow  `json:"financialFormats"`
}

func (r createBidRequest) toInput() CreateInput {
	return CreateInput{
		CustomerName:          r.CustomerName,
		ProjectName:           r.ProjectName,
		Deadline:              r.Deadline,
		ReceivedDate:          r.ReceivedDate,
		Complexity:            Complexity(r.Complexity),
		RiskLevel:             r.RiskLevel,
		EstimatedValue:        r.EstimatedValue,
		Currency:              r.Currency,
		QualificationCriteria: r.QualificationCriteria,
		ContractDuration:      r.ContractDuration,
		TechnicalChecklist:    r.TechnicalChecklist,
		ComplianceChecklist:   r.ComplianceChecklist,
		FinancialFormats:      r.FinancialFormats,
	}
}

type updateBidRequest struct {
	CustomerName          *string  `json:"customerName"`
	ProjectName           *string  `json:"projectName"`
	Deadline              *string  `json:"deadline"`
	ReceivedDate          *string  `json:"receivedDate"`
	Complexity            *string  `json:"complexity"`
	RiskLevel             *string  `json:"riskLevel"`
	EstimatedValue        *float64 `json:"estimatedValue"`
	Currency              *string  `json:"currency"`
	QualificationCriteria *string  `json:"qualificationCriteria"`
	ContractDuration      *string  `json:"contractDuration"`
}

func (r updateBidRequest) toInput() UpdateInput {
	in := UpdateInput{
		CustomerName:          r.CustomerName,
		ProjectName:           r.ProjectName,
		Deadline:              r.Deadline,
		ReceivedDate:          r.ReceivedDate,
		RiskLevel:             r.RiskLevel,
		EstimatedValue:        r.EstimatedValue,
		Currency:              r.Currency,
		QualificationCriteria: r.QualificationCriteria,
		ContractDuration:      r.ContractDuration,
	}
	if r.Complexity != nil {
		c := Complexity(*r.Complexity)
		in.Complexity = &c
	}
	return in
}

type statusRequest struct {
	Status              string `json:"status"`
	NoBidReasonCategory string `json:"noBidReasonCategory"`
	NoBidComments       string `json:"noBidComments"`
	CompetitionPricing  string `json:"competitionPricing"`
	KeyLearnings        string `json:"keyLearnings"`
}

type checklistItemRequest struct {
	Status string `json:"status"`
}

type approvalRequest struct {
	Status string `json:"status"`
}

type weightsRequest struct {
	Weights *IntegrityWeights `json:"weights"`
}

type bidSummary struct {
	ID             string   `json:"id"`
	ProjectName    string   `json:"projectName"`
	CustomerName   string   `json:"customerName"`
	Status         Status   `json:"status"`
	CurrentStage   Stage    `json:"currentStage"`
	Deadline       string   `json:"deadline"`
	EstimatedValue float64  `json:"estimatedValue"`
	Integrity      int      `json:"integrity"`
	Priority       Priority `json:"priority"`
}
