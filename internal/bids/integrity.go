package bids

import "math"

// DefaultIntegrityWeights apply when a bid has no override.
var DefaultIntegrityWeights = IntegrityWeights{
	Technical:  30,
	Compliance: 30,
	Commercial: 30,
	Legal:      10,
}

// IntegrityBreakdown holds the four integrity sub-scores and their rounded total.
type IntegrityBreakdown struct {
	Weights    IntegrityWeights `json:"weights"`
	Technical  float64          `json:"technical"`
	Compliance float64          `json:"compliance"`
	Commercial float64          `json:"commercial"`
	Legal      float64          `json:"legal"`
	Total      int              `json:"total"`
}

// Breakdown computes the integrity sub-scores for a bid.
//
// An empty technical or compliance checklist counts as fully satisfied, while
// an empty pricing table scores zero.
func Breakdown(b Bid) IntegrityBreakdown {
	w := DefaultIntegrityWeights
	if b.IntegrityScoreBreakdown != nil {
		w = *b.IntegrityScoreBreakdown
	}

	out := IntegrityBreakdown{Weights: w}
	out.Technical = checklistScore(b.TechnicalQualificationChecklist, w.Technical)
	out.Compliance = checklistScore(b.ComplianceChecklist, w.Compliance)
	if n := len(b.FinancialFormats); n > 0 {
		priced := 0
		for _, row := range b.FinancialFormats {
			if row.UnitPrice > 0 {
				priced++
			}
		}
		out.Commercial = float64(priced) / float64(n) * w.Commercial
	}
	if b.ManagementApprovalStatus == ApprovalApproved {
		out.Legal = w.Legal
	}
	out.Total = int(math.Round(out.Technical + out.Compliance + out.Commercial + out.Legal))
	return out
}

// Score returns the rounded integrity score for a bid.
func Score(b Bid) int {
	return Breakdown(b).Total
}

func checklistScore(items []ChecklistItem, weight float64) float64 {
	if len(items) == 0 {
		return weight
	}
	complete := 0
	for _, item := range items {
		if item.Status == ChecklistComplete {
			complete++
		}
	}
	return float64(complete) / float64(len(items)) * weight
}
