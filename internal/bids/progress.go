package bids

import "time"

const (
	priorityCriticalDays     = 3
	priorityUrgentDays       = 7
	priorityBehindDays       = 10
	priorityBehindIntegrity  = 50
	priorityHighValueMillion = 100
)

// Priority ranks a bid on the dashboard pipeline.
type Priority struct {
	Score  float64 `json:"score"`
	Reason string  `json:"reason"`
}

// PriorityOf scores a bid by value, deadline urgency, risk and integrity.
func PriorityOf(b Bid, now time.Time) Priority {
	p := Priority{Reason: "Standard Track"}
	revenueM := b.EstimatedValue / 1_000_000
	p.Score += revenueM

	daysLeft, hasDeadline := DaysLeft(b, now)
	if hasDeadline {
		if daysLeft <= priorityCriticalDays {
			p.Score += 500
			p.Reason = "Critical Deadline"
		} else if daysLeft <= priorityUrgentDays {
			p.Score += 200
		}
	}

	if b.RiskLevel == "High" {
		p.Score += 300
		if p.Reason == "Standard Track" {
			p.Reason = "Risk Intervention"
		}
	}

	if hasDeadline && Score(b) < priorityBehindIntegrity && daysLeft < priorityBehindDays {
		p.Score += 250
		if p.Reason == "Standard Track" {
			p.Reason = "Behind Target"
		}
	}

	if p.Reason == "Standard Track" && revenueM >= priorityHighValueMillion {
		p.Reason = "High Value Strategic"
	}
	return p
}

// Progress is the read-side projection recomputed on demand for a bid.
type Progress struct {
	BidID        string             `json:"bidId"`
	CurrentStage Stage              `json:"currentStage"`
	ViewingStage Stage              `json:"viewingStage"`
	ViewMode     ViewMode           `json:"viewMode"`
	Integrity    IntegrityBreakdown `json:"integrity"`
	Targets      *PhaseTargets      `json:"phaseTargets,omitempty"`
	Timing       *StageTimingReport `json:"timing,omitempty"`
	DaysLeft     *int               `json:"daysLeft,omitempty"`
	Priority     Priority           `json:"priority"`
}

// ProgressOf projects scores, targets and timing for the bid's viewing stage.
// Timing fields are nil when the bid dates are unusable.
func ProgressOf(b Bid, now time.Time) Progress {
	viewing := b.ViewingStage
	if !viewing.Valid() {
		viewing = b.CurrentStage
	}
	p := Progress{
		BidID:        b.ID,
		CurrentStage: b.CurrentStage,
		ViewingStage: viewing,
		ViewMode:     ViewModeOf(b),
		Integrity:    Breakdown(b),
		Priority:     PriorityOf(b, now),
	}
	if targets, ok := PhaseTargetsForBid(b); ok {
		p.Targets = &targets
	}
	if timing, ok := StageTiming(b, viewing, now); ok {
		p.Timing = &timing
	}
	if days, ok := DaysLeft(b, now); ok {
		p.DaysLeft = &days
	}
	return p
}
