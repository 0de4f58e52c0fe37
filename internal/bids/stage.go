package bids

import "strings"

// Stage is one of the fixed workflow phases a bid passes through.
type Stage string

const (
	StageIntake        Stage = "Intake"
	StageQualification Stage = "Qualification"
	StageSolutioning   Stage = "Solutioning"
	StagePricing       Stage = "Pricing"
	StageCompliance    Stage = "Compliance"
	StageFinalReview   Stage = "Final Review"
)

var stageOrder = []Stage{
	StageIntake,
	StageQualification,
	StageSolutioning,
	StagePricing,
	StageCompliance,
	StageFinalReview,
}

// Stages returns the workflow stages in order.
func Stages() []Stage {
	out := make([]Stage, len(stageOrder))
	copy(out, stageOrder)
	return out
}

// Index returns the position of the stage in the workflow, or -1 if unknown.
func (s Stage) Index() int {
	for i, st := range stageOrder {
		if st == s {
			return i
		}
	}
	return -1
}

// Valid reports whether s is one of the workflow stages.
func (s Stage) Valid() bool {
	return s.Index() >= 0
}

// IsTerminal reports whether s is the last workflow stage.
func (s Stage) IsTerminal() bool {
	return s == stageOrder[len(stageOrder)-1]
}

// Next returns the stage following s.
func (s Stage) Next() (Stage, bool) {
	idx := s.Index()
	if idx < 0 || idx+1 >= len(stageOrder) {
		return "", false
	}
	return stageOrder[idx+1], true
}

// ParseStage resolves a stage name case-insensitively. "FinalReview" and
// "final_review" are accepted as aliases.
func ParseStage(raw string) (Stage, error) {
	key := strings.ToLower(strings.TrimSpace(raw))
	key = strings.NewReplacer(" ", "", "_", "", "-", "").Replace(key)
	for _, st := range stageOrder {
		if strings.ReplaceAll(strings.ToLower(string(st)), " ", "") == key {
			return st, nil
		}
	}
	return "", ErrUnknownStage
}

// Complexity selects the phase-weight table of a bid.
type Complexity string

const (
	ComplexityLow    Complexity = "Low"
	ComplexityMedium Complexity = "Medium"
	ComplexityHigh   Complexity = "High"
)

// NormalizeComplexity maps empty or unknown values to Medium.
func NormalizeComplexity(c Complexity) Complexity {
	switch strings.ToLower(strings.TrimSpace(string(c))) {
	case "low":
		return ComplexityLow
	case "high":
		return ComplexityHigh
	default:
		return ComplexityMedium
	}
}

// Phase weights do not have to sum to exactly 1; Medium leaves a small buffer.
var phaseWeights = map[Complexity]map[Stage]float64{
	ComplexityHigh: {
		StageIntake:        0.01,
		StageQualification: 0.05,
		StageSolutioning:   0.60,
		StagePricing:       0.25,
		StageCompliance:    0.07,
		StageFinalReview:   0.02,
	},
	ComplexityMedium: {
		StageIntake:        0.02,
		StageQualification: 0.05,
		StageSolutioning:   0.58,
		StagePricing:       0.20,
		StageCompliance:    0.12,
		StageFinalReview:   0.025,
	},
	ComplexityLow: {
		StageIntake:        0.05,
		StageQualification: 0.10,
		StageSolutioning:   0.40,
		StagePricing:       0.25,
		StageCompliance:    0.18,
		StageFinalReview:   0.02,
	},
}

// PhaseWeights returns a copy of the per-stage weight table for the complexity.
func PhaseWeights(c Complexity) map[Stage]float64 {
	src := phaseWeights[NormalizeComplexity(c)]
	out := make(map[Stage]float64, len(src))
	for k, v := range src {
		out[k] = v
	}
	return out
}
