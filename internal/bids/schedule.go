package bids

import (
	"math"
	"strings"
	"time"
)

const (
	// ReservedBufferDays keeps one day for final review and one for submission.
	ReservedBufferDays = 2
	// MinPhaseTargetDays is the floor applied to every phase budget.
	MinPhaseTargetDays = 0.5
	// TimingDeadBandDays is the tolerance around a target before a stage counts as ahead or behind.
	TimingDeadBandDays = 0.5
)

const day = 24 * time.Hour

// Timing classifies elapsed time in a stage against its target.
type Timing string

const (
	TimingAhead   Timing = "Ahead"
	TimingOnTrack Timing = "On Track"
	TimingBehind  Timing = "Behind"
)

// PhaseTargets is the day budget per stage for a scheduling window.
type PhaseTargets struct {
	AvailableDays int               `json:"availableDays"`
	Complexity    Complexity        `json:"complexity"`
	Days          map[Stage]float64 `json:"days"`
}

// Total returns the sum of all phase targets.
func (p PhaseTargets) Total() float64 {
	var sum float64
	for _, d := range p.Days {
		sum += d
	}
	return sum
}

// ComputePhaseTargets splits the window between received and deadline into
// per-stage budgets rounded to the nearest half day.
func ComputePhaseTargets(deadline, received time.Time, complexity Complexity) PhaseTargets {
	span := deadline.Sub(received).Hours() / 24
	available := int(math.Ceil(span)) - ReservedBufferDays
	if available < 1 {
		available = 1
	}

	c := NormalizeComplexity(complexity)
	weights := phaseWeights[c]
	days := make(map[Stage]float64, len(stageOrder))
	for _, st := range stageOrder {
		target := math.Round(float64(available)*weights[st]*2) / 2
		if target < MinPhaseTargetDays {
			target = MinPhaseTargetDays
		}
		days[st] = target
	}
	return PhaseTargets{AvailableDays: available, Complexity: c, Days: days}
}

// PhaseTargetsForBid parses the bid's dates and computes its phase targets.
// ok is false when either date is missing or unparseable.
func PhaseTargetsForBid(b Bid) (PhaseTargets, bool) {
	deadline, ok := ParseDate(b.Deadline)
	if !ok {
		return PhaseTargets{}, false
	}
	received, ok := ParseDate(b.ReceivedDate)
	if !ok {
		return PhaseTargets{}, false
	}
	return ComputePhaseTargets(deadline, received, b.Complexity), true
}

// ElapsedInStage returns the days spent since the first entry into stage,
// rounded to one decimal. Stages never entered report 0.
func ElapsedInStage(history []StageTransition, stage Stage, now time.Time) float64 {
	for _, entry := range history {
		if entry.Stage != stage {
			continue
		}
		if entry.Timestamp.IsZero() {
			return 0
		}
		elapsed := now.Sub(entry.Timestamp).Hours() / 24
		if elapsed < 0 {
			return 0
		}
		return math.Round(elapsed*10) / 10
	}
	return 0
}

// TimingStatus compares elapsed days against a target with a half-day dead band.
func TimingStatus(elapsed, target float64) Timing {
	diff := elapsed - target
	switch {
	case diff <= -TimingDeadBandDays:
		return TimingAhead
	case diff <= TimingDeadBandDays:
		return TimingOnTrack
	default:
		return TimingBehind
	}
}

// StageTimingReport is the timing badge for one stage.
type StageTimingReport struct {
	Stage       Stage   `json:"stage"`
	TargetDays  float64 `json:"targetDays"`
	ElapsedDays float64 `json:"elapsedDays"`
	Status      Timing  `json:"status"`
}

// StageTiming reports target, elapsed and status for stage. ok is false when
// the bid has no usable scheduling window or the stage is unknown.
func StageTiming(b Bid, stage Stage, now time.Time) (StageTimingReport, bool) {
	if !stage.Valid() {
		return StageTimingReport{}, false
	}
	targets, ok := PhaseTargetsForBid(b)
	if !ok {
		return StageTimingReport{}, false
	}
	target := targets.Days[stage]
	elapsed := ElapsedInStage(b.StageHistory, stage, now)
	return StageTimingReport{
		Stage:       stage,
		TargetDays:  target,
		ElapsedDays: elapsed,
		Status:      TimingStatus(elapsed, target),
	}, true
}

// DaysLeft returns whole days until the bid deadline, rounded up.
func DaysLeft(b Bid, now time.Time) (int, bool) {
	deadline, ok := ParseDate(b.Deadline)
	if !ok {
		return 0, false
	}
	return int(math.Ceil(deadline.Sub(now).Hours() / 24)), true
}

var dateLayouts = []string{
	"2006-01-02",
	time.RFC3339,
	time.RFC3339Nano,
	"2006-01-02T15:04:05",
}

// ParseDate parses a calendar date (YYYY-MM-DD) or a full timestamp in UTC.
func ParseDate(raw string) (time.Time, bool) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return time.Time{}, false
	}
	for _, layout := range dateLayouts {
		if t, err := time.ParseInLocation(layout, raw, time.UTC); err == nil {
			return t.UTC(), true
		}
	}
	return time.Time{}, false
}
