package bids

import (
	"testing"
	"time"
)

func date(t *testing.T, raw string) time.Time {
	t.Helper()
	d, ok := ParseDate(raw)
	if !ok {
		t.Fatalf("parse date %q", raw)
	}
	return d
}

func TestComputePhaseTargetsMediumExample(t *testing.T) {
	targets := ComputePhaseTargets(date(t, "2024-01-21"), date(t, "2024-01-01"), ComplexityMedium)
	if targets.AvailableDays != 18 {
		t.Fatalf("expected 18 available days, got %d", targets.AvailableDays)
	}
	if got := targets.Days[StageSolutioning]; got != 10.5 {
		t.Fatalf("expected Solutioning target 10.5, got %v", got)
	}
	if got := targets.Days[StageIntake]; got != 0.5 {
		t.Fatalf("expected Intake target clamped to 0.5, got %v", got)
	}
}

func TestComputePhaseTargetsClampsInvertedWindow(t *testing.T) {
	targets := ComputePhaseTargets(date(t, "2024-01-01"), date(t, "2024-01-10"), ComplexityHigh)
	if targets.AvailableDays != 1 {
		t.Fatalf("expected available days clamped to 1, got %d", targets.AvailableDays)
	}
	for _, st := range Stages() {
		if targets.Days[st] < MinPhaseTargetDays {
			t.Fatalf("stage %s target %v below minimum", st, targets.Days[st])
		}
	}
}

func TestComputePhaseTargetsUnknownComplexityFallsBackToMedium(t *testing.T) {
	deadline, received := date(t, "2024-03-01"), date(t, "2024-02-01")
	got := ComputePhaseTargets(deadline, received, Complexity("Extreme"))
	want := ComputePhaseTargets(deadline, received, ComplexityMedium)
	for _, st := range Stages() {
		if got.Days[st] != want.Days[st] {
			t.Fatalf("stage %s: got %v want %v", st, got.Days[st], want.Days[st])
		}
	}
	if got.Complexity != ComplexityMedium {
		t.Fatalf("expected Medium complexity, got %s", got.Complexity)
	}
}

func TestComputePhaseTargetsLowerBound(t *testing.T) {
	received := date(t, "2024-01-01")
	for _, c := range []Complexity{ComplexityLow, ComplexityMedium, ComplexityHigh} {
		for span := 0; span <= 90; span++ {
			targets := ComputePhaseTargets(received.AddDate(0, 0, span), received, c)
			if targets.Total() < float64(len(Stages()))*MinPhaseTargetDays {
				t.Fatalf("complexity %s span %d: total %v below floor", c, span, targets.Total())
			}
			again := ComputePhaseTargets(received.AddDate(0, 0, span), received, c)
			for _, st := range Stages() {
				if targets.Days[st] < MinPhaseTargetDays {
					t.Fatalf("complexity %s span %d stage %s: %v", c, span, st, targets.Days[st])
				}
				if targets.Days[st] != again.Days[st] {
					t.Fatalf("complexity %s span %d stage %s not deterministic", c, span, st)
				}
			}
		}
	}
}

func TestElapsedInStage(t *testing.T) {
	entered := time.Date(2024, 1, 5, 0, 0, 0, 0, time.UTC)
	history := []StageTransition{
		{Stage: StageIntake, Timestamp: entered.Add(-48 * time.Hour)},
		{Stage: StageQualification, Timestamp: entered},
	}

	tests := []struct {
		name  string
		stage Stage
		now   time.Time
		want  float64
	}{
		{name: "missing stage", stage: StagePricing, now: entered.Add(24 * time.Hour), want: 0},
		{name: "whole days", stage: StageQualification, now: entered.Add(72 * time.Hour), want: 3},
		{name: "rounded to one decimal", stage: StageQualification, now: entered.Add(30 * time.Hour), want: 1.3},
		{name: "clock skew clamps to zero", stage: StageQualification, now: entered.Add(-time.Hour), want: 0},
		{name: "first entry", stage: StageIntake, now: entered, want: 2},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			if got := ElapsedInStage(history, tt.stage, tt.now); got != tt.want {
				t.Fatalf("ElapsedInStage = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestTimingStatusBoundaries(t *testing.T) {
	tests := []struct {
		elapsed float64
		want    Timing
	}{
		{elapsed: 0, want: TimingAhead},
		{elapsed: 4.5, want: TimingAhead},
		{elapsed: 4.6, want: TimingOnTrack},
		{elapsed: 5.5, want: TimingOnTrack},
		{elapsed: 5.6, want: TimingBehind},
	}
	for _, tt := range tests {
		if got := TimingStatus(tt.elapsed, 5); got != tt.want {
			t.Fatalf("TimingStatus(%v, 5) = %s, want %s", tt.elapsed, got, tt.want)
		}
	}
}

func TestTimingStatusMonotonic(t *testing.T) {
	rank := map[Timing]int{TimingAhead: 0, TimingOnTrack: 1, TimingBehind: 2}
	prev := -1
	for elapsed := 0.0; elapsed <= 20; elapsed += 0.1 {
		r := rank[TimingStatus(elapsed, 7.5)]
		if r < prev {
			t.Fatalf("status went backwards at elapsed %v", elapsed)
		}
		prev = r
	}
}

func TestStageTimingUnavailableForBadDates(t *testing.T) {
	b := Bid{Deadline: "not-a-date", ReceivedDate: "2024-01-01", CurrentStage: StageIntake}
	if _, ok := StageTiming(b, StageIntake, time.Now()); ok {
		t.Fatalf("expected timing to be unavailable")
	}
	if _, ok := PhaseTargetsForBid(Bid{}); ok {
		t.Fatalf("expected targets to be unavailable for empty dates")
	}
	progress := ProgressOf(b, time.Now())
	if progress.Timing != nil || progress.Targets != nil {
		t.Fatalf("expected progress without timing data")
	}
}
