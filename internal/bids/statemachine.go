package bids

import (
	"fmt"
	"strings"
	"time"
)

// StageTransitionEvent is emitted when a bid's current stage advances.
type StageTransitionEvent struct {
	BidID string    `json:"bidId"`
	From  Stage     `json:"from"`
	To    Stage     `json:"to"`
	At    time.Time `json:"at"`
}

// StatusChangeEvent is emitted when a bid's lifecycle status changes.
type StatusChangeEvent struct {
	BidID string    `json:"bidId"`
	From  Status    `json:"from"`
	To    Status    `json:"to"`
	Stage Stage     `json:"stage"`
	At    time.Time `json:"at"`
}

// Advance moves the bid to the next stage and appends it to the history.
// Advancing from the last stage, from an unknown stage, or on a bid with a
// terminal status fails with ErrInvalidTransition and leaves the bid unchanged.
func Advance(b Bid, now time.Time) (Bid, StageTransitionEvent, error) {
	if b.Status.IsTerminal() {
		return b, StageTransitionEvent{}, &TransitionError{Stage: b.CurrentStage, Status: b.Status}
	}
	next, ok := b.CurrentStage.Next()
	if !ok {
		return b, StageTransitionEvent{}, &TransitionError{Stage: b.CurrentStage}
	}

	out := b.Clone()
	out.StageHistory = append(out.StageHistory, StageTransition{Stage: next, Timestamp: now.UTC()})
	out.CurrentStage = next
	out.ViewingStage = next
	return out, StageTransitionEvent{BidID: b.ID, From: b.CurrentStage, To: next, At: now.UTC()}, nil
}

// SetViewingStage moves the navigation cursor to any stage. It never touches
// the history or the current stage.
func SetViewingStage(b Bid, stage Stage) (Bid, error) {
	if !stage.Valid() {
		return b, ErrUnknownStage
	}
	b.ViewingStage = stage
	return b, nil
}

// ViewMode describes the viewing cursor relative to the current stage.
type ViewMode string

const (
	ViewCurrent ViewMode = "current"
	ViewPreview ViewMode = "preview"
	ViewReview  ViewMode = "review"
)

// ViewModeOf reports whether the bid is viewed at, ahead of, or behind its current stage.
func ViewModeOf(b Bid) ViewMode {
	viewing := b.ViewingStage
	if !viewing.Valid() {
		return ViewCurrent
	}
	vi, ci := viewing.Index(), b.CurrentStage.Index()
	switch {
	case vi > ci:
		return ViewPreview
	case vi < ci:
		return ViewReview
	default:
		return ViewCurrent
	}
}

// StatusChange carries the details recorded with a new lifecycle status.
type StatusChange struct {
	Status              Status
	NoBidReasonCategory string
	NoBidComments       string
	CompetitionPricing  string
	KeyLearnings        string
}

// SetStatus applies a lifecycle status. The stage history is never modified.
func SetStatus(b Bid, change StatusChange, now time.Time) (Bid, StatusChangeEvent, error) {
	switch change.Status {
	case StatusActive, StatusSubmitted, StatusWon, StatusLost, StatusNoBid:
	default:
		return b, StatusChangeEvent{}, ErrInvalidStatus
	}
	if change.Status == StatusNoBid && strings.TrimSpace(change.NoBidReasonCategory) == "" {
		return b, StatusChangeEvent{}, fmt.Errorf("%w: no-bid reason category is required", ErrInvalidInput)
	}

	out := b.Clone()
	prev := out.Status
	out.Status = change.Status
	switch change.Status {
	case StatusSubmitted:
		at := now.UTC()
		out.Outcome.SubmissionDate = &at
	case StatusNoBid:
		out.Outcome.NoBidStage = out.CurrentStage
		out.Outcome.NoBidReasonCategory = strings.TrimSpace(change.NoBidReasonCategory)
		out.Outcome.NoBidComments = strings.TrimSpace(change.NoBidComments)
	case StatusWon, StatusLost:
		out.Outcome.CompetitionPricing = strings.TrimSpace(change.CompetitionPricing)
		out.Outcome.KeyLearnings = strings.TrimSpace(change.KeyLearnings)
	}
	return out, StatusChangeEvent{
		BidID: b.ID,
		From:  prev,
		To:    change.Status,
		Stage: out.CurrentStage,
		At:    now.UTC(),
	}, nil
}

// ValidateHistory checks that entries are non-decreasing in stage order and time.
func ValidateHistory(history []StageTransition) error {
	for i, entry := range history {
		if !entry.Stage.Valid() {
			return fmt.Errorf("%w: history entry %d has unknown stage %q", ErrInvalidInput, i, entry.Stage)
		}
		if i == 0 {
			continue
		}
		prev := history[i-1]
		if entry.Stage.Index() < prev.Stage.Index() {
			return fmt.Errorf("%w: history entry %d goes back from %s to %s", ErrInvalidInput, i, prev.Stage, entry.Stage)
		}
		if entry.Timestamp.Before(prev.Timestamp) {
			return fmt.Errorf("%w: history entry %d precedes entry %d", ErrInvalidInput, i, i-1)
		}
	}
	return nil
}
