package bids

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"bidsflow-backend/internal/audit"
	"bidsflow-backend/internal/shared/metrics"
	"bidsflow-backend/internal/shared/telemetry"
	"bidsflow-backend/internal/shared/util"
)

// Service contains business logic for bids. All writes for one bid go through
// Mutate, which serializes them in process.
type Service struct {
	Repo  Repo
	Audit audit.Sink
	Now   func() time.Time

	locks util.KeyedMutex
}

// CreateInput holds the fields accepted when a bid is created.
type CreateInput struct {
	CustomerName          string
	ProjectName           string
	Deadline              string
	ReceivedDate          string
	Complexity            Complexity
	RiskLevel             string
	EstimatedValue        float64
	Currency              string
	QualificationCriteria string
	ContractDuration      string
	TechnicalChecklist    []ChecklistItem
	ComplianceChecklist   []ChecklistItem
	FinancialFormats      []FinancialRow
}

// UpdateInput holds optional header edits. Nil fields are left untouched.
type UpdateInput struct {
	CustomerName          *string
	ProjectName           *string
	Deadline              *string
	ReceivedDate          *string
	Complexity            *Complexity
	RiskLevel             *string
	EstimatedValue        *float64
	Currency              *string
	QualificationCriteria *string
	ContractDuration      *string
}

func (s *Service) now() time.Time {
	if s.Now != nil {
		return s.Now().UTC()
	}
	return time.Now().UTC()
}

// Create registers a new bid at Intake with a single history entry.
func (s *Service) Create(ctx context.Context, actor string, in CreateInput) (Bid, error) {
	if strings.TrimSpace(in.ProjectName) == "" {
		return Bid{}, fmt.Errorf("%w: projectName is required", ErrInvalidInput)
	}
	now := s.now()
	received := strings.TrimSpace(in.ReceivedDate)
	if received == "" {
		received = now.Format("2006-01-02")
	}
	if err := validateDates(in.Deadline, received); err != nil {
		return Bid{}, err
	}

	bid := Bid{
		ID:                              uuid.NewString(),
		CustomerName:                    strings.TrimSpace(in.CustomerName),
		ProjectName:                     strings.TrimSpace(in.ProjectName),
		Deadline:                        strings.TrimSpace(in.Deadline),
		ReceivedDate:                    received,
		Status:                          StatusActive,
		CurrentStage:                    StageIntake,
		StageHistory:                    []StageTransition{{Stage: StageIntake, Timestamp: now}},
		Complexity:                      NormalizeComplexity(in.Complexity),
		RiskLevel:                       strings.TrimSpace(in.RiskLevel),
		EstimatedValue:                  in.EstimatedValue,
		Currency:                        strings.TrimSpace(in.Currency),
		QualificationCriteria:           strings.TrimSpace(in.QualificationCriteria),
		ContractDuration:                strings.TrimSpace(in.ContractDuration),
		TechnicalQualificationChecklist: withIDs(in.TechnicalChecklist),
		ComplianceChecklist:             withIDs(in.ComplianceChecklist),
		FinancialFormats:                append([]FinancialRow(nil), in.FinancialFormats...),
		CreatedBy:                       actor,
		CreatedAt:                       now,
		UpdatedAt:                       now,
	}
	bid = Normalize(bid)

	if err := s.Repo.Create(ctx, bid); err != nil {
		return Bid{}, err
	}
	metrics.IncBidsCreated()
	s.record(ctx, audit.Event{
		BidID:       bid.ID,
		ProjectName: bid.ProjectName,
		ChangeType:  audit.ChangeEdit,
		Actor:       actor,
		Action:      "bid.created",
		NewValue:    string(bid.CurrentStage),
	})
	return bid, nil
}

// Get returns a bid by ID.
func (s *Service) Get(ctx context.Context, bidID string) (Bid, error) {
	if strings.TrimSpace(bidID) == "" {
		return Bid{}, fmt.Errorf("%w: bid id is required", ErrInvalidInput)
	}
	bid, err := s.Repo.GetByID(ctx, bidID)
	if err != nil {
		return Bid{}, err
	}
	return Normalize(bid), nil
}

// List returns bids newest first.
func (s *Service) List(ctx context.Context, filter ListFilter) ([]Bid, error) {
	out, err := s.Repo.List(ctx, filter)
	if err != nil {
		return nil, err
	}
	for i := range out {
		out[i] = Normalize(out[i])
	}
	return out, nil
}

// Mutate loads the latest snapshot of a bid, applies fn and persists the
// result. Concurrent calls for the same bid run one after another.
func (s *Service) Mutate(ctx context.Context, bidID string, fn func(Bid) (Bid, error)) (Bid, error) {
	unlock := s.locks.Lock(bidID)
	defer unlock()

	current, err := s.Repo.GetByID(ctx, bidID)
	if err != nil {
		return Bid{}, err
	}
	next, err := fn(Normalize(current))
	if err != nil {
		return Bid{}, err
	}
	next.ID = current.ID
	next.UpdatedAt = s.now()
	next = Normalize(next)
	if err := s.Repo.Update(ctx, next); err != nil {
		return Bid{}, err
	}
	return next, nil
}

// Update edits header fields of a bid.
func (s *Service) Update(ctx context.Context, actor, bidID string, in UpdateInput) (Bid, error) {
	var changed []string
	bid, err := s.Mutate(ctx, bidID, func(b Bid) (Bid, error) {
		out := b.Clone()
		setString(&out.CustomerName, in.CustomerName, "customerName", &changed)
		setString(&out.ProjectName, in.ProjectName, "projectName", &changed)
		setString(&out.Deadline, in.Deadline, "deadline", &changed)
		setString(&out.ReceivedDate, in.ReceivedDate, "receivedDate", &changed)
		setString(&out.RiskLevel, in.RiskLevel, "riskLevel", &changed)
		setString(&out.Currency, in.Currency, "currency", &changed)
		setString(&out.QualificationCriteria, in.QualificationCriteria, "qualificationCriteria", &changed)
		setString(&out.ContractDuration, in.ContractDuration, "contractDuration", &changed)
		if in.Complexity != nil {
			out.Complexity = NormalizeComplexity(*in.Complexity)
			changed = append(changed, "complexity")
		}
		if in.EstimatedValue != nil {
			out.EstimatedValue = *in.EstimatedValue
			changed = append(changed, "estimatedValue")
		}
		if strings.TrimSpace(out.ProjectName) == "" {
			return b, fmt.Errorf("%w: projectName is required", ErrInvalidInput)
		}
		if err := validateDates(out.Deadline, out.ReceivedDate); err != nil {
			return b, err
		}
		return out, nil
	})
	if err != nil {
		return Bid{}, err
	}
	if len(changed) > 0 {
		s.record(ctx, audit.Event{
			BidID:       bid.ID,
			ProjectName: bid.ProjectName,
			ChangeType:  audit.ChangeEdit,
			Actor:       actor,
			Action:      "bid.updated",
			Details:     map[string]any{"fields": changed},
		})
	}
	return bid, nil
}

// Delete removes a bid.
func (s *Service) Delete(ctx context.Context, actor, bidID string) error {
	if err := s.Repo.Delete(ctx, bidID); err != nil {
		return err
	}
	s.record(ctx, audit.Event{
		BidID:      bidID,
		ChangeType: audit.ChangeEdit,
		Actor:      actor,
		Action:     "bid.deleted",
	})
	return nil
}

// Advance moves the bid to its next stage.
func (s *Service) Advance(ctx context.Context, actor, bidID string) (Bid, StageTransitionEvent, error) {
	var event StageTransitionEvent
	bid, err := s.Mutate(ctx, bidID, func(b Bid) (Bid, error) {
		out, ev, err := Advance(b, s.now())
		if err != nil {
			return b, err
		}
		event = ev
		return out, nil
	})
	if err != nil {
		return Bid{}, StageTransitionEvent{}, err
	}
	metrics.IncStageAdvanced()
	s.record(ctx, audit.Event{
		BidID:         bid.ID,
		ProjectName:   bid.ProjectName,
		ChangeType:    audit.ChangeStage,
		Actor:         actor,
		Action:        "stage.advanced",
		PreviousValue: string(event.From),
		NewValue:      string(event.To),
	})
	bid.ViewingStage = bid.CurrentStage
	return bid, event, nil
}

// SetStatus applies a lifecycle status such as Submitted, Won, Lost or No Bid.
func (s *Service) SetStatus(ctx context.Context, actor, bidID string, change StatusChange) (Bid, error) {
	var event StatusChangeEvent
	bid, err := s.Mutate(ctx, bidID, func(b Bid) (Bid, error) {
		out, ev, err := SetStatus(b, change, s.now())
		if err != nil {
			return b, err
		}
		event = ev
		return out, nil
	})
	if err != nil {
		return Bid{}, err
	}
	s.record(ctx, audit.Event{
		BidID:         bid.ID,
		ProjectName:   bid.ProjectName,
		ChangeType:    audit.ChangeStatus,
		Actor:         actor,
		Action:        "status.changed",
		PreviousValue: string(event.From),
		NewValue:      string(event.To),
		Details:       map[string]any{"stage": string(event.Stage)},
	})
	return bid, nil
}

// SetChecklistItemStatus toggles a checklist entry by ID.
func (s *Service) SetChecklistItemStatus(ctx context.Context, actor, bidID, itemID string, status ChecklistStatus) (Bid, error) {
	bid, err := s.Mutate(ctx, bidID, func(b Bid) (Bid, error) {
		return SetChecklistItemStatus(b, itemID, status)
	})
	if err != nil {
		return Bid{}, err
	}
	s.record(ctx, audit.Event{
		BidID:       bid.ID,
		ProjectName: bid.ProjectName,
		ChangeType:  audit.ChangeEdit,
		Actor:       actor,
		Action:      "checklist.updated",
		NewValue:    string(status),
		Details:     map[string]any{"item_id": itemID},
	})
	return bid, nil
}

// SetApproval records the management approval status.
func (s *Service) SetApproval(ctx context.Context, actor, bidID, status string) (Bid, error) {
	status = strings.TrimSpace(status)
	if status == "" {
		return Bid{}, fmt.Errorf("%w: approval status is required", ErrInvalidInput)
	}
	var prev string
	bid, err := s.Mutate(ctx, bidID, func(b Bid) (Bid, error) {
		prev = b.ManagementApprovalStatus
		b.ManagementApprovalStatus = status
		return b, nil
	})
	if err != nil {
		return Bid{}, err
	}
	s.record(ctx, audit.Event{
		BidID:         bid.ID,
		ProjectName:   bid.ProjectName,
		ChangeType:    audit.ChangeApproval,
		Actor:         actor,
		Action:        "approval.changed",
		PreviousValue: prev,
		NewValue:      status,
	})
	return bid, nil
}

// SetIntegrityWeights overrides the integrity weights; nil restores the defaults.
func (s *Service) SetIntegrityWeights(ctx context.Context, actor, bidID string, weights *IntegrityWeights) (Bid, error) {
	if weights != nil {
		if weights.Technical < 0 || weights.Compliance < 0 || weights.Commercial < 0 || weights.Legal < 0 {
			return Bid{}, fmt.Errorf("%w: weights must not be negative", ErrInvalidInput)
		}
		if weights.Sum() != 100 {
			telemetry.Info("bid.integrity_weights.non_standard_sum", map[string]any{
				"bid_id": bidID,
				"sum":    weights.Sum(),
			})
		}
	}
	bid, err := s.Mutate(ctx, bidID, func(b Bid) (Bid, error) {
		if weights == nil {
			b.IntegrityScoreBreakdown = nil
			return b, nil
		}
		w := *weights
		b.IntegrityScoreBreakdown = &w
		return b, nil
	})
	if err != nil {
		return Bid{}, err
	}
	s.record(ctx, audit.Event{
		BidID:       bid.ID,
		ProjectName: bid.ProjectName,
		ChangeType:  audit.ChangeEdit,
		Actor:       actor,
		Action:      "integrity_weights.updated",
	})
	return bid, nil
}

// RemoveDocument deletes a technical document by ID.
func (s *Service) RemoveDocument(ctx context.Context, actor, bidID, docID string) (Bid, TechnicalDocument, error) {
	var removed TechnicalDocument
	bid, err := s.Mutate(ctx, bidID, func(b Bid) (Bid, error) {
		out, doc, err := RemoveDocument(b, docID)
		if err != nil {
			return b, err
		}
		removed = doc
		return out, nil
	})
	if err != nil {
		return Bid{}, TechnicalDocument{}, err
	}
	s.record(ctx, audit.Event{
		BidID:         bid.ID,
		ProjectName:   bid.ProjectName,
		ChangeType:    audit.ChangeDocumentUpload,
		Actor:         actor,
		Action:        "document.removed",
		PreviousValue: removed.Name,
	})
	return bid, removed, nil
}

// View returns the bid with its viewing cursor set and the progress projection
// for that stage. An empty stage views the current stage. Nothing is persisted.
func (s *Service) View(ctx context.Context, bidID, stage string) (Bid, Progress, error) {
	bid, err := s.Get(ctx, bidID)
	if err != nil {
		return Bid{}, Progress{}, err
	}
	viewing := bid.CurrentStage
	if strings.TrimSpace(stage) != "" {
		viewing, err = ParseStage(stage)
		if err != nil {
			return Bid{}, Progress{}, err
		}
	}
	bid, err = SetViewingStage(bid, viewing)
	if err != nil {
		return Bid{}, Progress{}, err
	}
	return bid, ProgressOf(bid, s.now()), nil
}

func (s *Service) record(ctx context.Context, event audit.Event) {
	if s.Audit == nil {
		return
	}
	if event.ID == "" {
		event.ID = uuid.NewString()
	}
	if event.At.IsZero() {
		event.At = s.now()
	}
	if err := s.Audit.Record(ctx, event); err != nil {
		telemetry.Error("audit.record_failed", map[string]any{
			"bid_id": event.BidID,
			"action": event.Action,
			"error":  err.Error(),
		})
	}
}

// Normalize replaces nil collections with empty ones and defaults the status,
// stage and complexity.
func Normalize(b Bid) Bid {
	if b.StageHistory == nil {
		b.StageHistory = []StageTransition{}
	}
	if b.TechnicalQualificationChecklist == nil {
		b.TechnicalQualificationChecklist = []ChecklistItem{}
	}
	if b.ComplianceChecklist == nil {
		b.ComplianceChecklist = []ChecklistItem{}
	}
	if b.FinancialFormats == nil {
		b.FinancialFormats = []FinancialRow{}
	}
	if b.TechnicalDocuments == nil {
		b.TechnicalDocuments = []TechnicalDocument{}
	}
	if b.Status == "" {
		b.Status = StatusActive
	}
	if !b.CurrentStage.Valid() {
		b.CurrentStage = StageIntake
	}
	b.Complexity = NormalizeComplexity(b.Complexity)
	return b
}

func withIDs(items []ChecklistItem) []ChecklistItem {
	out := make([]ChecklistItem, 0, len(items))
	for _, item := range items {
		if strings.TrimSpace(item.ID) == "" {
			item.ID = uuid.NewString()
		}
		if item.Status == "" {
			item.Status = ChecklistPending
		}
		out = append(out, item)
	}
	return out
}

func validateDates(deadline, received string) error {
	if strings.TrimSpace(deadline) != "" {
		if _, ok := ParseDate(deadline); !ok {
			return fmt.Errorf("%w: deadline must be YYYY-MM-DD", ErrInvalidInput)
		}
	}
	if strings.TrimSpace(received) != "" {
		if _, ok := ParseDate(received); !ok {
			return fmt.Errorf("%w: receivedDate must be YYYY-MM-DD", ErrInvalidInput)
		}
	}
	return nil
}

func setString(dst *string, val *string, field string, changed *[]string) {
	if val == nil {
		return
	}
	trimmed := strings.TrimSpace(*val)
	if trimmed == *dst {
		return
	}
	*dst = trimmed
	*changed = append(*changed, field)
}

// IsNotFound reports whether err means the bid or one of its parts is missing.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound) || errors.Is(err, ErrItemNotFound) || errors.Is(err, ErrDocumentNotFound)
}
