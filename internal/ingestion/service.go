package ingestion

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/google/uuid"

	"bidsflow-backend/internal/analyzer"
	"bidsflow-backend/internal/audit"
	"bidsflow-backend/internal/bids"
	"bidsflow-backend/internal/queue"
	"bidsflow-backend/internal/shared/metrics"
	"bidsflow-backend/internal/shared/storage/object"
	"bidsflow-backend/internal/shared/telemetry"
	"bidsflow-backend/internal/shared/util"
)

const maxJobPayloadBytes = 100 << 20

// Service accepts uploads as ingestion jobs and runs them through the
// pipeline, either in process or through the job queue.
type Service struct {
	Repo     Repo
	Pipeline *Pipeline
	Store    object.ObjectStore
	// Queue hands jobs to the worker. When nil jobs run in a goroutine.
	Queue queue.Client
	Audit audit.Sink
	Now   func() time.Time
	// AnalyzerFor, when set, supplies a collaborator scoped to one job so
	// its logs carry the job and request ids.
	AnalyzerFor func(jobID, requestID string) analyzer.Analyzer

	locks util.KeyedMutex
}

// SubmitInput describes an uploaded payload.
type SubmitInput struct {
	BidID       string
	Kind        string
	Category    string
	FileName    string
	MimeType    string
	RequestedBy string
}

func (s *Service) now() time.Time {
	if s.Now != nil {
		return s.Now().UTC()
	}
	return time.Now().UTC()
}

// Submit stores the payload and creates a queued job for it.
func (s *Service) Submit(ctx context.Context, in SubmitInput, r io.Reader) (Job, error) {
	in, err := s.validate(ctx, in)
	if err != nil {
		return Job{}, err
	}
	if s.Store == nil {
		return Job{}, errors.New("storage: object store not configured")
	}
	key, size, mimeType, err := s.Store.Save(ctx, "bids/"+in.BidID+"/uploads", in.FileName, r)
	if err != nil {
		return Job{}, fmt.Errorf("storage: save upload: %w", err)
	}
	if strings.TrimSpace(in.MimeType) == "" {
		in.MimeType = mimeType
	}
	return s.create(ctx, in, key, size)
}

// SubmitFromKey creates a job for a payload already uploaded to the object
// store, for example through a presigned URL.
func (s *Service) SubmitFromKey(ctx context.Context, in SubmitInput, storageKey string, sizeBytes int64) (Job, error) {
	storageKey = strings.TrimSpace(storageKey)
	if storageKey == "" {
		return Job{}, fmt.Errorf("%w: storageKey is required", ErrInvalidInput)
	}
	if sizeBytes <= 0 {
		return Job{}, fmt.Errorf("%w: sizeBytes must be positive", ErrInvalidInput)
	}
	in, err := s.validate(ctx, in)
	if err != nil {
		return Job{}, err
	}
	return s.create(ctx, in, storageKey, sizeBytes)
}

func (s *Service) validate(ctx context.Context, in SubmitInput) (SubmitInput, error) {
	in.BidID = strings.TrimSpace(in.BidID)
	in.FileName = strings.TrimSpace(in.FileName)
	if in.BidID == "" {
		return in, fmt.Errorf("%w: bid id is required", ErrInvalidInput)
	}
	if in.FileName == "" {
		return in, fmt.Errorf("%w: file name is required", ErrInvalidInput)
	}
	switch in.Kind {
	case "":
		in.Kind = KindDocument
	case KindDocument, KindArchive:
	default:
		return in, fmt.Errorf("%w: unknown kind %q", ErrInvalidInput, in.Kind)
	}
	category, ok := ParseCategory(in.Category)
	if !ok {
		return in, fmt.Errorf("%w: unknown category %q", ErrInvalidInput, in.Category)
	}
	in.Category = category
	if s.Pipeline == nil || s.Pipeline.Bids == nil {
		return in, errors.New("ingestion pipeline not configured")
	}
	if _, err := s.Pipeline.Bids.Get(ctx, in.BidID); err != nil {
		return in, err
	}
	return in, nil
}

func (s *Service) create(ctx context.Context, in SubmitInput, storageKey string, size int64) (Job, error) {
	job := Job{
		ID:          uuid.NewString(),
		BidID:       in.BidID,
		Kind:        in.Kind,
		Category:    in.Category,
		FileName:    in.FileName,
		MimeType:    in.MimeType,
		StorageKey:  storageKey,
		SizeBytes:   size,
		Status:      StatusQueued,
		RequestedBy: in.RequestedBy,
		CreatedAt:   s.now(),
	}
	if err := s.Repo.Create(ctx, job); err != nil {
		return Job{}, err
	}
	s.record(ctx, audit.Event{
		BidID:      job.BidID,
		ChangeType: audit.ChangeDocumentUpload,
		Actor:      job.RequestedBy,
		Action:     fmt.Sprintf("Uploaded %s (%s)", job.FileName, job.Category),
		NewValue:   job.FileName,
		Details:    map[string]any{"jobId": job.ID, "kind": job.Kind},
	})

	if s.Queue != nil {
		msg := queue.NewJobMessage(job.ID, job.BidID, requestIDFromContext(ctx), s.now())
		if err := s.Queue.Send(ctx, msg); err != nil {
			s.failJob(ctx, job, fmt.Errorf("enqueue job: %w", err), nil, nil)
			return Job{}, fmt.Errorf("enqueue job: %w", err)
		}
		return job, nil
	}

	go s.completeAsync(backgroundWithRequestID(ctx), job.ID)
	return job, nil
}

// Get returns a job by ID.
func (s *Service) Get(ctx context.Context, jobID string) (Job, error) {
	if strings.TrimSpace(jobID) == "" {
		return Job{}, fmt.Errorf("%w: job id is required", ErrInvalidInput)
	}
	return s.Repo.GetByID(ctx, jobID)
}

// ListByBid returns the most recent jobs of a bid.
func (s *Service) ListByBid(ctx context.Context, bidID string, limit int) ([]Job, error) {
	if strings.TrimSpace(bidID) == "" {
		return nil, fmt.Errorf("%w: bid id is required", ErrInvalidInput)
	}
	return s.Repo.ListByBid(ctx, bidID, limit)
}

// ProcessJob runs a queued job to completion. Jobs that already finished are
// ignored so redelivered messages are harmless. The returned error is non-nil
// only when the failure is worth retrying.
func (s *Service) ProcessJob(ctx context.Context, jobID string) error {
	job, err := s.Repo.GetByID(ctx, jobID)
	if err != nil {
		return err
	}
	if job.Done() {
		telemetry.Info("ingestion.skip_done", map[string]any{
			"request_id": requestIDFromContext(ctx),
			"job_id":     job.ID,
			"status":     job.Status,
		})
		return nil
	}
	return s.run(ctx, job)
}

func (s *Service) completeAsync(ctx context.Context, jobID string) {
	job, err := s.Repo.GetByID(ctx, jobID)
	if err != nil {
		telemetry.Error("ingestion.lookup_failed", map[string]any{
			"request_id": requestIDFromContext(ctx),
			"job_id":     jobID,
			"error":      err.Error(),
		})
		return
	}
	_ = s.run(ctx, job)
}

func (s *Service) pipelineFor(ctx context.Context, job Job) *Pipeline {
	if s.AnalyzerFor == nil {
		return s.Pipeline
	}
	p := *s.Pipeline
	p.Analyzer = s.AnalyzerFor(job.ID, requestIDFromContext(ctx))
	return &p
}

func (s *Service) run(ctx context.Context, job Job) (err error) {
	unlock := s.locks.Lock(job.BidID)
	defer unlock()

	startedAt := s.now()
	defer func() {
		if r := recover(); r != nil {
			err = s.failJob(ctx, job, fmt.Errorf("panic: %v", r), &startedAt, nil)
		}
	}()

	if err := s.Repo.UpdateStatus(ctx, job.ID, StatusUpdate{Status: StatusProcessing, StartedAt: &startedAt}); err != nil {
		return s.failJob(ctx, job, fmt.Errorf("set processing failed: %w", err), &startedAt, nil)
	}
	metrics.IncIngestionStarted()
	telemetry.Info("ingestion.status", map[string]any{
		"request_id":        requestIDFromContext(ctx),
		"job_id":            job.ID,
		"bid_id":            job.BidID,
		"kind":              job.Kind,
		"status":            StatusProcessing,
		"status_transition": "queued->processing",
	})

	data, err := s.load(ctx, job.StorageKey)
	if err != nil {
		return s.failJob(ctx, job, err, &startedAt, nil)
	}
	up := Upload{
		Name:       job.FileName,
		MimeType:   job.MimeType,
		Category:   job.Category,
		Data:       data,
		StorageKey: job.StorageKey,
		SizeBytes:  job.SizeBytes,
	}

	var outcome Outcome
	switch job.Kind {
	case KindArchive:
		_, outcome, err = s.pipelineFor(ctx, job).IngestArchive(ctx, job.BidID, up)
	default:
		_, outcome, err = s.pipelineFor(ctx, job).IngestDocument(ctx, job.BidID, up)
	}
	if err != nil {
		return s.failJob(ctx, job, err, &startedAt, &outcome)
	}

	completedAt := s.now()
	if err := s.Repo.UpdateStatus(ctx, job.ID, StatusUpdate{Status: StatusCompleted, Outcome: &outcome, CompletedAt: &completedAt}); err != nil {
		return s.failJob(ctx, job, fmt.Errorf("set job result failed: %w", err), &startedAt, &outcome)
	}
	metrics.IncIngestionCompleted()
	metrics.ObserveIngestionDurationMs(durationMs(&startedAt, &completedAt))
	telemetry.Info("ingestion.status", map[string]any{
		"request_id":        requestIDFromContext(ctx),
		"job_id":            job.ID,
		"bid_id":            job.BidID,
		"status":            StatusCompleted,
		"status_transition": "processing->completed",
		"partial":           outcome.Partial(),
		"duration_ms":       durationMs(&startedAt, &completedAt),
	})
	s.record(ctx, audit.Event{
		BidID:      job.BidID,
		ChangeType: audit.ChangeIngestion,
		Actor:      job.RequestedBy,
		Action:     fmt.Sprintf("Ingested %s", job.FileName),
		NewValue:   StatusCompleted,
		Details:    map[string]any{"jobId": job.ID, "steps": outcome.Steps},
	})
	return nil
}

func (s *Service) load(ctx context.Context, key string) ([]byte, error) {
	if s.Store == nil {
		return nil, errors.New("storage: object store not configured")
	}
	rc, err := s.Store.Open(ctx, key)
	if err != nil {
		return nil, fmt.Errorf("storage: open %s: %w", key, err)
	}
	defer rc.Close()
	data, err := io.ReadAll(io.LimitReader(rc, maxJobPayloadBytes+1))
	if err != nil {
		return nil, fmt.Errorf("storage: read %s: %w", key, err)
	}
	if len(data) > maxJobPayloadBytes {
		return nil, fmt.Errorf("%w: %s", ErrPayloadTooLarge, key)
	}
	return data, nil
}

// failJob records the failure and returns err when it is retryable.
func (s *Service) failJob(ctx context.Context, job Job, err error, startedAt *time.Time, outcome *Outcome) error {
	code, retryable := classifyFailure(err)
	msg := sanitizeError(err)
	completedAt := s.now()
	update := StatusUpdate{
		Status:       StatusFailed,
		Outcome:      outcome,
		ErrorCode:    &code,
		ErrorMessage: &msg,
		Retryable:    &retryable,
		CompletedAt:  &completedAt,
	}
	if updateErr := s.Repo.UpdateStatus(context.Background(), job.ID, update); updateErr != nil {
		telemetry.Error("ingestion.fail_update", map[string]any{
			"job_id": job.ID,
			"error":  updateErr.Error(),
			"cause":  msg,
		})
	}
	metrics.IncIngestionFailed()
	if startedAt != nil {
		metrics.ObserveIngestionDurationMs(durationMs(startedAt, &completedAt))
	}
	telemetry.Info("ingestion.status", map[string]any{
		"request_id":        requestIDFromContext(ctx),
		"job_id":            job.ID,
		"bid_id":            job.BidID,
		"status":            StatusFailed,
		"status_transition": "processing->failed",
		"error_code":        code,
		"retryable":         retryable,
		"duration_ms":       durationMs(startedAt, &completedAt),
	})
	s.record(ctx, audit.Event{
		BidID:      job.BidID,
		ChangeType: audit.ChangeIngestion,
		Actor:      job.RequestedBy,
		Action:     fmt.Sprintf("Ingestion of %s failed", job.FileName),
		NewValue:   StatusFailed,
		Details:    map[string]any{"jobId": job.ID, "errorCode": code},
	})
	if retryable {
		return err
	}
	return nil
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

func durationMs(startedAt, completedAt *time.Time) float64 {
	if startedAt == nil || completedAt == nil {
		return 0
	}
	return float64(completedAt.Sub(*startedAt).Microseconds()) / 1000.0
}

func classifyFailure(err error) (string, bool) {
	if err == nil {
		return ErrorCodeInternal, false
	}
	switch {
	case errors.Is(err, ErrNoEligibleFiles):
		return ErrorCodeNoEligibleFiles, false
	case errors.Is(err, ErrInvalidArchive), errors.Is(err, ErrPayloadTooLarge), errors.Is(err, ErrInvalidInput):
		return ErrorCodeValidation, false
	case errors.Is(err, bids.ErrNotFound):
		return ErrorCodeBidNotFound, false
	case errors.Is(err, context.DeadlineExceeded):
		return ErrorCodeLLMTimeout, true
	}
	msg := strings.ToLower(err.Error())
	if strings.Contains(msg, "storage") || strings.Contains(msg, "set processing") || strings.Contains(msg, "job result") || strings.Contains(msg, "enqueue") {
		return ErrorCodeStorage, true
	}
	return ErrorCodeInternal, false
}

func sanitizeError(err error) string {
	if err == nil {
		return ""
	}
	msg := strings.TrimSpace(err.Error())
	msg = strings.ReplaceAll(msg, "\n", " ")
	msg = strings.ReplaceAll(msg, "\r", " ")
	if len(msg) > 500 {
		msg = msg[:500]
	}
	return msg
}
