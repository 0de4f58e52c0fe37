package ingestion

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
)

var jobColumnNames = []string{
	"id", "bid_id", "kind", "category", "file_name", "mime_type", "storage_key", "size_bytes", "status",
	"outcome", "error_code", "error_message", "error_retryable", "requested_by", "created_at", "started_at", "completed_at",
}

func newMockRepo(t *testing.T) (*PGRepo, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })
	return &PGRepo{DB: db}, mock
}

func TestPGRepoCreate(t *testing.T) {
	repo, mock := newMockRepo(t)
	now := time.Now().UTC()
	job := Job{
		ID:          "job-1",
		BidID:       "bid-1",
		Kind:        KindArchive,
		Category:    CategoryTechnical,
		FileName:    "bundle.zip",
		MimeType:    "application/zip",
		StorageKey:  "bids_bid-1/abc_bundle.zip",
		SizeBytes:   2048,
		Status:      StatusQueued,
		RequestedBy: "user-1",
		CreatedAt:   now,
	}

	mock.ExpectExec("INSERT INTO ingestion_jobs").
		WithArgs("job-1", "bid-1", "archive", "Technical", "bundle.zip", "application/zip", job.StorageKey, int64(2048), "queued", "user-1", now).
		WillReturnResult(sqlmock.NewResult(1, 1))

	if err := repo.Create(context.Background(), job); err != nil {
		t.Fatalf("Create: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestPGRepoGetByIDDecodesOutcome(t *testing.T) {
	repo, mock := newMockRepo(t)
	created := time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)
	started := created.Add(time.Second)

	rows := sqlmock.NewRows(jobColumnNames).AddRow(
		"job-1", "bid-1", "document", "Pricing", "boq.xlsx", nil, "key", int64(10), "completed",
		[]byte(`{"steps":[{"name":"pricing.merge","status":"failed","detail":"timeout"}]}`),
		nil, nil, nil, "user-1", created, started, nil,
	)
	mock.ExpectQuery("SELECT .* FROM ingestion_jobs").WithArgs("job-1").WillReturnRows(rows)

	job, err := repo.GetByID(context.Background(), "job-1")
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if job.Outcome == nil || !job.Outcome.Partial() || job.Outcome.Steps[0].Name != StepPricingMerge {
		t.Fatalf("unexpected outcome: %+v", job.Outcome)
	}
	if job.StartedAt == nil || !job.StartedAt.Equal(started) || job.CompletedAt != nil || job.ErrorCode != nil {
		t.Fatalf("unexpected nullable fields: %+v", job)
	}
}

func TestPGRepoGetByIDNotFound(t *testing.T) {
	repo, mock := newMockRepo(t)
	mock.ExpectQuery("SELECT .* FROM ingestion_jobs").WithArgs("missing").WillReturnRows(sqlmock.NewRows(jobColumnNames))

	if _, err := repo.GetByID(context.Background(), "missing"); !errors.Is(err, ErrJobNotFound) {
		t.Fatalf("expected ErrJobNotFound, got %v", err)
	}
}

func TestPGRepoUpdateStatus(t *testing.T) {
	repo, mock := newMockRepo(t)
	code := ErrorCodeStorage
	msg := "storage: open key: missing"
	retryable := true
	completed := time.Now().UTC()

	mock.ExpectExec("UPDATE ingestion_jobs").
		WithArgs("job-1", StatusFailed, nil, code, msg, true, nil, completed).
		WillReturnResult(sqlmock.NewResult(0, 1))

	err := repo.UpdateStatus(context.Background(), "job-1", StatusUpdate{
		Status:       StatusFailed,
		ErrorCode:    &code,
		ErrorMessage: &msg,
		Retryable:    &retryable,
		CompletedAt:  &completed,
	})
	if err != nil {
		t.Fatalf("UpdateStatus: %v", err)
	}

	mock.ExpectExec("UPDATE ingestion_jobs").WillReturnResult(sqlmock.NewResult(0, 0))
	if err := repo.UpdateStatus(context.Background(), "gone", StatusUpdate{Status: StatusProcessing}); !errors.Is(err, ErrJobNotFound) {
		t.Fatalf("expected ErrJobNotFound, got %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestPGRepoListByBid(t *testing.T) {
	repo, mock := newMockRepo(t)
	now := time.Now().UTC()
	rows := sqlmock.NewRows(jobColumnNames).
		AddRow("job-2", "bid-1", "archive", "Technical", "b.zip", "application/zip", "k2", int64(5), "queued", nil, nil, nil, nil, nil, now, nil, nil).
		AddRow("job-1", "bid-1", "document", "General", "a.pdf", "application/pdf", "k1", int64(3), "failed", nil, "NO_ELIGIBLE_FILES", "no eligible files", false, "u", now.Add(-time.Minute), nil, now)
	mock.ExpectQuery("SELECT .* FROM ingestion_jobs").WithArgs("bid-1", 50).WillReturnRows(rows)

	jobs, err := repo.ListByBid(context.Background(), "bid-1", 0)
	if err != nil {
		t.Fatalf("ListByBid: %v", err)
	}
	if len(jobs) != 2 || jobs[0].ID != "job-2" {
		t.Fatalf("unexpected jobs: %+v", jobs)
	}
	if jobs[1].ErrorCode == nil || *jobs[1].ErrorCode != ErrorCodeNoEligibleFiles || jobs[1].Retryable == nil || *jobs[1].Retryable {
		t.Fatalf("unexpected failure fields: %+v", jobs[1])
	}
}
