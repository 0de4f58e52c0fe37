package ingestion

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	json "github.com/goccy/go-json"
)

// PGRepo implements Repo using Postgres.
type PGRepo struct {
	DB *sql.DB
}

const jobColumns = `id, bid_id, kind, category, file_name, mime_type, storage_key, size_bytes, status,
       outcome, error_code, error_message, error_retryable, requested_by, created_at, started_at, completed_at`

// Create inserts a new job.
func (r *PGRepo) Create(ctx context.Context, job Job) error {
	const query = `
INSERT INTO ingestion_jobs (
    id, bid_id, kind, category, file_name, mime_type, storage_key, size_bytes, status, requested_by, created_at
)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`
	_, err := r.DB.ExecContext(ctx, query,
		job.ID,
		job.BidID,
		job.Kind,
		job.Category,
		job.FileName,
		job.MimeType,
		job.StorageKey,
		job.SizeBytes,
		job.Status,
		job.RequestedBy,
		job.CreatedAt,
	)
	return err
}

// GetByID returns a job by ID.
func (r *PGRepo) GetByID(ctx context.Context, jobID string) (Job, error) {
	query := `
SELECT ` + jobColumns + `
FROM ingestion_jobs
WHERE id = $1
LIMIT 1`
	job, err := scanJob(r.DB.QueryRowContext(ctx, query, jobID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Job{}, ErrJobNotFound
		}
		return Job{}, err
	}
	return job, nil
}

// UpdateStatus applies a status transition. Nil fields keep their stored value.
func (r *PGRepo) UpdateStatus(ctx context.Context, jobID string, u StatusUpdate) error {
	const query = `
UPDATE ingestion_jobs
SET status = COALESCE(NULLIF($2::text, ''), status),
    outcome = COALESCE($3::jsonb, outcome),
    error_code = COALESCE($4::text, error_code),
    error_message = COALESCE($5::text, error_message),
    error_retryable = COALESCE($6::boolean, error_retryable),
    started_at = COALESCE($7::timestamptz, started_at),
    completed_at = COALESCE($8::timestamptz, completed_at),
    updated_at = NOW()
WHERE id = $1`
	var outcome []byte
	if u.Outcome != nil {
		raw, err := json.Marshal(u.Outcome)
		if err != nil {
			return fmt.Errorf("encode outcome: %w", err)
		}
		outcome = raw
	}
	res, err := r.DB.ExecContext(ctx, query,
		jobID,
		u.Status,
		nullableBytes(outcome),
		nullableString(u.ErrorCode),
		nullableString(u.ErrorMessage),
		nullableBool(u.Retryable),
		nullableTime(u.StartedAt),
		nullableTime(u.CompletedAt),
	)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrJobNotFound
	}
	return nil
}

// ListByBid returns jobs for a bid ordered newest-first.
func (r *PGRepo) ListByBid(ctx context.Context, bidID string, limit int) ([]Job, error) {
	if limit <= 0 {
		limit = 50
	}
	query := `
SELECT ` + jobColumns + `
FROM ingestion_jobs
WHERE bid_id = $1
ORDER BY created_at DESC
LIMIT $2`
	rows, err := r.DB.QueryContext(ctx, query, bidID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Job
	for rows.Next() {
		job, err := scanJob(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, job)
	}
	return out, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanJob(row rowScanner) (Job, error) {
	var job Job
	var mimeType sql.NullString
	var outcome []byte
	var errorCode sql.NullString
	var errorMessage sql.NullString
	var retryable sql.NullBool
	var requestedBy sql.NullString
	var startedAt sql.NullTime
	var completedAt sql.NullTime
	if err := row.Scan(
		&job.ID,
		&job.BidID,
		&job.Kind,
		&job.Category,
		&job.FileName,
		&mimeType,
		&job.StorageKey,
		&job.SizeBytes,
		&job.Status,
		&outcome,
		&errorCode,
		&errorMessage,
		&retryable,
		&requestedBy,
		&job.CreatedAt,
		&startedAt,
		&completedAt,
	); err != nil {
		return Job{}, err
	}
	job.MimeType = mimeType.String
	job.RequestedBy = requestedBy.String
	if len(outcome) > 0 {
		var o Outcome
		if err := json.Unmarshal(outcome, &o); err != nil {
			return Job{}, fmt.Errorf("decode outcome for job %s: %w", job.ID, err)
		}
		job.Outcome = &o
	}
	if errorCode.Valid {
		job.ErrorCode = &errorCode.String
	}
	if errorMessage.Valid {
		job.ErrorMessage = &errorMessage.String
	}
	if retryable.Valid {
		job.Retryable = &retryable.Bool
	}
	if startedAt.Valid {
		t := startedAt.Time.UTC()
		job.StartedAt = &t
	}
	if completedAt.Valid {
		t := completedAt.Time.UTC()
		job.CompletedAt = &t
	}
	return job, nil
}

func nullableBytes(b []byte) any {
	if b == nil {
		return nil
	}
	return b
}

func nullableString(s *string) any {
	if s == nil {
		return nil
	}
	return *s
}

func nullableBool(b *bool) any {
	if b == nil {
		return nil
	}
	return *b
}

func nullableTime(t *time.Time) any {
	if t == nil {
		return nil
	}
	return *t
}
