package ingestion

import "context"

// Repo defines persistence operations for ingestion jobs.
type Repo interface {
	Create(ctx context.Context, job Job) error
	GetByID(ctx context.Context, jobID string) (Job, error)
	UpdateStatus(ctx context.Context, jobID string, update StatusUpdate) error
	ListByBid(ctx context.Context, bidID string, limit int) ([]Job, error)
}
