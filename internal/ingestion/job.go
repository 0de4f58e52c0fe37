package ingestion

import "time"

const (
	StatusQueued     = "queued"
	StatusProcessing = "processing"
	StatusCompleted  = "completed"
	StatusFailed     = "failed"
)

// Job kinds.
const (
	KindDocument = "document"
	KindArchive  = "archive"
)

// Job tracks one asynchronous ingestion of an uploaded payload.
type Job struct {
	ID           string     `json:"id"`
	BidID        string     `json:"bidId"`
	Kind         string     `json:"kind"`
	Category     string     `json:"category"`
	FileName     string     `json:"fileName"`
	MimeType     string     `json:"mimeType,omitempty"`
	StorageKey   string     `json:"storageKey"`
	SizeBytes    int64      `json:"sizeBytes"`
	Status       string     `json:"status"`
	Outcome      *Outcome   `json:"outcome,omitempty"`
	ErrorCode    *string    `json:"errorCode,omitempty"`
	ErrorMessage *string    `json:"errorMessage,omitempty"`
	Retryable    *bool      `json:"retryable,omitempty"`
	RequestedBy  string     `json:"requestedBy,omitempty"`
	CreatedAt    time.Time  `json:"createdAt"`
	StartedAt    *time.Time `json:"startedAt,omitempty"`
	CompletedAt  *time.Time `json:"completedAt,omitempty"`
}

// Done reports whether the job reached a final status.
func (j Job) Done() bool {
	return j.Status == StatusCompleted || j.Status == StatusFailed
}

// StatusUpdate carries the fields changed by a status transition. Nil fields
// are left as they are.
type StatusUpdate struct {
	Status       string
	Outcome      *Outcome
	ErrorCode    *string
	ErrorMessage *string
	Retryable    *bool
	StartedAt    *time.Time
	CompletedAt  *time.Time
}
