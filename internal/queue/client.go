package queue

import (
	"context"
	"strings"
	"time"
)

// Client sends ingestion job messages to a queue backend.
type Client interface {
	Send(ctx context.Context, msg Message) error
}

// NewJobMessage builds the message announcing a queued ingestion job.
func NewJobMessage(jobID, bidID, requestID string, enqueuedAt time.Time) Message {
	return Message{
		JobID:      strings.TrimSpace(jobID),
		BidID:      strings.TrimSpace(bidID),
		RequestID:  requestID,
		EnqueuedAt: enqueuedAt.UTC().Format(time.RFC3339),
		Version:    MessageVersion,
	}
}

// fifoParams returns the message group and deduplication ids for a FIFO
// queue. Jobs of one bid share a group, so they are delivered in order and
// never processed concurrently by two workers.
func fifoParams(queueURL string, msg Message) (group, dedup string, ok bool) {
	if !strings.HasSuffix(queueURL, ".fifo") || msg.JobID == "" {
		return "", "", false
	}
	group = msg.BidID
	if group == "" {
		group = msg.JobID
	}
	return group, msg.JobID, true
}
