package audit

import (
	"context"
	"errors"
	"time"
)

// ChangeType classifies an audit event.
type ChangeType string

const (
	ChangeStage          ChangeType = "stage_change"
	ChangeStatus         ChangeType = "status_change"
	ChangeDocumentUpload ChangeType = "document_upload"
	ChangeApproval       ChangeType = "approval"
	ChangeEdit           ChangeType = "edit"
	ChangeIngestion      ChangeType = "ingestion"
)

// Event is one recorded engine action on a bid.
type Event struct {
	ID            string         `json:"id"`
	BidID         string         `json:"bidId"`
	ProjectName   string         `json:"projectName,omitempty"`
	ChangeType    ChangeType     `json:"changeType"`
	Actor         string         `json:"actor,omitempty"`
	Action        string         `json:"action"`
	PreviousValue string         `json:"previousValue,omitempty"`
	NewValue      string         `json:"newValue,omitempty"`
	Details       map[string]any `json:"details,omitempty"`
	At            time.Time      `json:"at"`
}

// Sink receives audit events. Implementations must be safe for concurrent use.
type Sink interface {
	Record(ctx context.Context, event Event) error
}

// Reader lists recorded events for a bid, newest first.
type Reader interface {
	ListByBid(ctx context.Context, bidID string, limit int) ([]Event, error)
}

// Store is a sink that can also be read back.
type Store interface {
	Sink
	Reader
}

// MultiSink fans an event out to several sinks and joins their errors.
type MultiSink []Sink

// Record delivers the event to every sink.
func (m MultiSink) Record(ctx context.Context, event Event) error {
	var errs []error
	for _, s := range m {
		if s == nil {
			continue
		}
		if err := s.Record(ctx, event); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
