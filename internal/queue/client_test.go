package queue

import (
	"testing"
	"time"
)

func TestNewJobMessage(t *testing.T) {
	at := time.Date(2026, 10, 15, 9, 30, 0, 0, time.FixedZone("CET", 3600))
	msg := NewJobMessage(" job-1 ", "bid-1", "req-1", at)
	if msg.JobID != "job-1" || msg.BidID != "bid-1" || msg.RequestID != "req-1" {
		t.Fatalf("unexpected message: %+v", msg)
	}
	if msg.EnqueuedAt != "2026-10-15T08:30:00Z" || msg.Version != MessageVersion {
		t.Fatalf("unexpected timestamp/version: %+v", msg)
	}
}

func TestFIFOParams(t *testing.T) {
	tests := []struct {
		name      string
		url       string
		msg       Message
		wantOK    bool
		wantGroup string
	}{
		{"standard queue", "https://sqs.us-east-1.amazonaws.com/1/ingest", Message{JobID: "j1", BidID: "b1"}, false, ""},
		{"fifo groups by bid", "https://sqs.us-east-1.amazonaws.com/1/ingest.fifo", Message{JobID: "j1", BidID: "b1"}, true, "b1"},
		{"fifo without bid", "https://sqs.us-east-1.amazonaws.com/1/ingest.fifo", Message{JobID: "j1"}, true, "j1"},
		{"fifo without job", "https://sqs.us-east-1.amazonaws.com/1/ingest.fifo", Message{BidID: "b1"}, false, ""},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			group, dedup, ok := fifoParams(tt.url, tt.msg)
			if ok != tt.wantOK || group != tt.wantGroup {
				t.Fatalf("fifoParams = %q,%q,%v want group %q ok %v", group, dedup, ok, tt.wantGroup, tt.wantOK)
			}
			if ok && dedup != tt.msg.JobID {
				t.Fatalf("dedup id should be the job id, got %q", dedup)
			}
		})
	}
}
