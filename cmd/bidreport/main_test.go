package main

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"bidsflow-backend/internal/bids"
)

type listerStub struct {
	bids   []bids.Bid
	err    error
	filter bids.ListFilter
}

func (l *listerStub) List(_ context.Context, filter bids.ListFilter) ([]bids.Bid, error) {
	l.filter = filter
	return l.bids, l.err
}

func TestReportRendersRowsByPriority(t *testing.T) {
	now := time.Date(2026, 10, 15, 0, 0, 0, 0, time.UTC)
	stub := &listerStub{bids: []bids.Bid{
		{ID: "aaaaaaaa-1111", ProjectName: "Quiet Renewal", CurrentStage: bids.StageIntake, Status: bids.StatusActive, Deadline: "2027-03-01"},
		{ID: "bbbbbbbb-2222", ProjectName: "Urgent Tender", CurrentStage: bids.StagePricing, Status: bids.StatusActive, Deadline: "2026-10-17"},
	}}

	var buf bytes.Buffer
	if err := report(context.Background(), &buf, stub, bids.ListFilter{Status: bids.StatusActive}, now); err != nil {
		t.Fatalf("report: %v", err)
	}
	out := buf.String()

	if stub.filter.Status != bids.StatusActive {
		t.Fatalf("filter not passed through: %+v", stub.filter)
	}
	urgent := strings.Index(out, "Urgent Tender")
	quiet := strings.Index(out, "Quiet Renewal")
	if urgent < 0 || quiet < 0 || urgent > quiet {
		t.Fatalf("expected urgent bid first:\n%s", out)
	}
	for _, want := range []string{"bbbbbbbb", "Critical Deadline", "PRICING", "2 active bids"} {
		if !strings.Contains(strings.ToUpper(out), strings.ToUpper(want)) {
			t.Fatalf("output missing %q:\n%s", want, out)
		}
	}
	if strings.Contains(out, "bbbbbbbb-2222") {
		t.Fatalf("expected shortened id:\n%s", out)
	}
}

func TestReportWithoutDeadline(t *testing.T) {
	stub := &listerStub{bids: []bids.Bid{{ID: "x", ProjectName: "Open", CurrentStage: bids.StageIntake, Status: bids.StatusWon}}}
	var buf bytes.Buffer
	if err := report(context.Background(), &buf, stub, bids.ListFilter{}, time.Now()); err != nil {
		t.Fatalf("report: %v", err)
	}
	if !strings.Contains(buf.String(), "1 bids") {
		t.Fatalf("unexpected footer:\n%s", buf.String())
	}
}

func TestReportListError(t *testing.T) {
	stub := &listerStub{err: errors.New("db down")}
	var buf bytes.Buffer
	if err := report(context.Background(), &buf, stub, bids.ListFilter{}, time.Now()); err == nil {
		t.Fatalf("expected error")
	}
	if buf.Len() != 0 {
		t.Fatalf("expected no output, got %q", buf.String())
	}
}
