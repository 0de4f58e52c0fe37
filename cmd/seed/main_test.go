package main

import (
	"context"
	"errors"
	"os"
	"testing"
	"time"

	"bidsflow-backend/internal/audit"
	"bidsflow-backend/internal/bids"
)

func newTestService() *bids.Service {
	now := time.Date(2026, 10, 15, 9, 0, 0, 0, time.UTC)
	return &bids.Service{
		Repo:  bids.NewMemoryRepo(),
		Audit: audit.NewMemoryStore(),
		Now:   func() time.Time { return now },
	}
}

func TestParseFixture(t *testing.T) {
	tests := []struct {
		name    string
		data    string
		wantErr bool
		count   int
	}{
		{"valid", "bids:\n  - projectName: A\n    stage: final_review\n    status: nobid\n", false, 1},
		{"empty", "  \n", true, 0},
		{"missing project", "bids:\n  - customerName: X\n", true, 0},
		{"bad stage", "bids:\n  - projectName: A\n    stage: Shipping\n", true, 0},
		{"bad status", "bids:\n  - projectName: A\n    status: Pending\n", true, 0},
		{"bad yaml", "bids: [\n", true, 0},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			f, err := parseFixture([]byte(tt.data))
			if (err != nil) != tt.wantErr {
				t.Fatalf("parseFixture err = %v, wantErr %v", err, tt.wantErr)
			}
			if err == nil && len(f.Bids) != tt.count {
				t.Fatalf("expected %d bids, got %d", tt.count, len(f.Bids))
			}
		})
	}
}

func TestBundledFixtureLoads(t *testing.T) {
	if _, err := os.Stat("bids.yaml"); err != nil {
		t.Skip("fixture not present")
	}
	f, err := loadFixture("bids.yaml")
	if err != nil {
		t.Fatalf("loadFixture: %v", err)
	}
	created, err := seed(context.Background(), newTestService(), f)
	if err != nil {
		t.Fatalf("seed: %v", err)
	}
	if len(created) != len(f.Bids) {
		t.Fatalf("expected %d bids, got %d", len(f.Bids), len(created))
	}
}

func TestSeedProgressesBids(t *testing.T) {
	svc := newTestService()
	f := Fixture{Bids: []BidFixture{
		{
			ProjectName:  "Network",
			Deadline:     "2026-12-01",
			ReceivedDate: "2026-10-01",
			Stage:        "Pricing",
			TechnicalChecklist: []ChecklistFixture{
				{Requirement: "APs", Mandatory: true, Complete: true},
				{Requirement: "NOC"},
			},
		},
		{
			ProjectName: "Fleet",
			Status:      "No Bid",
		},
	}}

	created, err := seed(context.Background(), svc, f)
	if err != nil {
		t.Fatalf("seed: %v", err)
	}
	if len(created) != 2 {
		t.Fatalf("expected 2 bids, got %d", len(created))
	}

	network := created[0]
	if network.CurrentStage != bids.StagePricing || len(network.StageHistory) != 4 {
		t.Fatalf("unexpected progression: %s %+v", network.CurrentStage, network.StageHistory)
	}
	items := network.TechnicalQualificationChecklist
	if items[0].Status != bids.ChecklistComplete || items[1].Status != bids.ChecklistPending {
		t.Fatalf("unexpected checklist: %+v", items)
	}

	fleet := created[1]
	if fleet.Status != bids.StatusNoBid || fleet.Outcome.NoBidStage != bids.StageIntake {
		t.Fatalf("unexpected no-bid outcome: %+v", fleet)
	}
}

type failingSeeder struct {
	Seeder
}

func (failingSeeder) Create(context.Context, string, bids.CreateInput) (bids.Bid, error) {
	return bids.Bid{}, errors.New("db down")
}

func TestSeedStopsOnError(t *testing.T) {
	created, err := seed(context.Background(), failingSeeder{}, Fixture{Bids: []BidFixture{{ProjectName: "A"}}})
	if err == nil {
		t.Fatalf("expected error")
	}
	if len(created) != 0 {
		t.Fatalf("expected no bids, got %d", len(created))
	}
}
