package main

// Seed bids from a YAML fixture file:
//   go run ./cmd/seed -file cmd/seed/bids.yaml

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"bidsflow-backend/internal/bids"
	"bidsflow-backend/internal/bootstrap"
	"bidsflow-backend/internal/shared/config"
)

const seedActor = "seed"

// Fixture is the root of a seed file.
type Fixture struct {
	Bids []BidFixture `yaml:"bids"`
}

// BidFixture describes one bid and how far it should be progressed.
type BidFixture struct {
	ProjectName           string             `yaml:"projectName"`
	CustomerName          string             `yaml:"customerName"`
	Deadline              string             `yaml:"deadline"`
	ReceivedDate          string             `yaml:"receivedDate"`
	Complexity            string             `yaml:"complexity"`
	RiskLevel             string             `yaml:"riskLevel"`
	EstimatedValue        float64            `yaml:"estimatedValue"`
	Currency              string             `yaml:"currency"`
	QualificationCriteria string             `yaml:"qualificationCriteria"`
	ContractDuration      string             `yaml:"contractDuration"`
	Stage                 string             `yaml:"stage"`
	Status                string             `yaml:"status"`
	TechnicalChecklist    []ChecklistFixture `yaml:"technicalChecklist"`
	ComplianceChecklist   []ChecklistFixture `yaml:"complianceChecklist"`
	FinancialFormats      []FinancialFixture `yaml:"financialFormats"`
}

// ChecklistFixture is a checklist requirement, optionally already complete.
type ChecklistFixture struct {
	Requirement string `yaml:"requirement"`
	Mandatory   bool   `yaml:"mandatory"`
	Complete    bool   `yaml:"complete"`
}

// FinancialFixture is a pricing row.
type FinancialFixture struct {
	Item      string  `yaml:"item"`
	UOM       string  `yaml:"uom"`
	Quantity  float64 `yaml:"quantity"`
	UnitPrice float64 `yaml:"unitPrice"`
}

// Seeder is the subset of the bids service used to load fixtures.
type Seeder interface {
	Create(ctx context.Context, actor string, in bids.CreateInput) (bids.Bid, error)
	Advance(ctx context.Context, actor, bidID string) (bids.Bid, bids.StageTransitionEvent, error)
	SetStatus(ctx context.Context, actor, bidID string, change bids.StatusChange) (bids.Bid, error)
	SetChecklistItemStatus(ctx context.Context, actor, bidID, itemID string, status bids.ChecklistStatus) (bids.Bid, error)
}

func main() {
	file := flag.String("file", "cmd/seed/bids.yaml", "YAML fixture file")
	flag.Parse()

	fixture, err := loadFixture(*file)
	if err != nil {
		log.Fatalf("load fixture: %v", err)
	}

	app, err := bootstrap.Build(config.Load())
	if err != nil {
		log.Fatalf("bootstrap build: %v", err)
	}
	if app.DB == nil {
		log.Printf("seed: no database configured; bids are kept in memory and discarded on exit")
	}

	created, err := seed(context.Background(), app.BidsService, fixture)
	for _, b := range created {
		fmt.Printf("seeded [%s] %s stage=%s status=%s\n", b.ID, b.ProjectName, b.CurrentStage, b.Status)
	}
	if err != nil {
		log.Fatalf("seed: %v", err)
	}
}

func loadFixture(path string) (Fixture, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Fixture{}, fmt.Errorf("read %s: %w", path, err)
	}
	return parseFixture(data)
}

func parseFixture(data []byte) (Fixture, error) {
	if strings.TrimSpace(string(data)) == "" {
		return Fixture{}, errors.New("fixture is empty")
	}
	var f Fixture
	if err := yaml.Unmarshal(data, &f); err != nil {
		return Fixture{}, fmt.Errorf("parse fixture: %w", err)
	}
	for i, b := range f.Bids {
		if strings.TrimSpace(b.ProjectName) == "" {
			return Fixture{}, fmt.Errorf("bid %d: projectName is required", i)
		}
		if b.Stage != "" {
			if _, err := bids.ParseStage(b.Stage); err != nil {
				return Fixture{}, fmt.Errorf("bid %d: %w", i, err)
			}
		}
		if b.Status != "" {
			if _, err := bids.ParseStatus(b.Status); err != nil {
				return Fixture{}, fmt.Errorf("bid %d: %w", i, err)
			}
		}
	}
	return f, nil
}

// seed creates every fixture bid, advances it stage by stage and applies the
// final status. Bids created before a failure are returned with the error.
func seed(ctx context.Context, svc Seeder, f Fixture) ([]bids.Bid, error) {
	out := make([]bids.Bid, 0, len(f.Bids))
	for _, fx := range f.Bids {
		b, err := seedOne(ctx, svc, fx)
		if err != nil {
			return out, fmt.Errorf("%s: %w", fx.ProjectName, err)
		}
		out = append(out, b)
	}
	return out, nil
}

func seedOne(ctx context.Context, svc Seeder, fx BidFixture) (bids.Bid, error) {
	b, err := svc.Create(ctx, seedActor, fx.createInput())
	if err != nil {
		return bids.Bid{}, err
	}

	b, err = completeItems(ctx, svc, b, b.TechnicalQualificationChecklist, fx.TechnicalChecklist)
	if err != nil {
		return b, err
	}
	b, err = completeItems(ctx, svc, b, b.ComplianceChecklist, fx.ComplianceChecklist)
	if err != nil {
		return b, err
	}

	if fx.Stage != "" {
		target, _ := bids.ParseStage(fx.Stage)
		for b.CurrentStage.Index() < target.Index() {
			if b, _, err = svc.Advance(ctx, seedActor, b.ID); err != nil {
				return b, err
			}
		}
	}

	if fx.Status != "" {
		status, _ := bids.ParseStatus(fx.Status)
		if status != b.Status {
			change := bids.StatusChange{Status: status}
			if status == bids.StatusNoBid {
				change.NoBidReasonCategory = "Other"
				change.NoBidComments = "Seeded"
			}
			if b, err = svc.SetStatus(ctx, seedActor, b.ID, change); err != nil {
				return b, err
			}
		}
	}
	return b, nil
}

// completeItems marks the checklist entries flagged complete in the fixture.
// Created items keep fixture order, so positions line up.
func completeItems(ctx context.Context, svc Seeder, b bids.Bid, items []bids.ChecklistItem, fixtures []ChecklistFixture) (bids.Bid, error) {
	for i, fx := range fixtures {
		if !fx.Complete || i >= len(items) {
			continue
		}
		var err error
		if b, err = svc.SetChecklistItemStatus(ctx, seedActor, b.ID, items[i].ID, bids.ChecklistComplete); err != nil {
			return b, err
		}
	}
	return b, nil
}

func (fx BidFixture) createInput() bids.CreateInput {
	in := bids.CreateInput{
		CustomerName:          fx.CustomerName,
		ProjectName:           fx.ProjectName,
		Deadline:              fx.Deadline,
		ReceivedDate:          fx.ReceivedDate,
		Complexity:            bids.Complexity(fx.Complexity),
		RiskLevel:             fx.RiskLevel,
		EstimatedValue:        fx.EstimatedValue,
		Currency:              fx.Currency,
		QualificationCriteria: fx.QualificationCriteria,
		ContractDuration:      fx.ContractDuration,
	}
	for _, c := range fx.TechnicalChecklist {
		in.TechnicalChecklist = append(in.TechnicalChecklist, bids.ChecklistItem{Requirement: c.Requirement, IsMandatory: c.Mandatory})
	}
	for _, c := range fx.ComplianceChecklist {
		in.ComplianceChecklist = append(in.ComplianceChecklist, bids.ChecklistItem{Requirement: c.Requirement, IsMandatory: c.Mandatory})
	}
	for _, r := range fx.FinancialFormats {
		in.FinancialFormats = append(in.FinancialFormats, bids.FinancialRow{Item: r.Item, UOM: r.UOM, Quantity: r.Quantity, UnitPrice: r.UnitPrice})
	}
	return in
}
