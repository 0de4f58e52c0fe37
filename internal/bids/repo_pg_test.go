package bids

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
)

func TestPGRepoCreateStoresSnapshot(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	repo := &PGRepo{DB: db}
	now := time.Now().UTC()
	bid := Bid{
		ID:           "bid-1",
		ProjectName:  "Metro Rail Signalling",
		CustomerName: "City Transit",
		Status:       StatusActive,
		CurrentStage: StageIntake,
		ViewingStage: StagePricing,
		Deadline:     "2024-05-01",
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	mock.ExpectExec("INSERT INTO bids").
		WithArgs(
			bid.ID,
			bid.ProjectName,
			bid.CustomerName,
			"Active",
			"Intake",
			bid.Deadline,
			sqlmock.AnyArg(), // snapshot
			now,
			now,
		).
		WillReturnResult(sqlmock.NewResult(1, 1))

	if err := repo.Create(context.Background(), bid); err != nil {
		t.Fatalf("Create: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("ExpectationsWereMet: %v", err)
	}
}

func TestPGRepoGetByIDDecodesSnapshot(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	snapshot := []byte(`{"id":"bid-1","projectName":"Harbor Wi-Fi","status":"Active","currentStage":"Pricing",
"stageHistory":[{"stage":"Intake","timestamp":"2024-01-01T00:00:00Z"}]}`)
	mock.ExpectQuery("SELECT snapshot").
		WithArgs("bid-1").
		WillReturnRows(sqlmock.NewRows([]string{"snapshot"}).AddRow(snapshot))

	repo := &PGRepo{DB: db}
	bid, err := repo.GetByID(context.Background(), "bid-1")
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if bid.ProjectName != "Harbor Wi-Fi" || bid.CurrentStage != StagePricing || len(bid.StageHistory) != 1 {
		t.Fatalf("unexpected bid: %+v", bid)
	}
}

func TestPGRepoUpdateMissingReturnsNotFound(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	mock.ExpectExec("UPDATE bids").WillReturnResult(sqlmock.NewResult(0, 0))

	repo := &PGRepo{DB: db}
	err = repo.Update(context.Background(), Bid{ID: "missing"})
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestPGRepoListFiltersByStatus(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	mock.ExpectQuery("SELECT id, snapshot").
		WithArgs("Won", 10, 0).
		WillReturnRows(sqlmock.NewRows([]string{"id", "snapshot"}).
			AddRow("a", []byte(`{"id":"a","status":"Won"}`)).
			AddRow("b", []byte(`{"id":"b","status":"Won"}`)))

	repo := &PGRepo{DB: db}
	out, err := repo.List(context.Background(), ListFilter{Status: StatusWon, Limit: 10})
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(out) != 2 || out[0].ID != "a" {
		t.Fatalf("unexpected list: %+v", out)
	}
}
