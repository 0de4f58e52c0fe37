package main

// Print the bid pipeline as a table:
//   go run ./cmd/bidreport -status Active

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"sort"
	"strings"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"

	"bidsflow-backend/internal/bids"
	"bidsflow-backend/internal/bootstrap"
	"bidsflow-backend/internal/shared/config"
)

type lister interface {
	List(ctx context.Context, filter bids.ListFilter) ([]bids.Bid, error)
}

func main() {
	status := flag.String("status", "Active", "status filter; empty lists every bid")
	limit := flag.Int("limit", 200, "maximum bids to load")
	flag.Parse()

	filter := bids.ListFilter{Limit: *limit}
	if strings.TrimSpace(*status) != "" {
		st, err := bids.ParseStatus(*status)
		if err != nil {
			log.Fatalf("status %q: %v", *status, err)
		}
		filter.Status = st
	}

	app, err := bootstrap.Build(config.Load())
	if err != nil {
		log.Fatalf("bootstrap build: %v", err)
	}
	if err := report(context.Background(), os.Stdout, app.BidsService, filter, time.Now().UTC()); err != nil {
		log.Fatalf("report: %v", err)
	}
}

func report(ctx context.Context, w io.Writer, svc lister, filter bids.ListFilter, now time.Time) error {
	list, err := svc.List(ctx, filter)
	if err != nil {
		return fmt.Errorf("list bids: %w", err)
	}
	renderBids(w, list, now)
	label := "bids"
	if filter.Status != "" {
		label = strings.ToLower(string(filter.Status)) + " bids"
	}
	_, err = fmt.Fprintf(w, "%d %s\n", len(list), label)
	return err
}

// renderBids writes one row per bid ordered by priority, highest first.
func renderBids(w io.Writer, list []bids.Bid, now time.Time) {
	type row struct {
		bid      bids.Bid
		priority bids.Priority
	}
	rows := make([]row, 0, len(list))
	for _, b := range list {
		rows = append(rows, row{bid: b, priority: bids.PriorityOf(b, now)})
	}
	sort.SliceStable(rows, func(i, j int) bool {
		return rows[i].priority.Score > rows[j].priority.Score
	})

	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.AppendHeader(table.Row{"ID", "Project", "Customer", "Stage", "Status", "Integrity", "Days Left", "Priority"})
	for _, r := range rows {
		daysLeft := "-"
		if d, ok := bids.DaysLeft(r.bid, now); ok {
			daysLeft = fmt.Sprintf("%d", d)
		}
		t.AppendRow(table.Row{
			shortID(r.bid.ID),
			r.bid.ProjectName,
			r.bid.CustomerName,
			r.bid.CurrentStage,
			r.bid.Status,
			fmt.Sprintf("%d%%", bids.Score(r.bid)),
			daysLeft,
			fmt.Sprintf("%.0f %s", r.priority.Score, r.priority.Reason),
		})
	}
	t.Render()
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
