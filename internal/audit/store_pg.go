package audit

import (
	"context"
	"database/sql"
	"fmt"

	json "github.com/goccy/go-json"
)

// PGStore persists audit events in the audit_log table.
type PGStore struct {
	DB *sql.DB
}

// Record inserts the event.
func (s *PGStore) Record(ctx context.Context, event Event) error {
	const query = `
INSERT INTO audit_log (id, bid_id, project_name, change_type, actor, action, previous_value, new_value, details, created_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`
	details, err := json.Marshal(event.Details)
	if err != nil {
		return fmt.Errorf("marshal audit details: %w", err)
	}
	_, err = s.DB.ExecContext(ctx, query,
		event.ID,
		event.BidID,
		event.ProjectName,
		string(event.ChangeType),
		event.Actor,
		event.Action,
		event.PreviousValue,
		event.NewValue,
		details,
		event.At,
	)
	return err
}

// ListByBid returns the newest events first.
func (s *PGStore) ListByBid(ctx context.Context, bidID string, limit int) ([]Event, error) {
	if limit <= 0 {
		limit = 100
	}
	const query = `
SELECT id, bid_id, project_name, change_type, actor, action, previous_value, new_value, details, created_at
FROM audit_log
WHERE bid_id = $1
ORDER BY created_at DESC
LIMIT $2`
	rows, err := s.DB.QueryContext(ctx, query, bidID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []Event{}
	for rows.Next() {
		var ev Event
		var changeType string
		var details []byte
		if err := rows.Scan(
			&ev.ID,
			&ev.BidID,
			&ev.ProjectName,
			&changeType,
			&ev.Actor,
			&ev.Action,
			&ev.PreviousValue,
			&ev.NewValue,
			&details,
			&ev.At,
		); err != nil {
			return nil, err
		}
		ev.ChangeType = ChangeType(changeType)
		if len(details) > 0 {
			if err := json.Unmarshal(details, &ev.Details); err != nil {
				return nil, fmt.Errorf("decode audit details id=%s: %w", ev.ID, err)
			}
		}
		out = append(out, ev)
	}
	return out, rows.Err()
}
