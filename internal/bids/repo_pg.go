package bids

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	json "github.com/goccy/go-json"
)

// PGRepo implements Repo using Postgres. The aggregate is stored as a JSONB
// snapshot next to the columns used for filtering.
type PGRepo struct {
	DB *sql.DB
}

// Create inserts a new bid.
func (r *PGRepo) Create(ctx context.Context, bid Bid) error {
	const query = `
INSERT INTO bids (
    id,
    project_name,
    customer_name,
    status,
    current_stage,
    deadline,
    snapshot,
    created_at,
    updated_at
) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`
	snapshot, err := marshalSnapshot(bid)
	if err != nil {
		return err
	}
	_, err = r.DB.ExecContext(ctx, query,
		bid.ID,
		bid.ProjectName,
		bid.CustomerName,
		string(bid.Status),
		string(bid.CurrentStage),
		bid.Deadline,
		snapshot,
		bid.CreatedAt,
		bid.UpdatedAt,
	)
	return err
}

// GetByID fetches a bid by ID.
func (r *PGRepo) GetByID(ctx context.Context, bidID string) (Bid, error) {
	const query = `
SELECT snapshot
FROM bids
WHERE id = $1 AND deleted_at IS NULL
LIMIT 1`
	var raw []byte
	if err := r.DB.QueryRowContext(ctx, query, bidID).Scan(&raw); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Bid{}, ErrNotFound
		}
		return Bid{}, err
	}
	return unmarshalSnapshot(bidID, raw)
}

// Update replaces the stored snapshot of an existing bid.
func (r *PGRepo) Update(ctx context.Context, bid Bid) error {
	const query = `
UPDATE bids
SET project_name = $2,
    customer_name = $3,
    status = $4,
    current_stage = $5,
    deadline = $6,
    snapshot = $7,
    updated_at = $8
WHERE id = $1 AND deleted_at IS NULL`
	snapshot, err := marshalSnapshot(bid)
	if err != nil {
		return err
	}
	res, err := r.DB.ExecContext(ctx, query,
		bid.ID,
		bid.ProjectName,
		bid.CustomerName,
		string(bid.Status),
		string(bid.CurrentStage),
		bid.Deadline,
		snapshot,
		bid.UpdatedAt,
	)
	if err != nil {
		return err
	}
	return requireAffected(res)
}

// List returns bids newest first.
func (r *PGRepo) List(ctx context.Context, filter ListFilter) ([]Bid, error) {
	limit := filter.Limit
	if limit <= 0 {
		limit = 100
	}
	offset := filter.Offset
	if offset < 0 {
		offset = 0
	}

	var (
		rows *sql.Rows
		err  error
	)
	if filter.Status != "" {
		const query = `
SELECT id, snapshot
FROM bids
WHERE status = $1 AND deleted_at IS NULL
ORDER BY created_at DESC
LIMIT $2 OFFSET $3`
		rows, err = r.DB.QueryContext(ctx, query, string(filter.Status), limit, offset)
	} else {
		const query = `
SELECT id, snapshot
FROM bids
WHERE deleted_at IS NULL
ORDER BY created_at DESC
LIMIT $1 OFFSET $2`
		rows, err = r.DB.QueryContext(ctx, query, limit, offset)
	}
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []Bid{}
	for rows.Next() {
		var id string
		var raw []byte
		if err := rows.Scan(&id, &raw); err != nil {
			return nil, err
		}
		bid, err := unmarshalSnapshot(id, raw)
		if err != nil {
			return nil, err
		}
		out = append(out, bid)
	}
	return out, rows.Err()
}

// Delete soft-deletes a bid.
func (r *PGRepo) Delete(ctx context.Context, bidID string) error {
	const query = `UPDATE bids SET deleted_at = NOW() WHERE id = $1 AND deleted_at IS NULL`
	res, err := r.DB.ExecContext(ctx, query, bidID)
	if err != nil {
		return err
	}
	return requireAffected(res)
}

func requireAffected(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

func marshalSnapshot(bid Bid) ([]byte, error) {
	bid.ViewingStage = ""
	data, err := json.Marshal(bid)
	if err != nil {
		return nil, fmt.Errorf("marshal bid snapshot id=%s: %w", bid.ID, err)
	}
	return data, nil
}

func unmarshalSnapshot(id string, raw []byte) (Bid, error) {
	var bid Bid
	if err := json.Unmarshal(raw, &bid); err != nil {
		return Bid{}, fmt.Errorf("decode bid snapshot id=%s: %w", id, err)
	}
	return bid, nil
}
