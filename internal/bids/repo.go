package bids

import "context"

// ListFilter narrows bid listings.
type ListFilter struct {
	Status Status
	Limit  int
	Offset int
}

// Repo defines persistence operations for bids. Implementations store the
// viewing cursor as empty; it is never bid truth.
type Repo interface {
	Create(ctx context.Context, bid Bid) error
	GetByID(ctx context.Context, bidID string) (Bid, error)
	Update(ctx context.Context, bid Bid) error
	List(ctx context.Context, filter ListFilter) ([]Bid, error)
	Delete(ctx context.Context, bidID string) error
}
