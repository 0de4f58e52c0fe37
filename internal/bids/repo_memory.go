package bids

import (
	"context"
	"sort"
	"sync"
)

// MemoryRepo stores bids in memory and is safe for concurrent use.
type MemoryRepo struct {
	mu   sync.RWMutex
	byID map[string]Bid
}

// NewMemoryRepo constructs a MemoryRepo.
func NewMemoryRepo() *MemoryRepo {
	return &MemoryRepo{byID: make(map[string]Bid)}
}

// Create stores a new bid.
func (r *MemoryRepo) Create(ctx context.Context, bid Bid) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	bid.ViewingStage = ""
	r.byID[bid.ID] = bid.Clone()
	return nil
}

// GetByID returns a copy of the stored bid.
func (r *MemoryRepo) GetByID(ctx context.Context, bidID string) (Bid, error) {
	if err := ctx.Err(); err != nil {
		return Bid{}, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	bid, ok := r.byID[bidID]
	if !ok {
		return Bid{}, ErrNotFound
	}
	return bid.Clone(), nil
}

// Update replaces an existing bid.
func (r *MemoryRepo) Update(ctx context.Context, bid Bid) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.byID[bid.ID]; !ok {
		return ErrNotFound
	}
	bid.ViewingStage = ""
	r.byID[bid.ID] = bid.Clone()
	return nil
}

// List returns bids newest first.
func (r *MemoryRepo) List(ctx context.Context, filter ListFilter) ([]Bid, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.mu.RLock()
	out := make([]Bid, 0, len(r.byID))
	for _, bid := range r.byID {
		if filter.Status != "" && bid.Status != filter.Status {
			continue
		}
		out = append(out, bid.Clone())
	}
	r.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool {
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})

	offset := filter.Offset
	if offset < 0 {
		offset = 0
	}
	if offset >= len(out) {
		return []Bid{}, nil
	}
	end := len(out)
	if filter.Limit > 0 && offset+filter.Limit < end {
		end = offset + filter.Limit
	}
	return out[offset:end], nil
}

// Delete removes a bid.
func (r *MemoryRepo) Delete(ctx context.Context, bidID string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.byID[bidID]; !ok {
		return ErrNotFound
	}
	delete(r.byID, bidID)
	return nil
}
