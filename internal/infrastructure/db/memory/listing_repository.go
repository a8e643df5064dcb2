// Package memory holds process-local implementations of the repositories.
// They are the default backend and are safe for concurrent use.
package memory

import (
	"context"
	"sync"

	"github.com/ecofinds/marketplace/internal/core/domain"
	"github.com/ecofinds/marketplace/internal/core/ports"
)

type ListingRepository struct {
	mu    sync.RWMutex
	order []string
	byID  map[string]domain.Listing
}

func NewListingRepository() *ListingRepository {
	return &ListingRepository{byID: make(map[string]domain.Listing)}
}

var _ ports.ListingRepository = (*ListingRepository)(nil)

func (r *ListingRepository) Create(ctx context.Context, l *domain.Listing) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.order = append(r.order, l.ID)
	r.byID[l.ID] = *l
	return nil
}

func (r *ListingRepository) FindByID(ctx context.Context, id string) (*domain.Listing, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	l, ok := r.byID[id]
	if !ok {
		return nil, domain.ErrListingNotFound
	}
	return &l, nil
}

func (r *ListingRepository) List(ctx context.Context) ([]domain.Listing, error) {
	return r.filter(ctx, func(domain.Listing) bool { return true })
}

func (r *ListingRepository) ListBySeller(ctx context.Context, sellerID string) ([]domain.Listing, error) {
	return r.filter(ctx, func(l domain.Listing) bool { return l.Seller.ID == sellerID })
}

func (r *ListingRepository) filter(ctx context.Context, keep func(domain.Listing) bool) ([]domain.Listing, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]domain.Listing, 0, len(r.byID))
	for _, id := range r.order {
		if l, ok := r.byID[id]; ok && keep(l) {
			out = append(out, l)
		}
	}
	return out, nil
}

func (r *ListingRepository) Replace(ctx context.Context, l *domain.Listing, expectedVersion int64) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	cur, ok := r.byID[l.ID]
	if !ok {
		return domain.ErrListingNotFound
	}
	if cur.Version != expectedVersion {
		return domain.ErrVersionConflict
	}
	r.byID[l.ID] = *l
	return nil
}

// Delete removes the record. The id is also dropped from the ordering slice so
// it does not grow with churn.
func (r *ListingRepository) Delete(ctx context.Context, id string) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.byID[id]; !ok {
		return false, nil
	}
	delete(r.byID, id)
	for i, v := range r.order {
		if v == id {
			r.order = append(r.order[:i], r.order[i+1:]...)
			break
		}
	}
	return true, nil
}
