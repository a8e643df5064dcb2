package service

import (
	"context"
	"sort"
	"sync"

	"github.com/ecofinds/marketplace/internal/core/domain"
)

// ---------------------------------------------------------------------------
// Listing repository stub
// ---------------------------------------------------------------------------

type stubListingRepo struct {
	mu         sync.Mutex
	order      []string
	listings   map[string]domain.Listing
	createErr  error
	replaceErr error
	// beforeReplace runs once inside Replace to simulate a concurrent writer.
	beforeReplace func(r *stubListingRepo)
}

func newStubListingRepo() *stubListingRepo {
	return &stubListingRepo{listings: make(map[string]domain.Listing)}
}

func (r *stubListingRepo) Create(_ context.Context, l *domain.Listing) error {
	if r.createErr != nil {
		return r.createErr
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.order = append(r.order, l.ID)
	r.listings[l.ID] = *l
	return nil
}

func (r *stubListingRepo) FindByID(_ context.Context, id string) (*domain.Listing, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	l, ok := r.listings[id]
	if !ok {
		return nil, domain.ErrListingNotFound
	}
	return &l, nil
}

func (r *stubListingRepo) List(_ context.Context) ([]domain.Listing, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]domain.Listing, 0, len(r.order))
	for _, id := range r.order {
		if l, ok := r.listings[id]; ok {
			out = append(out, l)
		}
	}
	return out, nil
}

func (r *stubListingRepo) ListBySeller(ctx context.Context, sellerID string) ([]domain.Listing, error) {
	all, _ := r.List(ctx)
	out := make([]domain.Listing, 0)
	for _, l := range all {
		if l.Seller.ID == sellerID {
			out = append(out, l)
		}
	}
	return out, nil
}

func (r *stubListingRepo) Replace(_ context.Context, l *domain.Listing, expectedVersion int64) error {
	if hook := r.beforeReplace; hook != nil {
		r.beforeReplace = nil
		hook(r)
	}
	if r.replaceErr != nil {
		return r.replaceErr
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	cur, ok := r.listings[l.ID]
	if !ok {
		return domain.ErrListingNotFound
	}
	if cur.Version != expectedVersion {
		return domain.ErrVersionConflict
	}
	r.listings[l.ID] = *l
	return nil
}

func (r *stubListingRepo) Delete(_ context.Context, id string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.listings[id]; !ok {
		return false, nil
	}
	delete(r.listings, id)
	return true, nil
}

// ---------------------------------------------------------------------------
// Cart repository stub
// ---------------------------------------------------------------------------

type stubCartRepo struct {
	carts     map[string]domain.Cart
	saves     int
	saveErr   error
	deleteErr error
}

func newStubCartRepo() *stubCartRepo {
	return &stubCartRepo{carts: make(map[string]domain.Cart)}
}

func cloneCart(c domain.Cart) *domain.Cart {
	out := c
	out.Entries = append([]domain.CartEntry(nil), c.Entries...)
	return &out
}

func (r *stubCartRepo) Load(_ context.Context, userID string) (*domain.Cart, error) {
	c, ok := r.carts[userID]
	if !ok {
		return domain.NewCart(userID), nil
	}
	return cloneCart(c), nil
}

func (r *stubCartRepo) Save(_ context.Context, c *domain.Cart) error {
	if r.saveErr != nil {
		return r.saveErr
	}
	r.saves++
	r.carts[c.UserID] = *cloneCart(*c)
	return nil
}

func (r *stubCartRepo) Delete(_ context.Context, userID string) error {
	if r.deleteErr != nil {
		return r.deleteErr
	}
	delete(r.carts, userID)
	return nil
}

// ---------------------------------------------------------------------------
// Order repository stub
// ---------------------------------------------------------------------------

type stubOrderRepo struct {
	orders    []domain.Order
	createErr error
}

func (r *stubOrderRepo) Create(_ context.Context, o *domain.Order) error {
	if r.createErr != nil {
		return r.createErr
	}
	r.orders = append(r.orders, *o)
	return nil
}

func (r *stubOrderRepo) FindByID(_ context.Context, id string) (*domain.Order, error) {
	for _, o := range r.orders {
		if o.ID == id {
			found := o
			return &found, nil
		}
	}
	return nil, domain.ErrOrderNotFound
}

func (r *stubOrderRepo) FindByIdempotencyKey(_ context.Context, buyerID, key string) (*domain.Order, error) {
	for _, o := range r.orders {
		if o.BuyerID == buyerID && o.IdempotencyKey == key {
			found := o
			return &found, nil
		}
	}
	return nil, domain.ErrOrderNotFound
}

func (r *stubOrderRepo) ListByBuyer(_ context.Context, buyerID string) ([]domain.Order, error) {
	out := make([]domain.Order, 0)
	for _, o := range r.orders {
		if o.BuyerID == buyerID {
			out = append(out, o)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

// ---------------------------------------------------------------------------
// Collaborator stubs
// ---------------------------------------------------------------------------

type stubPublisher struct {
	err    error
	events []domain.Event
}

func (p *stubPublisher) Publish(_ context.Context, e domain.Event) error {
	p.events = append(p.events, e)
	return p.err
}

func (p *stubPublisher) subjects() []string {
	out := make([]string, len(p.events))
	for i, e := range p.events {
		out[i] = e.Subject
	}
	return out
}

type stubLock struct {
	held     map[string]bool
	released int
}

func newStubLock() *stubLock {
	return &stubLock{held: make(map[string]bool)}
}

func (l *stubLock) Acquire(_ context.Context, userID string) (func(), error) {
	if l.held[userID] {
		return nil, domain.ErrCheckoutInProgress
	}
	l.held[userID] = true
	return func() {
		delete(l.held, userID)
		l.released++
	}, nil
}
