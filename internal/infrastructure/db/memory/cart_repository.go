package memory

import (
	"context"
	"sync"

	"github.com/ecofinds/marketplace/internal/core/domain"
	"github.com/ecofinds/marketplace/internal/core/ports"
)

type CartRepository struct {
	mu    sync.Mutex
	carts map[string]domain.Cart
}

func NewCartRepository() *CartRepository {
	return &CartRepository{carts: make(map[string]domain.Cart)}
}

var _ ports.CartRepository = (*CartRepository)(nil)

func cloneCart(c domain.Cart) *domain.Cart {
	out := c
	out.Entries = append(make([]domain.CartEntry, 0, len(c.Entries)), c.Entries...)
	return &out
}

func (r *CartRepository) Load(ctx context.Context, userID string) (*domain.Cart, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	c, ok := r.carts[userID]
	if !ok {
		return domain.NewCart(userID), nil
	}
	return cloneCart(c), nil
}

func (r *CartRepository) Save(ctx context.Context, cart *domain.Cart) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.carts[cart.UserID] = *cloneCart(*cart)
	return nil
}

func (r *CartRepository) Delete(ctx context.Context, userID string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.carts, userID)
	return nil
}

// CheckoutLock is a process-local ports.CheckoutLock.
type CheckoutLock struct {
	mu   sync.Mutex
	held map[string]struct{}
}

func NewCheckoutLock() *CheckoutLock {
	return &CheckoutLock{held: make(map[string]struct{})}
}

var _ ports.CheckoutLock = (*CheckoutLock)(nil)

func (l *CheckoutLock) Acquire(ctx context.Context, userID string) (func(), error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	if _, busy := l.held[userID]; busy {
		return nil, domain.ErrCheckoutInProgress
	}
	l.held[userID] = struct{}{}

	var once sync.Once
	return func() {
		once.Do(func() {
			l.mu.Lock()
			delete(l.held, userID)
			l.mu.Unlock()
		})
	}, nil
}
