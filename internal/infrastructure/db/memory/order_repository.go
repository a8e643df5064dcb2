package memory

import (
	"context"
	"sync"

	"github.com/ecofinds/marketplace/internal/core/domain"
	"github.com/ecofinds/marketplace/internal/core/ports"
)

type OrderRepository struct {
	mu     sync.RWMutex
	orders []domain.Order
}

func NewOrderRepository() *OrderRepository {
	return &OrderRepository{}
}

var _ ports.OrderRepository = (*OrderRepository)(nil)

func cloneOrder(o domain.Order) *domain.Order {
	out := o
	out.Items = append([]domain.OrderItem(nil), o.Items...)
	return &out
}

func (r *OrderRepository) Create(ctx context.Context, o *domain.Order) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.orders = append(r.orders, *cloneOrder(*o))
	return nil
}

func (r *OrderRepository) FindByID(ctx context.Context, id string) (*domain.Order, error) {
	return r.find(ctx, func(o domain.Order) bool { return o.ID == id })
}

func (r *OrderRepository) FindByIdempotencyKey(ctx context.Context, buyerID, key string) (*domain.Order, error) {
	return r.find(ctx, func(o domain.Order) bool { return o.BuyerID == buyerID && o.IdempotencyKey == key })
}

func (r *OrderRepository) find(ctx context.Context, match func(domain.Order) bool) (*domain.Order, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, o := range r.orders {
		if match(o) {
			return cloneOrder(o), nil
		}
	}
	return nil, domain.ErrOrderNotFound
}

// ListByBuyer walks the append log backwards, which is newest first.
func (r *OrderRepository) ListByBuyer(ctx context.Context, buyerID string) ([]domain.Order, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]domain.Order, 0)
	for i := len(r.orders) - 1; i >= 0; i-- {
		if r.orders[i].BuyerID == buyerID {
			out = append(out, *cloneOrder(r.orders[i]))
		}
	}
	return out, nil
}
