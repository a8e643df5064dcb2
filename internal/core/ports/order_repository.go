package ports

import (
	"context"

	"github.com/ecofinds/marketplace/internal/core/domain"
)

// OrderRepository persists acknowledged purchases.
type OrderRepository interface {
	Create(ctx context.Context, o *domain.Order) error
	// FindByID returns domain.ErrOrderNotFound when the id is absent.
	FindByID(ctx context.Context, id string) (*domain.Order, error)
	FindByIdempotencyKey(ctx context.Context, buyerID, key string) (*domain.Order, error)
	// ListByBuyer returns the buyer's orders, newest first.
	ListByBuyer(ctx context.Context, buyerID string) ([]domain.Order, error)
}
