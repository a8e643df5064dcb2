package ports

import (
	"context"

	"github.com/ecofinds/marketplace/internal/core/domain"
)

// CartRepository is the durable session storage for carts.
type CartRepository interface {
	// Load returns an empty cart when the user has none.
	Load(ctx context.Context, userID string) (*domain.Cart, error)
	Save(ctx context.Context, cart *domain.Cart) error
	Delete(ctx context.Context, userID string) error
}

// CheckoutLock serialises checkouts of the same user.
type CheckoutLock interface {
	// Acquire returns domain.ErrCheckoutInProgress when the lock is held.
	Acquire(ctx context.Context, userID string) (release func(), err error)
}
