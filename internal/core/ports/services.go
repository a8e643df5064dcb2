package ports

import (
	"context"

	"github.com/shopspring/decimal"

	"github.com/ecofinds/marketplace/internal/core/catalog"
	"github.com/ecofinds/marketplace/internal/core/domain"
)

// ListingService is the product store use-case surface.
type ListingService interface {
	Create(ctx context.Context, actor *domain.User, draft domain.ListingDraft) (*domain.Listing, error)
	Get(ctx context.Context, id string) (*domain.Listing, error)
	ListAll(ctx context.Context) ([]domain.Listing, error)
	ListByOwner(ctx context.Context, ownerID string) ([]domain.Listing, error)
	Browse(ctx context.Context, q catalog.Query) ([]domain.Listing, error)
	Update(ctx context.Context, id string, actor *domain.User, patch domain.ListingPatch) (*domain.Listing, error)
	Delete(ctx context.Context, id string, actor *domain.User) (bool, error)
	// RenameSeller rewrites the seller snapshot on every listing owned by
	// seller.ID and returns how many listings changed.
	RenameSeller(ctx context.Context, seller domain.Seller) (int, error)
}

// CartSnapshot is a cart resolved against the live listing store.
type CartSnapshot struct {
	UserID string
	Items  []domain.Listing
	Total  decimal.Decimal
}

// CartService is the cart ledger use-case surface.
type CartService interface {
	Get(ctx context.Context, userID string) (*CartSnapshot, error)
	Add(ctx context.Context, userID, listingID string) (*CartSnapshot, error)
	Remove(ctx context.Context, userID, listingID string) (*CartSnapshot, error)
	Clear(ctx context.Context, userID string) error
	Contains(ctx context.Context, userID, listingID string) (bool, error)
	Total(ctx context.Context, userID string) (decimal.Decimal, error)
}

// CheckoutResult is returned by Checkout.
type CheckoutResult struct {
	Order *domain.Order
	// AlreadyExisted is true when the Idempotency-Key matched an existing order.
	AlreadyExisted bool
}

// OrderService covers checkout and purchase history.
type OrderService interface {
	Checkout(ctx context.Context, buyerID, idempotencyKey string) (*CheckoutResult, error)
	Purchases(ctx context.Context, buyerID string) ([]domain.Order, error)
	GetOrder(ctx context.Context, buyerID, orderID string) (*domain.Order, error)
}

// AuthService is the bundled identity provider.
type AuthService interface {
	Register(ctx context.Context, username, password, email string) (*domain.User, error)
	Login(ctx context.Context, email, password string) (string, *domain.User, error)
	// Verify parses a bearer token into the user it was issued for.
	Verify(token string) (*domain.User, error)
	// UpdateProfile changes the username and returns a token carrying it.
	UpdateProfile(ctx context.Context, userID, username string) (string, *domain.User, error)
}
