package ports

import (
	"context"

	"github.com/ecofinds/marketplace/internal/core/domain"
)

// ListingRepository defines persistence operations for listings.
type ListingRepository interface {
	Create(ctx context.Context, l *domain.Listing) error
	// FindByID returns domain.ErrListingNotFound when the id is absent.
	FindByID(ctx context.Context, id string) (*domain.Listing, error)
	// List returns every listing in insertion order.
	List(ctx context.Context) ([]domain.Listing, error)
	ListBySeller(ctx context.Context, sellerID string) ([]domain.Listing, error)
	// Replace atomically swaps the stored record for l, provided the stored
	// version still equals expectedVersion. It returns domain.ErrListingNotFound
	// or domain.ErrVersionConflict otherwise.
	Replace(ctx context.Context, l *domain.Listing, expectedVersion int64) error
	// Delete reports whether a record was removed.
	Delete(ctx context.Context, id string) (bool, error)
}
