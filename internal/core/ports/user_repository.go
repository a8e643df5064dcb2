package ports

import (
	"context"

	"github.com/ecofinds/marketplace/internal/core/domain"
)

// UserRepository defines the interface for user authentication persistence.
type UserRepository interface {
	FindByEmail(ctx context.Context, email string) (*domain.User, error)
	FindByID(ctx context.Context, id string) (*domain.User, error)
	Create(ctx context.Context, user *domain.User) (*domain.User, error)
	// Update overwrites the profile fields of an existing user.
	Update(ctx context.Context, user *domain.User) error
}
