// Package identity carries the authenticated user through a request context.
package identity

import (
	"context"

	"github.com/ecofinds/marketplace/internal/core/domain"
)

type ctxKey struct{}

// WithUser returns a copy of ctx carrying u.
func WithUser(ctx context.Context, u *domain.User) context.Context {
	return context.WithValue(ctx, ctxKey{}, u)
}

// FromContext returns the user stored by WithUser, if any.
func FromContext(ctx context.Context) (*domain.User, bool) {
	u, ok := ctx.Value(ctxKey{}).(*domain.User)
	return u, ok && u != nil
}

// ContextProvider implements ports.IdentityProvider over request contexts.
type ContextProvider struct{}

func (ContextProvider) CurrentUser(ctx context.Context) (*domain.User, bool) {
	return FromContext(ctx)
}
