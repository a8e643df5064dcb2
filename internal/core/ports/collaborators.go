package ports

import (
	"context"

	"github.com/ecofinds/marketplace/internal/core/domain"
)

// IdentityProvider supplies the acting user. The core never authenticates.
type IdentityProvider interface {
	CurrentUser(ctx context.Context) (*domain.User, bool)
}

// ImageStore keeps listing images outside the core. References are opaque.
type ImageStore interface {
	Upload(ctx context.Context, filename string, data []byte) (ref string, err error)
	Resolve(ref string) string
}

// EventPublisher delivers domain events to downstream consumers.
type EventPublisher interface {
	Publish(ctx context.Context, event domain.Event) error
}
