package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/ecofinds/marketplace/internal/core/domain"
	"github.com/ecofinds/marketplace/internal/core/ports"
)

type orderService struct {
	orders    ports.OrderRepository
	carts     ports.CartService
	lock      ports.CheckoutLock
	publisher ports.EventPublisher
	log       zerolog.Logger
	now       func() time.Time
}

// NewOrderService returns the checkout service. lock and publisher may be nil.
func NewOrderService(
	orders ports.OrderRepository,
	carts ports.CartService,
	lock ports.CheckoutLock,
	publisher ports.EventPublisher,
	log zerolog.Logger,
) ports.OrderService {
	return &orderService{
		orders:    orders,
		carts:     carts,
		lock:      lock,
		publisher: publisher,
		log:       log,
		now:       func() time.Time { return time.Now().UTC() },
	}
}

// Checkout turns the buyer's cart into an order. The order is persisted
// before the cart is cleared, so a failure before that point leaves the cart
// as it was. A repeated idempotency key returns the order it produced.
func (s *orderService) Checkout(ctx context.Context, buyerID, idempotencyKey string) (*ports.CheckoutResult, error) {
	if buyerID == "" {
		return nil, domain.ErrUnauthenticated
	}

	if s.lock != nil {
		release, err := s.lock.Acquire(ctx, buyerID)
		if err != nil {
			return nil, err
		}
		defer release()
	}

	if idempotencyKey != "" {
		existing, err := s.orders.FindByIdempotencyKey(ctx, buyerID, idempotencyKey)
		if err == nil {
			s.log.Info().Str("idempotency_key", idempotencyKey).Str("order_id", existing.ID).Msg("idempotent replay")
			return &ports.CheckoutResult{Order: existing, AlreadyExisted: true}, nil
		}
		if !errors.Is(err, domain.ErrOrderNotFound) {
			return nil, fmt.Errorf("checkout: %w", err)
		}
	}

	snap, err := s.carts.Get(ctx, buyerID)
	if err != nil {
		return nil, fmt.Errorf("checkout: %w", err)
	}

	order, err := domain.NewOrder(uuid.NewString(), buyerID, snap.Items, idempotencyKey, s.now())
	if err != nil {
		return nil, err
	}
	if err := s.orders.Create(ctx, order); err != nil {
		s.log.Error().Err(err).Str("buyer_id", buyerID).Msg("failed to persist order")
		return nil, fmt.Errorf("checkout: %w", err)
	}

	// The order is acknowledged; a stale cart is preferable to a lost order.
	if err := s.carts.Clear(ctx, buyerID); err != nil {
		s.log.Warn().Err(err).Str("buyer_id", buyerID).Str("order_id", order.ID).Msg("failed to clear cart after checkout")
	}

	s.log.Info().
		Str("order_id", order.ID).
		Str("buyer_id", buyerID).
		Int("items", len(order.Items)).
		Str("total", order.Total.StringFixed(2)).
		Msg("order placed")

	if s.publisher != nil {
		if err := s.publisher.Publish(ctx, domain.NewOrderPlacedEvent(order)); err != nil {
			s.log.Warn().Err(err).Str("order_id", order.ID).Msg("failed to publish event")
		}
	}
	return &ports.CheckoutResult{Order: order}, nil
}

func (s *orderService) Purchases(ctx context.Context, buyerID string) ([]domain.Order, error) {
	return s.orders.ListByBuyer(ctx, buyerID)
}

// GetOrder hides orders of other buyers behind ErrOrderNotFound.
func (s *orderService) GetOrder(ctx context.Context, buyerID, orderID string) (*domain.Order, error) {
	order, err := s.orders.FindByID(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if order.BuyerID != buyerID {
		return nil, domain.ErrOrderNotFound
	}
	return order, nil
}
