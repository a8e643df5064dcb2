package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/ecofinds/marketplace/internal/core/domain"
	"github.com/ecofinds/marketplace/internal/core/ports"
)

type cartService struct {
	carts    ports.CartRepository
	listings ports.ListingRepository
	log      zerolog.Logger
	now      func() time.Time
}

// NewCartService returns the cart ledger. Carts hold listing ids only and are
// resolved against listings on every read.
func NewCartService(carts ports.CartRepository, listings ports.ListingRepository, log zerolog.Logger) ports.CartService {
	return &cartService{
		carts:    carts,
		listings: listings,
		log:      log,
		now:      func() time.Time { return time.Now().UTC() },
	}
}

func (s *cartService) Get(ctx context.Context, userID string) (*ports.CartSnapshot, error) {
	cart, err := s.carts.Load(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("load cart: %w", err)
	}
	return s.resolve(ctx, cart)
}

func (s *cartService) Add(ctx context.Context, userID, listingID string) (*ports.CartSnapshot, error) {
	if _, err := s.listings.FindByID(ctx, listingID); err != nil {
		return nil, err
	}
	cart, err := s.carts.Load(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("load cart: %w", err)
	}
	if cart.Add(listingID, s.now()) {
		if err := s.carts.Save(ctx, cart); err != nil {
			return nil, fmt.Errorf("save cart: %w", err)
		}
		s.log.Debug().Str("user_id", userID).Str("listing_id", listingID).Msg("cart item added")
	}
	return s.resolve(ctx, cart)
}

func (s *cartService) Remove(ctx context.Context, userID, listingID string) (*ports.CartSnapshot, error) {
	cart, err := s.carts.Load(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("load cart: %w", err)
	}
	if cart.Remove(listingID, s.now()) {
		if err := s.carts.Save(ctx, cart); err != nil {
			return nil, fmt.Errorf("save cart: %w", err)
		}
		s.log.Debug().Str("user_id", userID).Str("listing_id", listingID).Msg("cart item removed")
	}
	return s.resolve(ctx, cart)
}

func (s *cartService) Clear(ctx context.Context, userID string) error {
	if err := s.carts.Delete(ctx, userID); err != nil {
		return fmt.Errorf("clear cart: %w", err)
	}
	return nil
}

func (s *cartService) Contains(ctx context.Context, userID, listingID string) (bool, error) {
	cart, err := s.carts.Load(ctx, userID)
	if err != nil {
		return false, fmt.Errorf("load cart: %w", err)
	}
	return cart.Contains(listingID), nil
}

func (s *cartService) Total(ctx context.Context, userID string) (decimal.Decimal, error) {
	snap, err := s.Get(ctx, userID)
	if err != nil {
		return decimal.Zero, err
	}
	return snap.Total, nil
}

// resolve looks up each entry. Entries whose listing is gone are dropped and
// the pruned cart is written back.
func (s *cartService) resolve(ctx context.Context, cart *domain.Cart) (*ports.CartSnapshot, error) {
	items := make([]domain.Listing, 0, cart.Len())
	var dangling []string
	for _, id := range cart.ListingIDs() {
		l, err := s.listings.FindByID(ctx, id)
		if errors.Is(err, domain.ErrListingNotFound) {
			dangling = append(dangling, id)
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("resolve cart item %s: %w", id, err)
		}
		items = append(items, *l)
	}

	if len(dangling) > 0 {
		now := s.now()
		for _, id := range dangling {
			cart.Remove(id, now)
		}
		if err := s.carts.Save(ctx, cart); err != nil {
			s.log.Warn().Err(err).Str("user_id", cart.UserID).Msg("failed to persist pruned cart")
		}
	}

	return &ports.CartSnapshot{
		UserID: cart.UserID,
		Items:  items,
		Total:  domain.SumPrices(items),
	}, nil
}
