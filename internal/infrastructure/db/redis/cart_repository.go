package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/ecofinds/marketplace/internal/core/domain"
)

const (
	cartKeyPrefix  = "cart:"
	defaultCartTTL = 30 * 24 * time.Hour
)

// CartRepository stores each cart as a JSON document under cart:<user_id>.
// Every save refreshes the TTL, so idle carts expire.
type CartRepository struct {
	client *redis.Client
	ttl    time.Duration
}

func NewCartRepository(client *redis.Client, ttl time.Duration) *CartRepository {
	if ttl <= 0 {
		ttl = defaultCartTTL
	}
	return &CartRepository{client: client, ttl: ttl}
}

func cartKey(userID string) string {
	return cartKeyPrefix + userID
}

func (r *CartRepository) Load(ctx context.Context, userID string) (*domain.Cart, error) {
	val, err := r.client.Get(ctx, cartKey(userID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return domain.NewCart(userID), nil
	}
	if err != nil {
		return nil, fmt.Errorf("get cart for user %s: %w", userID, err)
	}

	var cart domain.Cart
	if err := json.Unmarshal(val, &cart); err != nil {
		return nil, fmt.Errorf("unmarshal cart for user %s: %w", userID, err)
	}
	cart.UserID = userID
	if cart.Entries == nil {
		cart.Entries = make([]domain.CartEntry, 0)
	}
	return &cart, nil
}

func (r *CartRepository) Save(ctx context.Context, cart *domain.Cart) error {
	if cart == nil || cart.UserID == "" {
		return errors.New("cannot save nil cart or cart with empty user id")
	}
	data, err := json.Marshal(cart)
	if err != nil {
		return fmt.Errorf("marshal cart for user %s: %w", cart.UserID, err)
	}
	if err := r.client.Set(ctx, cartKey(cart.UserID), data, r.ttl).Err(); err != nil {
		return fmt.Errorf("save cart for user %s: %w", cart.UserID, err)
	}
	return nil
}

func (r *CartRepository) Delete(ctx context.Context, userID string) error {
	if err := r.client.Del(ctx, cartKey(userID)).Err(); err != nil {
		return fmt.Errorf("delete cart for user %s: %w", userID, err)
	}
	return nil
}
