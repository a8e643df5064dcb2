package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/ecofinds/marketplace/internal/core/domain"
	"github.com/ecofinds/marketplace/internal/core/ports"
)

// CartRepository keeps one row per user with the entries as a JSON array.
type CartRepository struct {
	db *sql.DB
}

func NewCartRepository(db *sql.DB) *CartRepository {
	return &CartRepository{db: db}
}

var _ ports.CartRepository = (*CartRepository)(nil)

func (r *CartRepository) Load(ctx context.Context, userID string) (*domain.Cart, error) {
	var (
		raw       string
		updatedAt int64
	)
	err := r.db.QueryRowContext(ctx, `SELECT entries, updated_at FROM carts WHERE user_id = ?`, userID).
		Scan(&raw, &updatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.NewCart(userID), nil
	}
	if err != nil {
		return nil, fmt.Errorf("load cart: %w", err)
	}

	cart := domain.NewCart(userID)
	if err := json.Unmarshal([]byte(raw), &cart.Entries); err != nil {
		return nil, fmt.Errorf("decode cart: %w", err)
	}
	cart.UpdatedAt = fromUnix(updatedAt)
	return cart, nil
}

func (r *CartRepository) Save(ctx context.Context, cart *domain.Cart) error {
	raw, err := json.Marshal(cart.Entries)
	if err != nil {
		return fmt.Errorf("encode cart: %w", err)
	}
	_, err = r.db.ExecContext(ctx,
		`INSERT INTO carts (user_id, entries, updated_at) VALUES (?, ?, ?)
		 ON CONFLICT (user_id) DO UPDATE SET entries = excluded.entries, updated_at = excluded.updated_at`,
		cart.UserID, string(raw), toUnix(cart.UpdatedAt))
	if err != nil {
		return fmt.Errorf("save cart: %w", err)
	}
	return nil
}

func (r *CartRepository) Delete(ctx context.Context, userID string) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM carts WHERE user_id = ?`, userID); err != nil {
		return fmt.Errorf("delete cart: %w", err)
	}
	return nil
}
