package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/ecofinds/marketplace/internal/core/domain"
	"github.com/ecofinds/marketplace/internal/core/ports"
)

// OrderRepository implements ports.OrderRepository. Order items live in their
// own table and are written in the same transaction as the order row.
type OrderRepository struct {
	db *sql.DB
}

func NewOrderRepository(db *sql.DB) *OrderRepository {
	return &OrderRepository{db: db}
}

var _ ports.OrderRepository = (*OrderRepository)(nil)

func (r *OrderRepository) Create(ctx context.Context, o *domain.Order) (err error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("insert order: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	_, err = tx.ExecContext(ctx,
		`INSERT INTO orders (id, buyer_id, total, status, idempotency_key, created_at) VALUES (?, ?, ?, ?, ?, ?)`,
		o.ID, o.BuyerID, o.Total.String(), string(o.Status), o.IdempotencyKey, toUnix(o.CreatedAt))
	if err != nil {
		return fmt.Errorf("insert order: %w", err)
	}
	for i, it := range o.Items {
		_, err = tx.ExecContext(ctx,
			`INSERT INTO order_items (order_id, position, listing_id, title, seller_id, price) VALUES (?, ?, ?, ?, ?, ?)`,
			o.ID, i, it.ListingID, it.Title, it.SellerID, it.Price.String())
		if err != nil {
			return fmt.Errorf("insert order item: %w", err)
		}
	}
	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit order: %w", err)
	}
	return nil
}

const orderColumns = `id, buyer_id, total, status, idempotency_key, created_at`

func (r *OrderRepository) FindByID(ctx context.Context, id string) (*domain.Order, error) {
	return r.findOne(ctx, `SELECT `+orderColumns+` FROM orders WHERE id = ?`, id)
}

func (r *OrderRepository) FindByIdempotencyKey(ctx context.Context, buyerID, key string) (*domain.Order, error) {
	return r.findOne(ctx, `SELECT `+orderColumns+` FROM orders WHERE buyer_id = ? AND idempotency_key = ?`, buyerID, key)
}

func (r *OrderRepository) findOne(ctx context.Context, q string, args ...any) (*domain.Order, error) {
	o, err := scanOrder(r.db.QueryRowContext(ctx, q, args...))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrOrderNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("find order: %w", err)
	}
	if o.Items, err = r.items(ctx, o.ID); err != nil {
		return nil, err
	}
	return &o, nil
}

func (r *OrderRepository) ListByBuyer(ctx context.Context, buyerID string) ([]domain.Order, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+orderColumns+` FROM orders WHERE buyer_id = ? ORDER BY created_at DESC, rowid DESC`, buyerID)
	if err != nil {
		return nil, fmt.Errorf("list orders: %w", err)
	}
	out := make([]domain.Order, 0)
	for rows.Next() {
		o, err := scanOrder(rows)
		if err != nil {
			_ = rows.Close()
			return nil, fmt.Errorf("scan order: %w", err)
		}
		out = append(out, o)
	}
	if err := rows.Close(); err != nil {
		return nil, err
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	// Items are loaded after the cursor is closed: the pool has one connection.
	for i := range out {
		if out[i].Items, err = r.items(ctx, out[i].ID); err != nil {
			return nil, err
		}
	}
	return out, nil
}

func (r *OrderRepository) items(ctx context.Context, orderID string) ([]domain.OrderItem, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT listing_id, title, seller_id, price FROM order_items WHERE order_id = ? ORDER BY position`, orderID)
	if err != nil {
		return nil, fmt.Errorf("list order items: %w", err)
	}
	defer rows.Close()

	items := make([]domain.OrderItem, 0)
	for rows.Next() {
		var (
			it    domain.OrderItem
			price string
		)
		if err := rows.Scan(&it.ListingID, &it.Title, &it.SellerID, &price); err != nil {
			return nil, fmt.Errorf("scan order item: %w", err)
		}
		if it.Price, err = decimal.NewFromString(price); err != nil {
			return nil, fmt.Errorf("decode item price: %w", err)
		}
		items = append(items, it)
	}
	return items, rows.Err()
}

func scanOrder(row rowScanner) (domain.Order, error) {
	var (
		o             domain.Order
		total, status string
		createdAt     int64
	)
	if err := row.Scan(&o.ID, &o.BuyerID, &total, &status, &o.IdempotencyKey, &createdAt); err != nil {
		return domain.Order{}, err
	}
	var err error
	if o.Total, err = decimal.NewFromString(total); err != nil {
		return domain.Order{}, fmt.Errorf("decode total of %s: %w", o.ID, err)
	}
	o.Status = domain.OrderStatus(status)
	o.CreatedAt = fromUnix(createdAt)
	return o, nil
}
