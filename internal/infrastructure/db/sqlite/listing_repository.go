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

const listingColumns = `id, title, description, price, category, image_ref, seller_id, seller_name, version, created_at, updated_at`

// ListingRepository implements ports.ListingRepository on SQLite. Rows are
// ordered by their autoincrement seq, which is the insertion order.
type ListingRepository struct {
	db *sql.DB
}

func NewListingRepository(db *sql.DB) *ListingRepository {
	return &ListingRepository{db: db}
}

var _ ports.ListingRepository = (*ListingRepository)(nil)

type rowScanner interface {
	Scan(dest ...any) error
}

func scanListing(row rowScanner) (domain.Listing, error) {
	var (
		l                    domain.Listing
		price, category      string
		createdAt, updatedAt int64
	)
	err := row.Scan(&l.ID, &l.Title, &l.Description, &price, &category, &l.ImageRef,
		&l.Seller.ID, &l.Seller.Username, &l.Version, &createdAt, &updatedAt)
	if err != nil {
		return domain.Listing{}, err
	}
	l.Price, err = decimal.NewFromString(price)
	if err != nil {
		return domain.Listing{}, fmt.Errorf("decode price of %s: %w", l.ID, err)
	}
	l.Category = domain.Category(category)
	l.CreatedAt = fromUnix(createdAt)
	l.UpdatedAt = fromUnix(updatedAt)
	return l, nil
}

func (r *ListingRepository) Create(ctx context.Context, l *domain.Listing) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO listings (`+listingColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		l.ID, l.Title, l.Description, l.Price.String(), string(l.Category), l.ImageRef,
		l.Seller.ID, l.Seller.Username, l.Version, toUnix(l.CreatedAt), toUnix(l.UpdatedAt))
	if err != nil {
		return fmt.Errorf("insert listing: %w", err)
	}
	return nil
}

func (r *ListingRepository) FindByID(ctx context.Context, id string) (*domain.Listing, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+listingColumns+` FROM listings WHERE id = ?`, id)
	l, err := scanListing(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrListingNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("find listing: %w", err)
	}
	return &l, nil
}

func (r *ListingRepository) List(ctx context.Context) ([]domain.Listing, error) {
	return r.query(ctx, `SELECT `+listingColumns+` FROM listings ORDER BY seq`)
}

func (r *ListingRepository) ListBySeller(ctx context.Context, sellerID string) ([]domain.Listing, error) {
	return r.query(ctx, `SELECT `+listingColumns+` FROM listings WHERE seller_id = ? ORDER BY seq`, sellerID)
}

func (r *ListingRepository) query(ctx context.Context, q string, args ...any) ([]domain.Listing, error) {
	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("list listings: %w", err)
	}
	defer rows.Close()

	out := make([]domain.Listing, 0)
	for rows.Next() {
		l, err := scanListing(rows)
		if err != nil {
			return nil, fmt.Errorf("scan listing: %w", err)
		}
		out = append(out, l)
	}
	return out, rows.Err()
}

// Replace is a single conditional UPDATE on id and version.
func (r *ListingRepository) Replace(ctx context.Context, l *domain.Listing, expectedVersion int64) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE listings SET title = ?, description = ?, price = ?, category = ?, image_ref = ?, version = ?, updated_at = ?
		 WHERE id = ? AND version = ?`,
		l.Title, l.Description, l.Price.String(), string(l.Category), l.ImageRef, l.Version, toUnix(l.UpdatedAt),
		l.ID, expectedVersion)
	if err != nil {
		return fmt.Errorf("replace listing: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("replace listing: %w", err)
	}
	if n > 0 {
		return nil
	}

	var exists int
	err = r.db.QueryRowContext(ctx, `SELECT COUNT(1) FROM listings WHERE id = ?`, l.ID).Scan(&exists)
	if err != nil {
		return fmt.Errorf("replace listing: %w", err)
	}
	if exists == 0 {
		return domain.ErrListingNotFound
	}
	return domain.ErrVersionConflict
}

func (r *ListingRepository) Delete(ctx context.Context, id string) (bool, error) {
	res, err := r.db.ExecContext(ctx, `DELETE FROM listings WHERE id = ?`, id)
	if err != nil {
		return false, fmt.Errorf("delete listing: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("delete listing: %w", err)
	}
	return n > 0, nil
}
