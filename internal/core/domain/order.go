package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// OrderStatus represents the lifecycle state of an order.
type OrderStatus string

const StatusPlaced OrderStatus = "placed"

// OrderItem captures a listing as it was at checkout time.
type OrderItem struct {
	ListingID string
	Title     string
	SellerID  string
	Price     decimal.Decimal
}

// Order is an acknowledged purchase of the listings in a cart.
type Order struct {
	ID             string
	BuyerID        string
	Items          []OrderItem
	Total          decimal.Decimal
	Status         OrderStatus
	IdempotencyKey string
	CreatedAt      time.Time
}

// NewOrder snapshots listings into order items. It fails on an empty selection.
func NewOrder(id, buyerID string, listings []Listing, idempotencyKey string, now time.Time) (*Order, error) {
	if len(listings) == 0 {
		return nil, invalid("cart", "cart is empty")
	}
	items := make([]OrderItem, len(listings))
	for i, l := range listings {
		items[i] = OrderItem{
			ListingID: l.ID,
			Title:     l.Title,
			SellerID:  l.Seller.ID,
			Price:     l.Price,
		}
	}
	return &Order{
		ID:             id,
		BuyerID:        buyerID,
		Items:          items,
		Total:          SumPrices(listings),
		Status:         StatusPlaced,
		IdempotencyKey: idempotencyKey,
		CreatedAt:      now,
	}, nil
}
