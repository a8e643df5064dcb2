package handler

import (
	"time"

	"github.com/ecofinds/marketplace/internal/core/domain"
	"github.com/ecofinds/marketplace/internal/core/ports"
)

type addCartItemRequest struct {
	ListingID string `json:"listing_id" validate:"required"`
}

type cartResponse struct {
	UserID string            `json:"user_id"`
	Items  []listingResponse `json:"items"`
	Count  int               `json:"count"`
	Total  string            `json:"total" example:"385.99"`
}

type cartContainsResponse struct {
	ListingID string `json:"listing_id"`
	InCart    bool   `json:"in_cart"`
}

type orderItemResponse struct {
	ListingID string `json:"listing_id"`
	Title     string `json:"title"`
	SellerID  string `json:"seller_id"`
	Price     string `json:"price"`
}

type orderResponse struct {
	ID             string              `json:"id"`
	Status         string              `json:"status"`
	Items          []orderItemResponse `json:"items"`
	Total          string              `json:"total"`
	IdempotencyKey string              `json:"idempotency_key,omitempty"`
	CreatedAt      time.Time           `json:"created_at"`
}

type ordersResponse struct {
	Items []orderResponse `json:"items"`
	Count int             `json:"count"`
}

func toCartResponse(s *ports.CartSnapshot, images ports.ImageStore, actor *domain.User) cartResponse {
	items := make([]listingResponse, len(s.Items))
	for i, l := range s.Items {
		items[i] = toListingResponse(l, images, actor)
	}
	return cartResponse{
		UserID: s.UserID,
		Items:  items,
		Count:  len(items),
		Total:  s.Total.StringFixed(2),
	}
}

func toOrderResponse(o *domain.Order) orderResponse {
	items := make([]orderItemResponse, len(o.Items))
	for i, it := range o.Items {
		items[i] = orderItemResponse{
			ListingID: it.ListingID,
			Title:     it.Title,
			SellerID:  it.SellerID,
			Price:     it.Price.StringFixed(2),
		}
	}
	return orderResponse{
		ID:             o.ID,
		Status:         string(o.Status),
		Items:          items,
		Total:          o.Total.StringFixed(2),
		IdempotencyKey: o.IdempotencyKey,
		CreatedAt:      o.CreatedAt.UTC(),
	}
}
