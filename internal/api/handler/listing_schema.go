package handler

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/ecofinds/marketplace/internal/core/domain"
)

// --- Request / Response types ---

type createListingRequest struct {
	Title       string          `json:"title"       validate:"required,max=120"`
	Description string          `json:"description" validate:"required,max=5000"`
	Price       decimal.Decimal `json:"price"       swaggertype:"string" example:"35.99"`
	Category    string          `json:"category"    validate:"required" example:"books"`
	ImageRef    string          `json:"image_ref,omitempty"`
}

// updateListingRequest is a partial update; absent fields stay unchanged.
type updateListingRequest struct {
	Title       *string          `json:"title,omitempty"       validate:"omitempty,max=120"`
	Description *string          `json:"description,omitempty" validate:"omitempty,max=5000"`
	Price       *decimal.Decimal `json:"price,omitempty"       swaggertype:"string"`
	Category    *string          `json:"category,omitempty"`
	ImageRef    *string          `json:"image_ref,omitempty"`
	Version     *int64           `json:"version,omitempty"`
}

type listingResponse struct {
	ID          string        `json:"id"`
	Title       string        `json:"title"`
	Description string        `json:"description"`
	Price       string        `json:"price" example:"35.99"`
	Category    string        `json:"category"`
	ImageRef    string        `json:"image_ref,omitempty"`
	ImageURL    string        `json:"image_url,omitempty"`
	Seller      domain.Seller `json:"seller"`
	Version     int64         `json:"version"`
	CreatedAt   time.Time     `json:"created_at"`
	UpdatedAt   time.Time     `json:"updated_at"`
	CanEdit     bool          `json:"can_edit"`
}

type listingsResponse struct {
	Items []listingResponse `json:"items"`
	Count int               `json:"count"`
}

type deleteListingResponse struct {
	ID      string `json:"id"`
	Deleted bool   `json:"deleted"`
}

type categoriesResponse struct {
	Items []domain.CategoryInfo `json:"items"`
}
