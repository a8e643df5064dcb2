package domain

import "time"

const (
	SubjectListingCreated = "marketplace.listing.created"
	SubjectListingUpdated = "marketplace.listing.updated"
	SubjectListingDeleted = "marketplace.listing.deleted"
	SubjectOrderPlaced    = "marketplace.order.placed"
)

// Event is a state transition published to downstream consumers.
// Key identifies the aggregate; events sharing a key are delivered in order.
type Event struct {
	Subject    string
	Key        string
	OccurredAt time.Time
	Payload    any
}

// ListingEventPayload is the wire body of listing events.
type ListingEventPayload struct {
	ListingID string `json:"listing_id"`
	SellerID  string `json:"seller_id"`
	Title     string `json:"title,omitempty"`
	Category  string `json:"category,omitempty"`
	Price     string `json:"price,omitempty"`
	Version   int64  `json:"version,omitempty"`
}

// OrderPlacedPayload is the wire body of order.placed events.
type OrderPlacedPayload struct {
	OrderID    string   `json:"order_id"`
	BuyerID    string   `json:"buyer_id"`
	Total      string   `json:"total"`
	ListingIDs []string `json:"listing_ids"`
}

func NewListingEvent(subject string, l Listing, now time.Time) Event {
	p := ListingEventPayload{ListingID: l.ID, SellerID: l.Seller.ID}
	if subject != SubjectListingDeleted {
		p.Title = l.Title
		p.Category = string(l.Category)
		p.Price = l.Price.StringFixed(2)
		p.Version = l.Version
	}
	return Event{Subject: subject, Key: l.ID, OccurredAt: now, Payload: p}
}

func NewOrderPlacedEvent(o *Order) Event {
	ids := make([]string, len(o.Items))
	for i, it := range o.Items {
		ids[i] = it.ListingID
	}
	return Event{
		Subject:    SubjectOrderPlaced,
		Key:        o.BuyerID,
		OccurredAt: o.CreatedAt,
		Payload: OrderPlacedPayload{
			OrderID:    o.ID,
			BuyerID:    o.BuyerID,
			Total:      o.Total.StringFixed(2),
			ListingIDs: ids,
		},
	}
}
