package domain

import "time"

// CartEntry references one listing by id.
type CartEntry struct {
	ListingID string    `json:"listing_id"`
	AddedAt   time.Time `json:"added_at"`
}

// Cart is a user's set of listings selected for purchase, kept in insertion order.
type Cart struct {
	UserID    string      `json:"user_id"`
	Entries   []CartEntry `json:"entries"`
	UpdatedAt time.Time   `json:"updated_at"`
}

func NewCart(userID string) *Cart {
	return &Cart{UserID: userID, Entries: make([]CartEntry, 0)}
}

func (c *Cart) index(listingID string) int {
	for i, e := range c.Entries {
		if e.ListingID == listingID {
			return i
		}
	}
	return -1
}

// Contains reports whether the listing is in the cart.
func (c *Cart) Contains(listingID string) bool {
	return c.index(listingID) >= 0
}

// Add appends the listing unless it is already present. It reports whether
// the cart changed.
func (c *Cart) Add(listingID string, now time.Time) bool {
	if c.Contains(listingID) {
		return false
	}
	c.Entries = append(c.Entries, CartEntry{ListingID: listingID, AddedAt: now})
	c.UpdatedAt = now
	return true
}

// Remove drops the listing if present and reports whether the cart changed.
func (c *Cart) Remove(listingID string, now time.Time) bool {
	i := c.index(listingID)
	if i < 0 {
		return false
	}
	c.Entries = append(c.Entries[:i], c.Entries[i+1:]...)
	c.UpdatedAt = now
	return true
}

func (c *Cart) Clear(now time.Time) {
	c.Entries = make([]CartEntry, 0)
	c.UpdatedAt = now
}

func (c *Cart) Len() int {
	return len(c.Entries)
}

// ListingIDs returns the referenced ids in insertion order.
func (c *Cart) ListingIDs() []string {
	ids := make([]string, len(c.Entries))
	for i, e := range c.Entries {
		ids[i] = e.ListingID
	}
	return ids
}
