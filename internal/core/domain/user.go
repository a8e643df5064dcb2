package domain

import "time"

// User models an authenticated actor in the system.
type User struct {
	ID           string    `json:"id"`
	Username     string    `json:"username"`
	Email        string    `json:"email,omitempty"`
	PasswordHash string    `json:"-"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// AsSeller returns the seller reference recorded on listings the user creates.
func (u User) AsSeller() Seller {
	return Seller{ID: u.ID, Username: u.Username}
}
