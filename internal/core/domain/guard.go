package domain

// CanMutate reports whether actor may update or delete the listing.
// Anonymous actors can never mutate.
func CanMutate(l Listing, actor *User) bool {
	if actor == nil || actor.ID == "" {
		return false
	}
	return l.Seller.ID == actor.ID
}
