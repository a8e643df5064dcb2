package domain

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// Category is one value of the closed listing category enumeration.
type Category string

const (
	CategoryClothing    Category = "clothing"
	CategoryElectronics Category = "electronics"
	CategoryFurniture   Category = "furniture"
	CategoryBooks       Category = "books"
	CategoryToys        Category = "toys"
	CategorySports      Category = "sports"
	CategoryHome        Category = "home"
	CategoryGarden      Category = "garden"
	CategoryOther       Category = "other"
)

// CategoryInfo pairs a category with its display label.
type CategoryInfo struct {
	Value Category `json:"value"`
	Label string   `json:"label"`
}

var categories = []CategoryInfo{
	{Value: CategoryClothing, Label: "Clothing"},
	{Value: CategoryElectronics, Label: "Electronics"},
	{Value: CategoryFurniture, Label: "Furniture"},
	{Value: CategoryBooks, Label: "Books"},
	{Value: CategoryToys, Label: "Toys"},
	{Value: CategorySports, Label: "Sports & Outdoors"},
	{Value: CategoryHome, Label: "Home Goods"},
	{Value: CategoryGarden, Label: "Garden"},
	{Value: CategoryOther, Label: "Other"},
}

// Categories returns the enumeration in display order. The slice is a copy.
func Categories() []CategoryInfo {
	out := make([]CategoryInfo, len(categories))
	copy(out, categories)
	return out
}

// Valid reports whether c belongs to the enumeration.
func (c Category) Valid() bool {
	for _, info := range categories {
		if info.Value == c {
			return true
		}
	}
	return false
}

// Seller identifies the user who created a listing.
type Seller struct {
	ID       string `json:"id"`
	Username string `json:"username"`
}

// Listing is a single item offered for sale.
type Listing struct {
	ID          string
	Title       string
	Description string
	Price       decimal.Decimal
	Category    Category
	ImageRef    string
	Seller      Seller
	Version     int64
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// ListingDraft carries the caller-supplied fields of a new listing.
type ListingDraft struct {
	Title       string
	Description string
	Price       decimal.Decimal
	Category    Category
	ImageRef    string
}

// ListingPatch is a partial update. Nil fields are left unchanged.
// ExpectedVersion, when non-zero, must match the stored version.
type ListingPatch struct {
	Title           *string
	Description     *string
	Price           *decimal.Decimal
	Category        *Category
	ImageRef        *string
	ExpectedVersion int64
}

// MaxPrice is the highest accepted listing price.
var MaxPrice = decimal.New(100_000_000, 0)

const (
	maxPriceIntegerDigits = 9
	// maxPriceDigits bounds both the coefficient length and the negative
	// exponent of an incoming price.
	maxPriceDigits = 30
)

// Normalize trims text fields and rounds the price to cents. A price outside
// the accepted range is left as given for Validate to reject.
func (d ListingDraft) Normalize() ListingDraft {
	d.Title = strings.TrimSpace(d.Title)
	d.Description = strings.TrimSpace(d.Description)
	if checkPriceRange(d.Price) == nil {
		d.Price = d.Price.Round(2)
	}
	d.ImageRef = strings.TrimSpace(d.ImageRef)
	return d
}

// Validate checks a normalized draft.
func (d ListingDraft) Validate() error {
	if d.Title == "" {
		return invalid("title", "must not be empty")
	}
	if d.Description == "" {
		return invalid("description", "must not be empty")
	}
	if err := validatePrice(d.Price); err != nil {
		return err
	}
	if !d.Category.Valid() {
		return invalid("category", "unknown category "+string(d.Category))
	}
	return nil
}

// Empty reports whether the patch touches no field.
func (p ListingPatch) Empty() bool {
	return p.Title == nil && p.Description == nil && p.Price == nil && p.Category == nil && p.ImageRef == nil
}

// Apply returns a copy of l with the patch applied. Only touched fields are
// re-validated; l itself is never modified.
func (p ListingPatch) Apply(l Listing) (Listing, error) {
	next := l
	if p.Title != nil {
		title := strings.TrimSpace(*p.Title)
		if title == "" {
			return l, invalid("title", "must not be empty")
		}
		next.Title = title
	}
	if p.Description != nil {
		desc := strings.TrimSpace(*p.Description)
		if desc == "" {
			return l, invalid("description", "must not be empty")
		}
		next.Description = desc
	}
	if p.Price != nil {
		if err := checkPriceRange(*p.Price); err != nil {
			return l, err
		}
		price := p.Price.Round(2)
		if err := validatePrice(price); err != nil {
			return l, err
		}
		next.Price = price
	}
	if p.Category != nil {
		if !p.Category.Valid() {
			return l, invalid("category", "unknown category "+string(*p.Category))
		}
		next.Category = *p.Category
	}
	if p.ImageRef != nil {
		next.ImageRef = strings.TrimSpace(*p.ImageRef)
	}
	return next, nil
}

// checkPriceRange looks only at the coefficient length and exponent, so it
// never rescales. Rounding or comparing a value like 1e2000000000 would.
func checkPriceRange(price decimal.Decimal) error {
	digits, exp := int64(price.NumDigits()), int64(price.Exponent())
	if digits > maxPriceDigits || exp < -maxPriceDigits {
		return invalid("price", "has too many digits")
	}
	if digits+exp > maxPriceIntegerDigits {
		return invalid("price", "must be at most "+MaxPrice.String())
	}
	return nil
}

func validatePrice(price decimal.Decimal) error {
	if err := checkPriceRange(price); err != nil {
		return err
	}
	if price.GreaterThan(MaxPrice) {
		return invalid("price", "must be at most "+MaxPrice.String())
	}
	if !price.IsPositive() {
		return invalid("price", "must be greater than 0")
	}
	return nil
}

// SumPrices adds the current prices of the given listings.
func SumPrices(listings []Listing) decimal.Decimal {
	total := decimal.Zero
	for _, l := range listings {
		total = total.Add(l.Price)
	}
	return total
}
