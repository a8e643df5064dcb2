// Package catalog derives the browsable view of the listing store.
package catalog

import (
	"strings"

	"github.com/ecofinds/marketplace/internal/core/domain"
)

// Query narrows the catalog. Zero values disable the corresponding filter.
type Query struct {
	Category domain.Category
	Search   string
}

// IsZero reports whether the query applies no filter.
func (q Query) IsZero() bool {
	return q.Category == "" && q.Search == ""
}

// Filter returns the listings matching q in their original order. Category
// must match exactly; Search is a case-insensitive substring of the title or
// the description. Both filters combine with AND. The input is not modified.
func Filter(listings []domain.Listing, q Query) []domain.Listing {
	if q.IsZero() {
		out := make([]domain.Listing, len(listings))
		copy(out, listings)
		return out
	}

	needle := strings.ToLower(q.Search)
	out := make([]domain.Listing, 0, len(listings))
	for _, l := range listings {
		if q.Category != "" && l.Category != q.Category {
			continue
		}
		if needle != "" && !matches(l, needle) {
			continue
		}
		out = append(out, l)
	}
	return out
}

func matches(l domain.Listing, needle string) bool {
	return strings.Contains(strings.ToLower(l.Title), needle) ||
		strings.Contains(strings.ToLower(l.Description), needle)
}

// Categories lists the filterable categories with their display labels.
func Categories() []domain.CategoryInfo {
	return domain.Categories()
}
