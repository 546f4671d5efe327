// Package browse projects a page of cross-profile listings through the viewer's filters.
package browse

import (
	"cmp"
	"slices"
	"strings"

	"github.com/janisto/campus-market/internal/market/catalog"
	"github.com/janisto/campus-market/internal/service/listing"
)

// Filter is the viewer's search state. Empty fields match everything.
type Filter struct {
	Query    string
	Category string
	MinPrice *float64
	MaxPrice *float64
}

// Match reports whether l passes every predicate: text, category, price range and status.
func (f Filter) Match(l *listing.Listing) bool {
	return f.matchText(l) && f.matchCategory(l) && f.matchPrice(l) && l.Status == catalog.StatusActive
}

func (f Filter) matchText(l *listing.Listing) bool {
	if f.Query == "" {
		return true
	}
	q := strings.ToLower(f.Query)
	return strings.Contains(strings.ToLower(l.Title), q) || strings.Contains(strings.ToLower(l.Description), q)
}

func (f Filter) matchCategory(l *listing.Listing) bool {
	return catalog.IsWildcard(f.Category) || l.Category == f.Category
}

func (f Filter) matchPrice(l *listing.Listing) bool {
	if f.MinPrice != nil && l.Price < *f.MinPrice {
		return false
	}
	if f.MaxPrice != nil && l.Price > *f.MaxPrice {
		return false
	}
	return true
}

// Active reports whether any filter narrows the results.
func (f Filter) Active() bool {
	return f.Query != "" || !catalog.IsWildcard(f.Category) || f.MinPrice != nil || f.MaxPrice != nil
}

// Equal reports whether f and o select the same listings.
func (f Filter) Equal(o Filter) bool {
	return f.Query == o.Query &&
		(f.Category == o.Category || catalog.IsWildcard(f.Category) && catalog.IsWildcard(o.Category)) &&
		equalBound(f.MinPrice, o.MinPrice) &&
		equalBound(f.MaxPrice, o.MaxPrice)
}

func equalBound(a, b *float64) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}

// Apply returns the listings to display and their count: the listings passing f, minus
// those owned by viewerID, newest first.
func Apply(listings []*listing.Listing, viewerID string, f Filter) ([]*listing.Listing, int) {
	out := make([]*listing.Listing, 0, len(listings))
	for _, l := range listings {
		if l.ProfileID != viewerID && f.Match(l) {
			out = append(out, l)
		}
	}
	slices.SortStableFunc(out, func(a, b *listing.Listing) int {
		return cmp.Compare(b.CreatedAt.UnixNano(), a.CreatedAt.UnixNano())
	})
	return out, len(out)
}
