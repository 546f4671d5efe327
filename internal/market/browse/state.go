package browse

import (
	"fmt"
	"strconv"
	"sync"

	"github.com/janisto/campus-market/internal/market/cache"
	"github.com/janisto/campus-market/internal/platform/pagination"
	"github.com/janisto/campus-market/internal/service/listing"
)

// State is one viewer's browse position. Changing the filter returns to page 1.
type State struct {
	filter   Filter
	page     int
	pageSize int
}

// NewState starts on page 1 with no filters.
func NewState(pageSize int) *State {
	page, size := pagination.Params{Page: 1, PageSize: pageSize}.Normalize()
	return &State{page: page, pageSize: size}
}

func (s *State) Filter() Filter { return s.filter }
func (s *State) Page() int      { return s.page }
func (s *State) PageSize() int  { return s.pageSize }

// SetFilter replaces the filter; a different filter resets the page to 1.
func (s *State) SetFilter(f Filter) {
	if !s.filter.Equal(f) {
		s.page = 1
	}
	s.filter = f
}

// SetQuery changes the text filter.
func (s *State) SetQuery(q string) {
	f := s.filter
	f.Query = q
	s.SetFilter(f)
}

// SetCategory changes the category filter.
func (s *State) SetCategory(c string) {
	f := s.filter
	f.Category = c
	s.SetFilter(f)
}

// SetPriceRange changes the price bounds. Nil leaves a side open.
func (s *State) SetPriceRange(minPrice, maxPrice *float64) {
	f := s.filter
	f.MinPrice, f.MaxPrice = minPrice, maxPrice
	s.SetFilter(f)
}

// ClearFilters drops every filter and returns to page 1.
func (s *State) ClearFilters() {
	s.filter = Filter{}
	s.page = 1
}

// SetPage moves to page p, clamped to at least 1.
func (s *State) SetPage(p int) {
	s.page = max(p, 1)
}

// Params returns the server pagination request for the current page.
func (s *State) Params() pagination.Params {
	return pagination.Params{Page: s.page, PageSize: s.pageSize}
}

// Key is the cache key of the server page the state displays. Filters are applied
// locally and are not part of it.
func (s *State) Key(viewerID string) cache.Key {
	return cache.NewKey(cache.ResourceAllListings, viewerID, strconv.Itoa(s.page), strconv.Itoa(s.pageSize))
}

// Page is a filtered server page ready for display.
type Page struct {
	Listings []*listing.Listing
	// Count is the number of displayed listings.
	Count int
	Meta  pagination.Meta
}

// NewPage filters a server page for viewerID.
func NewPage(s *State, server *listing.Page, viewerID string) Page {
	shown, count := Apply(server.Listings, viewerID, s.filter)
	return Page{
		Listings: shown,
		Count:    count,
		Meta:     pagination.NewMeta(s.page, s.pageSize, server.Total),
	}
}

// Label summarizes the page position, as in "Showing 13 to 24 of 30 listings".
func (p Page) Label() string {
	if p.Meta.Total == 0 {
		return "No listings"
	}
	first := (p.Meta.Page-1)*p.Meta.PageSize + 1
	last := min(p.Meta.Page*p.Meta.PageSize, p.Meta.Total)
	return fmt.Sprintf("Showing %d to %d of %d listings", first, last, p.Meta.Total)
}

// Selection is the listing open in the detail view.
type Selection struct {
	mu      sync.Mutex
	current *listing.Listing
}

// Open shows l.
func (s *Selection) Open(l *listing.Listing) {
	s.mu.Lock()
	s.current = l
	s.mu.Unlock()
}

// Close hides the detail view.
func (s *Selection) Close() {
	s.mu.Lock()
	s.current = nil
	s.mu.Unlock()
}

// CloseIf closes the view when it shows listing id and reports whether it did.
func (s *Selection) CloseIf(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.current == nil || s.current.ID != id {
		return false
	}
	s.current = nil
	return true
}

// Current returns the open listing or nil.
func (s *Selection) Current() *listing.Listing {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.current
}
