package listing

import (
	"cmp"
	"context"
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/janisto/campus-market/internal/market/catalog"
)

// MockListingService implements Service for unit tests.
type MockListingService struct {
	mu       sync.RWMutex
	listings map[string]*Listing
	seq      map[string]int
	next     int
	calls    map[string]int
	failures map[string]error
}

// NewMockListingService creates a new mock service.
func NewMockListingService() *MockListingService {
	return &MockListingService{
		listings: make(map[string]*Listing),
		seq:      make(map[string]int),
		calls:    make(map[string]int),
		failures: make(map[string]error),
	}
}

// FailNext makes the next call to method return err.
func (m *MockListingService) FailNext(method string, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.failures[method] = err
}

// Calls returns how many times method was called.
func (m *MockListingService) Calls(method string) int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.calls[method]
}

// record counts a call and pops any queued failure. Callers hold m.mu.
func (m *MockListingService) record(method string) error {
	m.calls[method]++
	err := m.failures[method]
	delete(m.failures, method)
	return err
}

// newestFirst orders by creation time, breaking ties by insertion order. Callers hold m.mu.
func (m *MockListingService) newestFirst(filter func(*Listing) bool) []*Listing {
	var out []*Listing
	for _, l := range m.listings {
		if filter(l) {
			c := *l
			out = append(out, &c)
		}
	}
	slices.SortFunc(out, func(a, b *Listing) int {
		if c := b.CreatedAt.Compare(a.CreatedAt); c != 0 {
			return c
		}
		return cmp.Compare(m.seq[b.ID], m.seq[a.ID])
	})
	return out
}

func (m *MockListingService) ListByOwner(ctx context.Context, profileID string) ([]*Listing, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.record("ListByOwner"); err != nil {
		return nil, err
	}
	return m.newestFirst(func(l *Listing) bool { return l.ProfileID == profileID }), nil
}

func (m *MockListingService) Browse(ctx context.Context, params BrowseParams) (*Page, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.record("Browse"); err != nil {
		return nil, err
	}
	others := m.newestFirst(func(l *Listing) bool { return l.ProfileID != params.ViewerID })
	start := min(max(params.Offset, 0), len(others))
	end := min(start+max(params.Limit, 0), len(others))
	return &Page{Listings: others[start:end], Total: len(others)}, nil
}

func (m *MockListingService) Get(ctx context.Context, id string) (*Listing, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.record("Get"); err != nil {
		return nil, err
	}
	l, exists := m.listings[id]
	if !exists {
		return nil, ErrNotFound
	}
	c := *l
	return &c, nil
}

func (m *MockListingService) Create(ctx context.Context, profileID string, fields Fields) (*Listing, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.record("Create"); err != nil {
		return nil, err
	}
	fields.Status = catalog.StatusActive
	if err := fields.Validate(); err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	l := &Listing{
		ID:          uuid.NewString(),
		ProfileID:   profileID,
		Title:       fields.Title,
		Description: fields.Description,
		Price:       fields.Price,
		Category:    fields.Category,
		Images:      imagesOrNil(fields.Images),
		Status:      fields.Status,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	m.next++
	m.seq[l.ID] = m.next
	m.listings[l.ID] = l
	c := *l
	return &c, nil
}

func (m *MockListingService) Update(ctx context.Context, profileID, id string, fields Fields) (*Listing, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.record("Update"); err != nil {
		return nil, err
	}
	l, exists := m.listings[id]
	if !exists {
		return nil, ErrNotFound
	}
	if l.ProfileID != profileID {
		return nil, ErrForbidden
	}
	if fields.Status == "" {
		fields.Status = l.Status
	}
	if err := fields.Validate(); err != nil {
		return nil, err
	}

	l.Title = fields.Title
	l.Description = fields.Description
	l.Price = fields.Price
	l.Category = fields.Category
	l.Images = imagesOrNil(fields.Images)
	l.Status = fields.Status
	l.UpdatedAt = time.Now().UTC()
	c := *l
	return &c, nil
}

func (m *MockListingService) Delete(ctx context.Context, profileID, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.record("Delete"); err != nil {
		return err
	}
	l, exists := m.listings[id]
	if !exists {
		return ErrNotFound
	}
	if l.ProfileID != profileID {
		return ErrForbidden
	}
	delete(m.listings, id)
	delete(m.seq, id)
	return nil
}

// Put stores l as-is, bypassing validation. Tests use it to seed statuses and timestamps.
func (m *MockListingService) Put(l Listing) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if l.ID == "" {
		l.ID = uuid.NewString()
	}
	m.next++
	m.seq[l.ID] = m.next
	m.listings[l.ID] = &l
}

// Clear removes all listings (useful for test cleanup).
func (m *MockListingService) Clear() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.listings = make(map[string]*Listing)
	m.seq = make(map[string]int)
}

// Compile-time interface check
var _ Service = (*MockListingService)(nil)
