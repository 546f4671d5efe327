package favorite

import (
	"context"
	"slices"
	"sync"
	"time"
)

// MockFavoriteService implements Service for unit tests.
type MockFavoriteService struct {
	mu        sync.RWMutex
	favorites map[string]Favorite
	order     map[string]int
	next      int
	calls     map[string]int
	failures  map[string]error
}

// NewMockFavoriteService creates a new mock service.
func NewMockFavoriteService() *MockFavoriteService {
	return &MockFavoriteService{
		favorites: make(map[string]Favorite),
		order:     make(map[string]int),
		calls:     make(map[string]int),
		failures:  make(map[string]error),
	}
}

// FailNext makes the next call to method return err.
func (m *MockFavoriteService) FailNext(method string, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.failures[method] = err
}

// Calls returns how many times method was called.
func (m *MockFavoriteService) Calls(method string) int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.calls[method]
}

// Count returns the number of stored rows.
func (m *MockFavoriteService) Count() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.favorites)
}

func (m *MockFavoriteService) record(method string) error {
	m.calls[method]++
	err := m.failures[method]
	delete(m.failures, method)
	return err
}

func (m *MockFavoriteService) List(ctx context.Context, profileID string) ([]Favorite, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.record("List"); err != nil {
		return nil, err
	}
	var out []Favorite
	for _, f := range m.favorites {
		if f.ProfileID == profileID {
			out = append(out, f)
		}
	}
	slices.SortFunc(out, func(a, b Favorite) int {
		return m.order[b.DocID()] - m.order[a.DocID()]
	})
	return out, nil
}

func (m *MockFavoriteService) Add(ctx context.Context, profileID, listingID string) (Favorite, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.record("Add"); err != nil {
		return Favorite{}, err
	}
	f, err := New(profileID, listingID)
	if err != nil {
		return Favorite{}, err
	}
	if existing, ok := m.favorites[f.DocID()]; ok {
		return existing, nil
	}
	f.CreatedAt = time.Now().UTC()
	m.next++
	m.order[f.DocID()] = m.next
	m.favorites[f.DocID()] = f
	return f, nil
}

func (m *MockFavoriteService) Remove(ctx context.Context, profileID, listingID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.record("Remove"); err != nil {
		return err
	}
	f, err := New(profileID, listingID)
	if err != nil {
		return err
	}
	delete(m.favorites, f.DocID())
	delete(m.order, f.DocID())
	return nil
}

// Compile-time interface check
var _ Service = (*MockFavoriteService)(nil)
