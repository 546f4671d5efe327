package profile

import (
	"context"
	"slices"
	"sync"
	"time"
)

// MockProfileService implements Service for unit tests.
type MockProfileService struct {
	mu       sync.RWMutex
	profiles map[string]*Profile
	calls    map[string]int
	failures map[string]error
}

// NewMockProfileService creates a new mock service.
func NewMockProfileService() *MockProfileService {
	return &MockProfileService{
		profiles: make(map[string]*Profile),
		calls:    make(map[string]int),
		failures: make(map[string]error),
	}
}

// FailNext makes the next call to method return err.
func (m *MockProfileService) FailNext(method string, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.failures[method] = err
}

// Calls returns how many times method was called.
func (m *MockProfileService) Calls(method string) int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.calls[method]
}

func (m *MockProfileService) record(method string) error {
	m.calls[method]++
	err := m.failures[method]
	delete(m.failures, method)
	return err
}

func clone(p *Profile) *Profile {
	c := *p
	c.Skills = slices.Clone(p.Skills)
	return &c
}

func (m *MockProfileService) Create(ctx context.Context, userID string, params CreateParams) (*Profile, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.record("Create"); err != nil {
		return nil, err
	}

	if _, exists := m.profiles[userID]; exists {
		return nil, ErrAlreadyExists
	}

	p := fromCreate(userID, params)
	normalize(p)
	if err := Validate(p); err != nil {
		return nil, err
	}
	now := time.Now().UTC()
	p.CreatedAt = now
	p.UpdatedAt = now
	m.profiles[userID] = p
	return clone(p), nil
}

func (m *MockProfileService) Get(ctx context.Context, userID string) (*Profile, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.record("Get"); err != nil {
		return nil, err
	}

	p, exists := m.profiles[userID]
	if !exists {
		return nil, ErrNotFound
	}
	return clone(p), nil
}

func (m *MockProfileService) Update(ctx context.Context, userID string, params UpdateParams) (*Profile, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.record("Update"); err != nil {
		return nil, err
	}

	existing, exists := m.profiles[userID]
	if !exists {
		return nil, ErrNotFound
	}

	p := clone(existing)
	params.apply(p)
	normalize(p)
	if err := Validate(p); err != nil {
		return nil, err
	}
	p.UpdatedAt = time.Now().UTC()
	m.profiles[userID] = p
	return clone(p), nil
}

func (m *MockProfileService) Delete(ctx context.Context, userID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.record("Delete"); err != nil {
		return err
	}

	if _, exists := m.profiles[userID]; !exists {
		return ErrNotFound
	}
	delete(m.profiles, userID)
	return nil
}

// Clear removes all profiles (useful for test cleanup).
func (m *MockProfileService) Clear() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.profiles = make(map[string]*Profile)
}

// Compile-time interface check
var _ Service = (*MockProfileService)(nil)
