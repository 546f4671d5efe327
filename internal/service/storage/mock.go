package storage

import (
	"context"
	"sync"
)

// Object is a stored object in MockStorageService.
type Object struct {
	ContentType string
	Data        []byte
}

// MockStorageService implements Service in memory for unit tests.
type MockStorageService struct {
	mu       sync.RWMutex
	objects  map[string]Object
	uploads  int
	failures map[string]error
}

// NewMockStorageService creates a new mock service.
func NewMockStorageService() *MockStorageService {
	return &MockStorageService{
		objects:  make(map[string]Object),
		failures: make(map[string]error),
	}
}

// FailNext makes the next call to method ("Upload" or "Remove") return err.
func (m *MockStorageService) FailNext(method string, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.failures[method] = err
}

func (m *MockStorageService) fail(method string) error {
	err := m.failures[method]
	delete(m.failures, method)
	return err
}

func (m *MockStorageService) Upload(ctx context.Context, bucket, key, contentType string, data []byte) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.uploads++
	if err := m.fail("Upload"); err != nil {
		return "", err
	}
	id := bucket + "/" + key
	if _, exists := m.objects[id]; exists {
		return "", ErrAlreadyExists
	}
	m.objects[id] = Object{ContentType: contentType, Data: append([]byte(nil), data...)}
	return PublicURL("", bucket, key), nil
}

func (m *MockStorageService) Remove(ctx context.Context, bucket, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.fail("Remove"); err != nil {
		return err
	}
	delete(m.objects, bucket+"/"+key)
	return nil
}

// Object returns the stored object at bucket/key.
func (m *MockStorageService) Object(bucket, key string) (Object, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	o, ok := m.objects[bucket+"/"+key]
	return o, ok
}

// Len returns the number of stored objects.
func (m *MockStorageService) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.objects)
}

// Uploads returns how many uploads were attempted.
func (m *MockStorageService) Uploads() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.uploads
}

// Compile-time interface check
var _ Service = (*MockStorageService)(nil)
