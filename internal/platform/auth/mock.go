package auth

import (
	"context"
	"sync"

	fbauth "firebase.google.com/go/v4/auth"
)

// MockVerifier returns a fixed user or error.
type MockVerifier struct {
	User  *User
	Error error
}

func (m *MockVerifier) Verify(_ context.Context, _ string) (*User, error) {
	if m.Error != nil {
		return nil, m.Error
	}
	return m.User, nil
}

// TestUser returns the user tests sign in as.
func TestUser() *User {
	return &User{
		UID:           "test-user-123",
		Email:         "test@campus.edu",
		EmailVerified: true,
	}
}

// MockLinkClient records sign-in links and revocations.
type MockLinkClient struct {
	mu       sync.Mutex
	Links    []string
	Settings []*fbauth.ActionCodeSettings
	Revoked  []string
	LinkErr  error
}

func (m *MockLinkClient) EmailSignInLink(_ context.Context, email string, settings *fbauth.ActionCodeSettings) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.LinkErr != nil {
		return "", m.LinkErr
	}
	link := settings.URL + "?mode=signIn&email=" + email
	m.Links = append(m.Links, link)
	m.Settings = append(m.Settings, settings)
	return link, nil
}

func (m *MockLinkClient) RevokeRefreshTokens(_ context.Context, uid string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Revoked = append(m.Revoked, uid)
	return nil
}

// SendSignInLink records the link the way EmailSignInLink does.
func (m *MockLinkClient) SendSignInLink(ctx context.Context, email string, settings *fbauth.ActionCodeSettings) error {
	_, err := m.EmailSignInLink(ctx, email, settings)
	return err
}

// SentLinks returns how many links were issued.
func (m *MockLinkClient) SentLinks() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.Links)
}

var (
	_ Verifier      = (*MockVerifier)(nil)
	_ LinkSender    = (*MockLinkClient)(nil)
	_ LinkGenerator = (*MockLinkClient)(nil)
	_ TokenRevoker  = (*MockLinkClient)(nil)
)
