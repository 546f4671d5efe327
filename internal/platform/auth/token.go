// Package auth verifies Firebase ID tokens and runs the passwordless sign-in flow.
package auth

import (
	"context"
	"errors"
	"strings"

	fbauth "firebase.google.com/go/v4/auth"
)

// User is the signed-in account. UID keys the profile.
type User struct {
	UID           string
	Email         string
	EmailVerified bool
}

// Token errors.
var (
	ErrNoToken          = errors.New("missing authorization header")
	ErrInvalidToken     = errors.New("invalid token")
	ErrTokenExpired     = errors.New("token expired")
	ErrTokenRevoked     = errors.New("token revoked")
	ErrUserDisabled     = errors.New("user disabled")
	ErrCertificateFetch = errors.New("failed to fetch certificates")
)

// Verifier resolves a bearer token to a user.
type Verifier interface {
	Verify(ctx context.Context, token string) (*User, error)
}

// TokenClient is the part of the Firebase auth client the verifier uses.
type TokenClient interface {
	VerifyIDTokenAndCheckRevoked(ctx context.Context, idToken string) (*fbauth.Token, error)
}

// FirebaseVerifier verifies Firebase ID tokens. Revoked tokens are rejected, so a signed-out
// session cannot be reused.
type FirebaseVerifier struct {
	client TokenClient
}

// NewFirebaseVerifier returns a verifier backed by client.
func NewFirebaseVerifier(client TokenClient) *FirebaseVerifier {
	return &FirebaseVerifier{client: client}
}

func (v *FirebaseVerifier) Verify(ctx context.Context, idToken string) (*User, error) {
	token, err := v.client.VerifyIDTokenAndCheckRevoked(ctx, idToken)
	if err != nil {
		return nil, tokenError(err)
	}
	return userFromToken(token), nil
}

func tokenError(err error) error {
	switch {
	case fbauth.IsCertificateFetchFailed(err):
		return ErrCertificateFetch
	case fbauth.IsIDTokenExpired(err):
		return ErrTokenExpired
	case fbauth.IsIDTokenRevoked(err):
		return ErrTokenRevoked
	case fbauth.IsUserDisabled(err):
		return ErrUserDisabled
	}
	return ErrInvalidToken
}

func userFromToken(token *fbauth.Token) *User {
	email, _ := token.Claims["email"].(string)
	verified, _ := token.Claims["email_verified"].(bool)
	return &User{UID: token.UID, Email: email, EmailVerified: verified}
}

// ExtractBearerToken returns the token of a "Bearer <token>" header.
func ExtractBearerToken(header string) (string, error) {
	if header == "" {
		return "", ErrNoToken
	}
	scheme, token, ok := strings.Cut(strings.TrimSpace(header), " ")
	token = strings.TrimSpace(token)
	if !ok || !strings.EqualFold(scheme, "bearer") || token == "" || strings.ContainsAny(token, " \t") {
		return "", ErrInvalidToken
	}
	return token, nil
}

var _ Verifier = (*FirebaseVerifier)(nil)
