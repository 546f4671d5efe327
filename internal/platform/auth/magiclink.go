package auth

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
	"strings"
	"time"

	fbauth "firebase.google.com/go/v4/auth"
	"go.uber.org/zap"

	applog "github.com/janisto/campus-market/internal/platform/logging"
)

// ResendCooldown is the minimum time between two sign-in links for one address.
const ResendCooldown = 30 * time.Second

// CallbackPath is where sign-in links land.
const CallbackPath = "/auth/callback"

// ErrInvalidEmail is returned for addresses that cannot receive a sign-in link.
var ErrInvalidEmail = errors.New("invalid email address")

// CooldownError is returned while a sign-in link for the address was sent recently.
type CooldownError struct {
	RetryAfter time.Duration
}

func (e *CooldownError) Error() string {
	return fmt.Sprintf("sign-in link already sent, retry in %s", e.RetryAfter.Round(time.Second))
}

// LinkSender delivers a sign-in link for email that lands on settings.URL.
type LinkSender interface {
	SendSignInLink(ctx context.Context, email string, settings *fbauth.ActionCodeSettings) error
}

// TokenRevoker ends every session of a user.
type TokenRevoker interface {
	RevokeRefreshTokens(ctx context.Context, uid string) error
}

// Sessions runs passwordless sign-in and sign-out.
type Sessions struct {
	sender      LinkSender
	revoker     TokenRevoker
	cooldown    Cooldown
	redirectURL string
	window      time.Duration
}

// NewSessions returns the sign-in flow. appURL is the web app origin; links redirect to
// appURL + CallbackPath.
func NewSessions(sender LinkSender, revoker TokenRevoker, cooldown Cooldown, appURL string) *Sessions {
	return &Sessions{
		sender:      sender,
		revoker:     revoker,
		cooldown:    cooldown,
		redirectURL: strings.TrimRight(appURL, "/") + CallbackPath,
		window:      ResendCooldown,
	}
}

// RedirectURL returns the sign-in link target.
func (s *Sessions) RedirectURL() string {
	return s.redirectURL
}

// NormalizeEmail trims and lowercases email and checks it is a bare address.
func NormalizeEmail(email string) (string, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	addr, err := mail.ParseAddress(email)
	if err != nil || addr.Address != email {
		return "", ErrInvalidEmail
	}
	return email, nil
}

// RequestLink sends a sign-in link to email. A second request within the cooldown window
// returns a *CooldownError and sends nothing. The window only holds once a link went out;
// a failed send leaves the address free to retry.
func (s *Sessions) RequestLink(ctx context.Context, email string) error {
	email, err := NormalizeEmail(email)
	if err != nil {
		return err
	}

	acquired, retry, err := s.cooldown.Acquire(ctx, email, s.window)
	if err != nil {
		// Sign-in proceeds without the limiter.
		applog.LogWarn(ctx, "sign-in cooldown unavailable", zap.Error(err))
	} else if !acquired {
		return &CooldownError{RetryAfter: retry}
	}

	err = s.sender.SendSignInLink(ctx, email, &fbauth.ActionCodeSettings{
		URL:             s.redirectURL,
		HandleCodeInApp: true,
	})
	if err != nil {
		if acquired {
			if rerr := s.cooldown.Release(ctx, email); rerr != nil {
				applog.LogWarn(ctx, "sign-in cooldown release failed", zap.Error(rerr))
			}
		}
		applog.AuditOutcome(ctx, "request_sign_in_link", "", "session", "", err, categorizeAuthError)
		return fmt.Errorf("send sign-in link: %w", err)
	}
	applog.AuditOutcome(ctx, "request_sign_in_link", "", "session", "", nil, categorizeAuthError)
	return nil
}

// SignOut revokes the refresh tokens of uid. Tokens issued before are rejected by
// FirebaseVerifier from then on.
func (s *Sessions) SignOut(ctx context.Context, uid string) error {
	err := s.revoker.RevokeRefreshTokens(ctx, uid)
	applog.AuditOutcome(ctx, "sign_out", uid, "session", uid, err, categorizeAuthError)
	if err != nil {
		return fmt.Errorf("revoke tokens: %w", err)
	}
	return nil
}
