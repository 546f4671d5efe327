package auth

import (
	"context"
	"errors"
	"net/http"

	"github.com/danielgtaylor/huma/v2"
	"go.uber.org/zap"

	applog "github.com/janisto/campus-market/internal/platform/logging"
)

type userKey struct{}

// NewAuthMiddleware verifies the bearer token of operations that declare a security
// requirement and stores the user in the request context. Public operations pass through.
func NewAuthMiddleware(api huma.API, verifier Verifier) func(huma.Context, func(huma.Context)) {
	return func(ctx huma.Context, next func(huma.Context)) {
		if len(ctx.Operation().Security) == 0 {
			next(ctx)
			return
		}

		token, err := ExtractBearerToken(ctx.Header("Authorization"))
		if err != nil {
			reject(api, ctx, err, "missing or invalid authorization header")
			return
		}
		user, err := verifier.Verify(ctx.Context(), token)
		if err != nil {
			reject(api, ctx, err, "invalid or expired token")
			return
		}

		next(huma.WithValue(ctx, userKey{}, user))
	}
}

func reject(api huma.API, ctx huma.Context, err error, msg string) {
	applog.LogWarn(ctx.Context(), "authentication rejected", zap.String("reason", categorizeAuthError(err)))
	if errors.Is(err, ErrCertificateFetch) {
		ctx.SetHeader("Retry-After", "30")
		_ = huma.WriteErr(api, ctx, http.StatusServiceUnavailable, "authentication service temporarily unavailable")
		return
	}
	ctx.SetHeader("WWW-Authenticate", "Bearer")
	_ = huma.WriteErr(api, ctx, http.StatusUnauthorized, msg)
}

// categorizeAuthError returns a log-safe reason.
func categorizeAuthError(err error) string {
	switch {
	case errors.Is(err, ErrNoToken):
		return "no_token"
	case errors.Is(err, ErrTokenExpired):
		return "token_expired"
	case errors.Is(err, ErrTokenRevoked):
		return "token_revoked"
	case errors.Is(err, ErrUserDisabled):
		return "user_disabled"
	case errors.Is(err, ErrCertificateFetch):
		return "certificate_fetch_failed"
	case errors.Is(err, ErrInvalidToken):
		return "invalid_token"
	}
	return "unknown"
}

// UserFromContext returns the signed-in user, or nil on public operations.
func UserFromContext(ctx context.Context) *User {
	user, _ := ctx.Value(userKey{}).(*User)
	return user
}

// WithUser stores user in ctx.
func WithUser(ctx context.Context, user *User) context.Context {
	return context.WithValue(ctx, userKey{}, user)
}
