package session

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/danielgtaylor/huma/v2"
	"go.uber.org/zap"

	"github.com/janisto/campus-market/internal/http/v1/problem"
	"github.com/janisto/campus-market/internal/http/v1/profile"
	"github.com/janisto/campus-market/internal/market"
	"github.com/janisto/campus-market/internal/market/marketerr"
	"github.com/janisto/campus-market/internal/platform/auth"
	applog "github.com/janisto/campus-market/internal/platform/logging"
)

// Register wires sign-in, session and sign-out routes.
func Register(api huma.API, sessions *auth.Sessions, mp *market.Marketplace) {
	huma.Register(api, huma.Operation{
		OperationID:   "request-magic-link",
		Method:        http.MethodPost,
		Path:          "/auth/magic-link",
		Summary:       "Request a sign-in link",
		Description:   "Emails a passwordless sign-in link. One link per address every 30 seconds.",
		Tags:          []string{"Session"},
		DefaultStatus: http.StatusAccepted,
	}, func(ctx context.Context, input *MagicLinkInput) (*MagicLinkOutput, error) {
		if err := sessions.RequestLink(ctx, input.Body.Email); err != nil {
			return nil, mapLinkError(err)
		}
		return &MagicLinkOutput{Body: MagicLinkSent{
			Message:     "Check your email for the sign-in link",
			RedirectURL: sessions.RedirectURL(),
		}}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "get-session",
		Method:      http.MethodGet,
		Path:        "/session",
		Summary:     "Get current session",
		Description: "Returns the signed-in user and whether profile setup is still required.",
		Tags:        []string{"Session"},
		Security: []map[string][]string{
			{"bearerAuth": {}},
		},
	}, func(ctx context.Context, _ *SessionGetInput) (*SessionGetOutput, error) {
		user := auth.UserFromContext(ctx)
		out := &SessionGetOutput{Body: Session{
			UID:           user.UID,
			Email:         user.Email,
			EmailVerified: user.EmailVerified,
		}}

		p, err := mp.Profile(ctx, user.UID)
		switch {
		case err == nil:
			body := profile.ToHTTPProfile(p)
			out.Body.Profile = &body
		case marketerr.KindOf(err) == marketerr.KindNotFound:
			out.Body.ProfileSetupRequired = true
		default:
			return nil, problem.From(err)
		}
		return out, nil
	})

	huma.Register(api, huma.Operation{
		OperationID:   "sign-out",
		Method:        http.MethodPost,
		Path:          "/auth/sign-out",
		Summary:       "Sign out",
		Description:   "Revokes the user's sessions on every device and drops data cached for the user.",
		Tags:          []string{"Session"},
		DefaultStatus: http.StatusNoContent,
		Security: []map[string][]string{
			{"bearerAuth": {}},
		},
	}, func(ctx context.Context, _ *SignOutInput) (*struct{}, error) {
		user := auth.UserFromContext(ctx)

		err := sessions.SignOut(ctx, user.UID)
		dropped := mp.SignOut(user.UID)
		applog.LogInfo(ctx, "session cache cleared", zap.String("userId", user.UID), zap.Int("entries", dropped))
		if err != nil {
			return nil, huma.Error502BadGateway("could not revoke the session, please try again")
		}
		return nil, nil
	})
}

func mapLinkError(err error) error {
	var cooldown *auth.CooldownError
	switch {
	case errors.Is(err, auth.ErrInvalidEmail):
		return problem.Validation(map[string]string{"email": "Please enter a valid email address"})
	case errors.As(err, &cooldown):
		msg := fmt.Sprintf("a sign-in link was sent recently, retry in %s", cooldown.RetryAfter.Round(time.Second))
		return problem.WithRetryAfter(huma.Error429TooManyRequests(msg), cooldown.RetryAfter)
	default:
		return huma.Error502BadGateway("could not send the sign-in link, please try again")
	}
}
