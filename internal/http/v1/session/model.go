package session

import "github.com/janisto/campus-market/internal/http/v1/profile"

// Session describes the signed-in user.
type Session struct {
	UID                  string           `json:"uid"                  doc:"Auth user ID"                               example:"user-123"`
	Email                string           `json:"email"                doc:"Sign-in email address"                      example:"ada@campus.edu"`
	EmailVerified        bool             `json:"emailVerified"        doc:"Whether the address is verified"            example:"true"`
	ProfileSetupRequired bool             `json:"profileSetupRequired" doc:"No profile exists yet; show profile setup" example:"false"`
	Profile              *profile.Profile `json:"profile,omitempty"    doc:"The user's profile once set up"`
}

// MagicLinkSent acknowledges a sign-in link request.
type MagicLinkSent struct {
	Message     string `json:"message"     doc:"What to tell the user"           example:"Check your email for the sign-in link"`
	RedirectURL string `json:"redirectUrl" doc:"Where the link lands after sign-in" example:"https://market.campus.edu/auth/callback"`
}
