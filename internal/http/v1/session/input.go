package session

// MagicLinkInput for POST /auth/magic-link
type MagicLinkInput struct {
	Body struct {
		Email string `json:"email" maxLength:"254" doc:"Address to send the sign-in link to" example:"ada@campus.edu"`
	}
}

// SessionGetInput for GET /session (no body needed)
type SessionGetInput struct{}

// SignOutInput for POST /auth/sign-out (no body needed)
type SignOutInput struct{}
