package session

// MagicLinkOutput for POST /auth/magic-link (202 Accepted)
type MagicLinkOutput struct {
	Body MagicLinkSent
}

// SessionGetOutput for GET /session
type SessionGetOutput struct {
	Body Session
}
