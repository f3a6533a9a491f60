package constants

// Context keys shared between middleware and handlers.
const (
	ContextKeyUserID    = "user_id"
	ContextKeyUserEmail = "user_email"
)

// TokenCookieName is the HTTP-only cookie carrying the auth token.
const TokenCookieName = "token"

// Validation limits.
const (
	MaxTitleLength    = 100
	MaxTeamNameLength = 100
	MinPasswordLength = 6
	MinNameLength     = 2
)
