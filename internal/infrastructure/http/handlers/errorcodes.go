package handlers

// API error codes returned in JSON { "error": "...", "code": "..." } for stable client handling.
const (
	ErrCodeUnauthorized   = "unauthorized"
	ErrCodeForbidden      = "forbidden"
	ErrCodeInvalidRequest = "invalid_request"
	ErrCodeNotFound       = "not_found"
	ErrCodeConflict       = "conflict"
	ErrCodeTokenExpired   = "token_expired"
	ErrCodeTokenUsed      = "token_used"
	ErrCodeProjectLocked  = "project_locked"
	ErrCodeRevisionLimit  = "revision_limit_exceeded"
	ErrCodeLocked         = "locked_out"
	ErrCodeUnavailable    = "unavailable"
	ErrCodeInternal       = "internal_error"
)
