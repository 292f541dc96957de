package errors

import "errors"

// Sentinel errors for handlers to map to HTTP status. Denials that must be
// indistinguishable from absence surface as ErrNotFound; ErrExpired is
// revealed separately only where the UI may say "expired" rather than
// "never existed" (password reset).
var (
	ErrNotFound              = errors.New("not found")
	ErrForbidden             = errors.New("forbidden")
	ErrUnauthenticated       = errors.New("authentication required")
	ErrAlreadyUsed           = errors.New("token already used")
	ErrExpired               = errors.New("token expired")
	ErrRevisionLimitExceeded = errors.New("revision limit reached")
	ErrProjectLocked         = errors.New("project is approved; reopen before submitting versions")
	ErrConflict              = errors.New("token digest collision")
	ErrStoreUnavailable      = errors.New("store unavailable")
)
