package domain

import (
	"time"

	"github.com/google/uuid"
)

// TokenKind discriminates the access token variants. ProjectShareToken is
// deliberately absent: the share secret lives as a digest column on the
// project row and is rotated wholesale, never tracked per instance.
type TokenKind string

const (
	TokenPasswordReset      TokenKind = "password_reset"
	TokenClientFolderAccess TokenKind = "client_folder_access"
	TokenProjectReviewLink  TokenKind = "project_review_link"
)

// TokenID is a value object for access token identity.
type TokenID struct{ uuid.UUID }

// NewTokenID creates a new TokenID from uuid.
func NewTokenID(id uuid.UUID) TokenID { return TokenID{UUID: id} }

// String returns the canonical string form.
func (t TokenID) String() string { return t.UUID.String() }

// AccessToken is the stored record of an issued bearer secret. Only the
// digest is persisted; the raw secret exists transiently between generation
// and the issue response.
type AccessToken struct {
	ID           TokenID
	Kind         TokenKind
	SubjectID    uuid.UUID // user for password_reset, folder for folder access, project for review links
	SecretDigest string
	IssuedAt     time.Time
	ExpiresAt    *time.Time
	ConsumedAt   *time.Time
	RevokedAt    *time.Time
}

// Usable reports whether the token may still authorize anything: not
// revoked, not consumed, and not past its expiry.
func (t *AccessToken) Usable(now time.Time) bool {
	if t.RevokedAt != nil || t.ConsumedAt != nil {
		return false
	}
	return t.ExpiresAt == nil || t.ExpiresAt.After(now)
}

// Expired reports whether the expiry window has passed.
func (t *AccessToken) Expired(now time.Time) bool {
	return t.ExpiresAt != nil && !t.ExpiresAt.After(now)
}

// TokenPolicy is the per-kind issue policy.
type TokenPolicy struct {
	TTL       time.Duration // 0 = non-expiring
	SingleUse bool
}

// PolicyFor returns the issue policy for a token kind. Folder access and
// review links are long-lived and reusable; a password reset is a one-hour
// single shot.
func PolicyFor(kind TokenKind) TokenPolicy {
	switch kind {
	case TokenPasswordReset:
		return TokenPolicy{TTL: time.Hour, SingleUse: true}
	case TokenClientFolderAccess:
		return TokenPolicy{TTL: 365 * 24 * time.Hour}
	case TokenProjectReviewLink:
		return TokenPolicy{TTL: 90 * 24 * time.Hour}
	default:
		return TokenPolicy{}
	}
}
