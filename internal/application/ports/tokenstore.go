package ports

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/trackroom/trackroom/internal/domain"
)

// TokenStore is the durable table of issued access tokens, keyed by
// (kind, secret_digest) with a unique constraint on that pair. The core
// never deletes tokens; pruning is housekeeping (see DeleteDeadBefore).
type TokenStore interface {
	// Insert persists a freshly issued token. Returns ErrConflict when the
	// (kind, digest) pair already exists.
	Insert(ctx context.Context, token *domain.AccessToken) error
	// GetByDigest returns the token for this digest regardless of its
	// usable state, or ErrNotFound.
	GetByDigest(ctx context.Context, kind domain.TokenKind, digest string) (*domain.AccessToken, error)
	// Consume sets consumed_at only if it is still null, as one atomic
	// conditional update. Returns ErrAlreadyUsed when a racer won.
	Consume(ctx context.Context, tokenID domain.TokenID) error
	// Revoke sets revoked_at; revocation is monotonic and idempotent.
	Revoke(ctx context.Context, tokenID domain.TokenID) error
	// RevokeMatching revokes the token only when its kind and subject both
	// match, one conditional update. ErrNotFound when no row matches, so a
	// caller scoped to one subject cannot revoke across subjects.
	RevokeMatching(ctx context.Context, tokenID domain.TokenID, kind domain.TokenKind, subjectID uuid.UUID) error
	// RevokeAllForSubject marks every still-usable token of that kind for
	// the subject revoked.
	RevokeAllForSubject(ctx context.Context, kind domain.TokenKind, subjectID uuid.UUID) error
	// DeleteDeadBefore removes tokens that expired, were consumed, or were
	// revoked before cutoff. Housekeeping only.
	DeleteDeadBefore(ctx context.Context, cutoff time.Time) (int64, error)
}
