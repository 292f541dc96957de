package accesstoken

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/trackroom/trackroom/internal/application/ports"
	"github.com/trackroom/trackroom/internal/domain"
	domerrors "github.com/trackroom/trackroom/internal/domain/errors"
)

// issueAttempts bounds digest-collision retries. A collision is a local
// generation defect, not a caller error, so the service retries with a
// fresh secret before giving up.
const issueAttempts = 3

// Service issues, resolves, and invalidates access tokens of every kind,
// applying the per-kind policy (TTL, single use) from domain.PolicyFor.
type Service struct {
	store ports.TokenStore
	now   func() time.Time
}

// NewService builds the token service over a token store.
func NewService(store ports.TokenStore) *Service {
	return &Service{store: store, now: time.Now}
}

// Issue creates and persists a token for subjectID and returns the raw
// secret exactly once; it is never retrievable again.
func (s *Service) Issue(ctx context.Context, kind domain.TokenKind, subjectID uuid.UUID) (string, *domain.AccessToken, error) {
	policy := domain.PolicyFor(kind)
	now := s.now()
	for attempt := 0; attempt < issueAttempts; attempt++ {
		secret, err := GenerateSecret()
		if err != nil {
			return "", nil, err
		}
		token := &domain.AccessToken{
			ID:           domain.NewTokenID(uuid.New()),
			Kind:         kind,
			SubjectID:    subjectID,
			SecretDigest: DigestSecret(secret),
			IssuedAt:     now,
		}
		if policy.TTL > 0 {
			expires := now.Add(policy.TTL)
			token.ExpiresAt = &expires
		}
		err = s.store.Insert(ctx, token)
		if errors.Is(err, domerrors.ErrConflict) {
			continue
		}
		if err != nil {
			return "", nil, err
		}
		return secret, token, nil
	}
	return "", nil, domerrors.ErrConflict
}

// InvalidatePrior revokes every still-usable token of kind for subjectID.
// Called before issuing kinds that must not accumulate (password reset), so
// at most one is live at a time.
func (s *Service) InvalidatePrior(ctx context.Context, kind domain.TokenKind, subjectID uuid.UUID) error {
	return s.store.RevokeAllForSubject(ctx, kind, subjectID)
}

// Resolve recomputes the digest of rawSecret, looks the token up, and
// returns it only while usable. When expectedSubjectID is non-nil the
// resolved token must be bound to it; a mismatch reports ErrNotFound, the
// same as absence, so callers cannot probe whether a stolen token exists.
// Password resets alone reveal ErrExpired, for the benefit of the user
// staring at a dead email link.
func (s *Service) Resolve(ctx context.Context, kind domain.TokenKind, rawSecret string, expectedSubjectID *uuid.UUID) (*domain.AccessToken, error) {
	token, err := s.store.GetByDigest(ctx, kind, DigestSecret(rawSecret))
	if err != nil {
		return nil, err
	}
	now := s.now()
	if !token.Usable(now) {
		if kind == domain.TokenPasswordReset {
			if token.ConsumedAt != nil {
				return nil, domerrors.ErrAlreadyUsed
			}
			if token.RevokedAt == nil && token.Expired(now) {
				return nil, domerrors.ErrExpired
			}
		}
		return nil, domerrors.ErrNotFound
	}
	if expectedSubjectID != nil && token.SubjectID != *expectedSubjectID {
		return nil, domerrors.ErrNotFound
	}
	return token, nil
}

// Consume marks a single-use token consumed. The store update is atomic:
// of two concurrent calls exactly one succeeds and the other gets
// ErrAlreadyUsed. A no-op for reusable kinds.
func (s *Service) Consume(ctx context.Context, token *domain.AccessToken) error {
	if !domain.PolicyFor(token.Kind).SingleUse {
		return nil
	}
	return s.store.Consume(ctx, token.ID)
}

// Revoke invalidates the token regardless of its expiry state.
func (s *Service) Revoke(ctx context.Context, token *domain.AccessToken) error {
	return s.store.Revoke(ctx, token.ID)
}

// RevokeIssued revokes a token by ID on behalf of the subject's owner. The
// (kind, subjectID) match happens inside the store's conditional update, so
// a token ID belonging to another project or folder reports ErrNotFound
// instead of revoking it.
func (s *Service) RevokeIssued(ctx context.Context, kind domain.TokenKind, subjectID uuid.UUID, tokenID domain.TokenID) error {
	return s.store.RevokeMatching(ctx, tokenID, kind, subjectID)
}
