package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/trackroom/trackroom/internal/application/ports"
	"github.com/trackroom/trackroom/internal/domain"
	domerrors "github.com/trackroom/trackroom/internal/domain/errors"
)

const (
	insertTokenSQL = `INSERT INTO access_tokens (id, kind, subject_id, secret_digest, issued_at, expires_at)
		VALUES ($1, $2, $3, $4, $5, $6)`
	getTokenByDigestSQL = `SELECT id, kind, subject_id, secret_digest, issued_at, expires_at, consumed_at, revoked_at
		FROM access_tokens WHERE kind = $1 AND secret_digest = $2`
	// The WHERE clause carries the whole single-use guarantee: of two
	// concurrent consumes only one matches the NULL consumed_at row.
	consumeTokenSQL = `UPDATE access_tokens SET consumed_at = NOW()
		WHERE id = $1 AND consumed_at IS NULL AND revoked_at IS NULL
		AND (expires_at IS NULL OR expires_at > NOW())`
	getTokenStateSQL = `SELECT consumed_at FROM access_tokens WHERE id = $1`
	revokeTokenSQL   = `UPDATE access_tokens SET revoked_at = NOW() WHERE id = $1 AND revoked_at IS NULL`
	// COALESCE keeps revoked_at monotonic when the owner revokes twice.
	revokeMatchingSQL = `UPDATE access_tokens SET revoked_at = COALESCE(revoked_at, NOW())
		WHERE id = $1 AND kind = $2 AND subject_id = $3`
	revokeAllSQL = `UPDATE access_tokens SET revoked_at = NOW()
		WHERE kind = $1 AND subject_id = $2 AND consumed_at IS NULL AND revoked_at IS NULL
		AND (expires_at IS NULL OR expires_at > NOW())`
	deleteDeadSQL = `DELETE FROM access_tokens
		WHERE (consumed_at IS NOT NULL AND consumed_at < $1)
		OR (revoked_at IS NOT NULL AND revoked_at < $1)
		OR (expires_at IS NOT NULL AND expires_at < $1)`
)

// TokenStore persists access tokens in the access_tokens table. Uniqueness
// of (kind, secret_digest) is a database constraint, surfaced as
// ErrConflict.
type TokenStore struct {
	pool *pgxpool.Pool
}

// NewTokenStore builds the store over a pgx pool.
func NewTokenStore(pool *pgxpool.Pool) *TokenStore {
	return &TokenStore{pool: pool}
}

func (s *TokenStore) Insert(ctx context.Context, token *domain.AccessToken) error {
	_, err := s.pool.Exec(ctx, insertTokenSQL,
		token.ID.UUID, string(token.Kind), token.SubjectID, token.SecretDigest,
		token.IssuedAt, token.ExpiresAt)
	return mapErr(err)
}

func (s *TokenStore) GetByDigest(ctx context.Context, kind domain.TokenKind, digest string) (*domain.AccessToken, error) {
	row := s.pool.QueryRow(ctx, getTokenByDigestSQL, string(kind), digest)
	return scanToken(row)
}

func (s *TokenStore) Consume(ctx context.Context, tokenID domain.TokenID) error {
	tag, err := s.pool.Exec(ctx, consumeTokenSQL, tokenID.UUID)
	if err != nil {
		return mapErr(err)
	}
	if tag.RowsAffected() > 0 {
		return nil
	}
	// Zero rows: either the token is gone or it lost a consume race.
	var consumedAt *time.Time
	err = s.pool.QueryRow(ctx, getTokenStateSQL, tokenID.UUID).Scan(&consumedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return domerrors.ErrNotFound
	}
	if err != nil {
		return mapErr(err)
	}
	if consumedAt != nil {
		return domerrors.ErrAlreadyUsed
	}
	return domerrors.ErrNotFound
}

func (s *TokenStore) Revoke(ctx context.Context, tokenID domain.TokenID) error {
	_, err := s.pool.Exec(ctx, revokeTokenSQL, tokenID.UUID)
	return mapErr(err)
}

func (s *TokenStore) RevokeMatching(ctx context.Context, tokenID domain.TokenID, kind domain.TokenKind, subjectID uuid.UUID) error {
	tag, err := s.pool.Exec(ctx, revokeMatchingSQL, tokenID.UUID, string(kind), subjectID)
	if err != nil {
		return mapErr(err)
	}
	if tag.RowsAffected() == 0 {
		return domerrors.ErrNotFound
	}
	return nil
}

func (s *TokenStore) RevokeAllForSubject(ctx context.Context, kind domain.TokenKind, subjectID uuid.UUID) error {
	_, err := s.pool.Exec(ctx, revokeAllSQL, string(kind), subjectID)
	return mapErr(err)
}

func (s *TokenStore) DeleteDeadBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	tag, err := s.pool.Exec(ctx, deleteDeadSQL, cutoff)
	if err != nil {
		return 0, mapErr(err)
	}
	return tag.RowsAffected(), nil
}

func scanToken(row pgx.Row) (*domain.AccessToken, error) {
	var (
		token domain.AccessToken
		id    uuid.UUID
		kind  string
	)
	err := row.Scan(&id, &kind, &token.SubjectID, &token.SecretDigest,
		&token.IssuedAt, &token.ExpiresAt, &token.ConsumedAt, &token.RevokedAt)
	if err != nil {
		return nil, mapErr(err)
	}
	token.ID = domain.NewTokenID(id)
	token.Kind = domain.TokenKind(kind)
	return &token, nil
}

var _ ports.TokenStore = (*TokenStore)(nil)
