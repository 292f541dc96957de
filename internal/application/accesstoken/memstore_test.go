package accesstoken

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/trackroom/trackroom/internal/application/ports"
	"github.com/trackroom/trackroom/internal/domain"
	domerrors "github.com/trackroom/trackroom/internal/domain/errors"
)

// memTokenStore mirrors the conditional-update semantics of the postgres
// store: consume and revoke flip their timestamps under one lock, so a
// consume race has exactly one winner.
type memTokenStore struct {
	mu     sync.Mutex
	tokens map[domain.TokenID]*domain.AccessToken
	now    func() time.Time
}

func newMemTokenStore() *memTokenStore {
	return &memTokenStore{tokens: make(map[domain.TokenID]*domain.AccessToken), now: time.Now}
}

func (m *memTokenStore) Insert(ctx context.Context, token *domain.AccessToken) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, t := range m.tokens {
		if t.Kind == token.Kind && t.SecretDigest == token.SecretDigest {
			return domerrors.ErrConflict
		}
	}
	cp := *token
	m.tokens[token.ID] = &cp
	return nil
}

func (m *memTokenStore) GetByDigest(ctx context.Context, kind domain.TokenKind, digest string) (*domain.AccessToken, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, t := range m.tokens {
		if t.Kind == kind && t.SecretDigest == digest {
			cp := *t
			return &cp, nil
		}
	}
	return nil, domerrors.ErrNotFound
}

func (m *memTokenStore) Consume(ctx context.Context, tokenID domain.TokenID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	t, ok := m.tokens[tokenID]
	if !ok {
		return domerrors.ErrNotFound
	}
	if t.ConsumedAt != nil {
		return domerrors.ErrAlreadyUsed
	}
	now := m.now()
	if t.RevokedAt != nil || t.Expired(now) {
		return domerrors.ErrNotFound
	}
	t.ConsumedAt = &now
	return nil
}

func (m *memTokenStore) Revoke(ctx context.Context, tokenID domain.TokenID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	t, ok := m.tokens[tokenID]
	if !ok {
		return domerrors.ErrNotFound
	}
	if t.RevokedAt == nil {
		now := m.now()
		t.RevokedAt = &now
	}
	return nil
}

func (m *memTokenStore) RevokeMatching(ctx context.Context, tokenID domain.TokenID, kind domain.TokenKind, subjectID uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	t, ok := m.tokens[tokenID]
	if !ok || t.Kind != kind || t.SubjectID != subjectID {
		return domerrors.ErrNotFound
	}
	if t.RevokedAt == nil {
		now := m.now()
		t.RevokedAt = &now
	}
	return nil
}

func (m *memTokenStore) RevokeAllForSubject(ctx context.Context, kind domain.TokenKind, subjectID uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	now := m.now()
	for _, t := range m.tokens {
		if t.Kind == kind && t.SubjectID == subjectID && t.Usable(now) {
			at := now
			t.RevokedAt = &at
		}
	}
	return nil
}

func (m *memTokenStore) DeleteDeadBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var n int64
	for id, t := range m.tokens {
		dead := false
		switch {
		case t.ConsumedAt != nil && t.ConsumedAt.Before(cutoff):
			dead = true
		case t.RevokedAt != nil && t.RevokedAt.Before(cutoff):
			dead = true
		case t.ExpiresAt != nil && t.ExpiresAt.Before(cutoff):
			dead = true
		}
		if dead {
			delete(m.tokens, id)
			n++
		}
	}
	return n, nil
}

var _ ports.TokenStore = (*memTokenStore)(nil)
