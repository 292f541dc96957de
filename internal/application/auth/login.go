package auth

import (
	"context"
	"errors"

	"github.com/trackroom/trackroom/internal/application/ports"
	"github.com/trackroom/trackroom/internal/domain"
	domerrors "github.com/trackroom/trackroom/internal/domain/errors"
)

// DefaultSessionExpiry is the session lifetime when the config leaves it
// unset.
const DefaultSessionExpiry int64 = 86400 // 24h

// LoginInput carries the credentials.
type LoginInput struct {
	Email    string
	Password string
}

// LoginResult carries the signed session and the account it belongs to.
type LoginResult struct {
	Session   string
	ExpiresIn int64
	User      *domain.User
}

// Login verifies credentials and issues a session JWT carrying the user's
// role. Unknown email and wrong password are indistinguishable to the
// caller.
type Login struct {
	users      ports.UserRepository
	hasher     ports.PasswordHasher
	sessions   ports.SessionIssuer
	sessionExp int64
}

// NewLogin builds the use case.
func NewLogin(users ports.UserRepository, hasher ports.PasswordHasher, sessions ports.SessionIssuer, sessionExp int64) *Login {
	if sessionExp <= 0 {
		sessionExp = DefaultSessionExpiry
	}
	return &Login{users: users, hasher: hasher, sessions: sessions, sessionExp: sessionExp}
}

// Execute checks the password hash and signs a session.
func (uc *Login) Execute(ctx context.Context, input LoginInput) (*LoginResult, error) {
	user, err := uc.users.GetByEmail(ctx, input.Email)
	if errors.Is(err, domerrors.ErrNotFound) {
		return nil, domerrors.ErrUnauthenticated
	}
	if err != nil {
		return nil, err
	}
	if !uc.hasher.Verify(input.Password, user.PasswordHash) {
		return nil, domerrors.ErrUnauthenticated
	}
	session, err := uc.sessions.IssueSession(user.ID.String(), string(user.Role), uc.sessionExp)
	if err != nil {
		return nil, err
	}
	return &LoginResult{Session: session, ExpiresIn: uc.sessionExp, User: user}, nil
}
