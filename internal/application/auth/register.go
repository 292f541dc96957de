package auth

import (
	"context"
	"errors"
	"regexp"
	"time"

	"github.com/google/uuid"

	"github.com/trackroom/trackroom/internal/application/ports"
	"github.com/trackroom/trackroom/internal/domain"
	domerrors "github.com/trackroom/trackroom/internal/domain/errors"
)

var emailRegex = regexp.MustCompile(`^[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}$`)

// RegisterInput creates an account. Role defaults to engineer; admin
// accounts are provisioned out of band, never through this endpoint.
type RegisterInput struct {
	Email    string
	Password string
	Role     domain.Role
}

// RegisterResult carries the created account.
type RegisterResult struct {
	User *domain.User
}

// Register creates an account with an Argon2id password hash.
type Register struct {
	users  ports.UserRepository
	hasher ports.PasswordHasher
}

// NewRegister builds the use case.
func NewRegister(users ports.UserRepository, hasher ports.PasswordHasher) *Register {
	return &Register{users: users, hasher: hasher}
}

// Execute validates the email, hashes the password, and persists the user.
func (uc *Register) Execute(ctx context.Context, input RegisterInput) (*RegisterResult, error) {
	if !emailRegex.MatchString(input.Email) {
		return nil, domerrors.ErrUnauthenticated
	}
	role := input.Role
	switch role {
	case domain.RoleEngineer, domain.RoleClient:
	case "":
		role = domain.RoleEngineer
	default:
		return nil, domerrors.ErrForbidden
	}
	_, err := uc.users.GetByEmail(ctx, input.Email)
	if err == nil {
		return nil, domerrors.ErrConflict
	}
	if !errors.Is(err, domerrors.ErrNotFound) {
		return nil, err
	}
	hash, err := uc.hasher.Hash(input.Password)
	if err != nil {
		return nil, err
	}
	now := time.Now()
	user := &domain.User{
		ID:           domain.NewUserID(uuid.New()),
		Email:        input.Email,
		PasswordHash: hash,
		Role:         role,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := uc.users.Create(ctx, user); err != nil {
		return nil, err
	}
	return &RegisterResult{User: user}, nil
}
