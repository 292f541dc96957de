package auth

import (
	"context"

	"github.com/trackroom/trackroom/internal/application/accesstoken"
	"github.com/trackroom/trackroom/internal/application/ports"
	"github.com/trackroom/trackroom/internal/domain"
	domerrors "github.com/trackroom/trackroom/internal/domain/errors"
)

// ResetPasswordInput is the secret from the reset link plus the new
// password.
type ResetPasswordInput struct {
	Token       string
	NewPassword string
}

// ResetPasswordResult returns nothing on success.
type ResetPasswordResult struct{}

// ResetPassword resolves the reset token, consumes it, and replaces the
// password hash. The consume precedes the password write: of two racing
// resets with the same link exactly one changes the password.
type ResetPassword struct {
	tokens *accesstoken.Service
	users  ports.UserRepository
	hasher ports.PasswordHasher
}

// NewResetPassword builds the use case.
func NewResetPassword(tokens *accesstoken.Service, users ports.UserRepository, hasher ports.PasswordHasher) *ResetPassword {
	return &ResetPassword{tokens: tokens, users: users, hasher: hasher}
}

// Execute validates the token and updates the password. Expired links
// report ErrExpired and already-used links ErrAlreadyUsed, so the page can
// tell the user to request a fresh one.
func (uc *ResetPassword) Execute(ctx context.Context, input ResetPasswordInput) (*ResetPasswordResult, error) {
	token, err := uc.tokens.Resolve(ctx, domain.TokenPasswordReset, input.Token, nil)
	if err != nil {
		return nil, err
	}
	user, err := uc.users.GetByID(ctx, domain.NewUserID(token.SubjectID))
	if err != nil {
		return nil, err
	}
	if uc.hasher.Verify(input.NewPassword, user.PasswordHash) {
		return nil, domerrors.ErrConflict
	}
	newHash, err := uc.hasher.Hash(input.NewPassword)
	if err != nil {
		return nil, err
	}
	if err := uc.tokens.Consume(ctx, token); err != nil {
		return nil, err
	}
	if err := uc.users.UpdatePassword(ctx, user.ID, newHash); err != nil {
		return nil, err
	}
	return &ResetPasswordResult{}, nil
}
