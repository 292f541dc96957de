package auth

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/trackroom/trackroom/internal/application/accesstoken"
	"github.com/trackroom/trackroom/internal/application/ports"
	"github.com/trackroom/trackroom/internal/domain"
	domerrors "github.com/trackroom/trackroom/internal/domain/errors"
)

// ForgotPasswordInput requests a reset email.
type ForgotPasswordInput struct {
	Email string
}

// ForgotPasswordResult returns nothing; the email is sent async, or not at
// all when the address is unknown. The caller cannot tell which.
type ForgotPasswordResult struct{}

// ForgotPassword revokes any outstanding reset token for the account, mints
// a fresh single-use one, and enqueues the email.
type ForgotPassword struct {
	tokens   *accesstoken.Service
	users    ports.UserRepository
	enqueuer ports.TaskEnqueuer
	baseURL  string
	log      zerolog.Logger
}

// NewForgotPassword builds the use case. baseURL is the reset page the
// emailed link points at.
func NewForgotPassword(tokens *accesstoken.Service, users ports.UserRepository, enqueuer ports.TaskEnqueuer, baseURL string, log zerolog.Logger) *ForgotPassword {
	return &ForgotPassword{tokens: tokens, users: users, enqueuer: enqueuer, baseURL: baseURL, log: log}
}

// Execute mints the reset token and enqueues the email. An unknown email
// succeeds without issuing anything.
func (uc *ForgotPassword) Execute(ctx context.Context, input ForgotPasswordInput) (*ForgotPasswordResult, error) {
	user, err := uc.users.GetByEmail(ctx, input.Email)
	if errors.Is(err, domerrors.ErrNotFound) {
		return &ForgotPasswordResult{}, nil
	}
	if err != nil {
		return nil, err
	}
	// A newer request supersedes older links; at most one is live per user.
	if err := uc.tokens.InvalidatePrior(ctx, domain.TokenPasswordReset, user.ID.UUID); err != nil {
		return nil, err
	}
	secret, _, err := uc.tokens.Issue(ctx, domain.TokenPasswordReset, user.ID.UUID)
	if err != nil {
		return nil, err
	}
	resetURL := fmt.Sprintf("%s?token=%s", uc.baseURL, secret)
	if err := uc.enqueuer.EnqueueSendPasswordReset(ctx, user.Email, resetURL); err != nil {
		uc.log.Error().Err(err).Msg("enqueue password reset email")
	}
	return &ForgotPasswordResult{}, nil
}
