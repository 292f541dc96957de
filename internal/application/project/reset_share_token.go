package project

import (
	"context"

	"github.com/trackroom/trackroom/internal/application/accesstoken"
	"github.com/trackroom/trackroom/internal/application/authz"
	"github.com/trackroom/trackroom/internal/application/ports"
	"github.com/trackroom/trackroom/internal/domain"
)

// ResetShareTokenInput is the project whose share secret rotates.
type ResetShareTokenInput struct {
	Principal domain.Principal
	ProjectID domain.ProjectID
}

// ResetShareTokenResult returns the new plain share secret (only time it is
// visible).
type ResetShareTokenResult struct {
	ShareSecret string
}

// ResetShareToken replaces the project's share digest with a freshly
// generated one. Every previously distributed share link dies the instant
// the update lands; there is no grace period.
type ResetShareToken struct {
	engine   *authz.Engine
	projects ports.ProjectRepository
}

// NewResetShareToken builds the use case.
func NewResetShareToken(engine *authz.Engine, projects ports.ProjectRepository) *ResetShareToken {
	return &ResetShareToken{engine: engine, projects: projects}
}

// Execute rotates the share secret and returns the new plain value.
func (uc *ResetShareToken) Execute(ctx context.Context, input ResetShareTokenInput) (*ResetShareTokenResult, error) {
	decision, err := uc.engine.Authorize(ctx, input.Principal, authz.ActionProjectWrite, input.ProjectID.UUID)
	if err != nil {
		return nil, err
	}
	if !decision.Allow {
		return nil, decision.Reason
	}
	secret, err := accesstoken.GenerateSecret()
	if err != nil {
		return nil, err
	}
	if err := uc.projects.UpdateShareDigest(ctx, input.ProjectID, accesstoken.DigestSecret(secret)); err != nil {
		return nil, err
	}
	return &ResetShareTokenResult{ShareSecret: secret}, nil
}
