package project

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/trackroom/trackroom/internal/application/accesstoken"
	"github.com/trackroom/trackroom/internal/application/ports"
	"github.com/trackroom/trackroom/internal/domain"
	domerrors "github.com/trackroom/trackroom/internal/domain/errors"
)

// CreateProjectInput names the deliverable and its revision budget.
type CreateProjectInput struct {
	Principal     domain.Principal
	Title         string
	RevisionLimit *int // nil = unlimited
}

// CreateProjectResult returns the project and the plain share secret (only
// time it is visible).
type CreateProjectResult struct {
	Project     *domain.Project
	ShareSecret string
}

// CreateProject creates a project owned by the calling engineer, minting its
// share secret; only the digest is stored.
type CreateProject struct {
	projects ports.ProjectRepository
}

// NewCreateProject builds the use case.
func NewCreateProject(projects ports.ProjectRepository) *CreateProject {
	return &CreateProject{projects: projects}
}

// Execute creates the project and returns it with the plain share secret.
func (uc *CreateProject) Execute(ctx context.Context, input CreateProjectInput) (*CreateProjectResult, error) {
	if !input.Principal.IsSession() {
		return nil, domerrors.ErrUnauthenticated
	}
	if input.Principal.Role != domain.RoleEngineer && input.Principal.Role != domain.RoleAdmin {
		return nil, domerrors.ErrForbidden
	}
	secret, err := accesstoken.GenerateSecret()
	if err != nil {
		return nil, err
	}
	now := time.Now()
	project := &domain.Project{
		ID:               domain.NewProjectID(uuid.New()),
		OwnerID:          input.Principal.UserID,
		Title:            input.Title,
		ShareTokenDigest: accesstoken.DigestSecret(secret),
		RevisionLimit:    input.RevisionLimit,
		ApprovalStatus:   domain.ApprovalPending,
		CreatedAt:        now,
		UpdatedAt:        now,
	}
	if err := uc.projects.Create(ctx, project); err != nil {
		return nil, err
	}
	return &CreateProjectResult{Project: project, ShareSecret: secret}, nil
}
