package project

import (
	"context"

	"github.com/trackroom/trackroom/internal/application/authz"
	"github.com/trackroom/trackroom/internal/application/ports"
	"github.com/trackroom/trackroom/internal/domain"
)

// ShareViewInput fetches a project through its share link.
type ShareViewInput struct {
	Principal domain.Principal
	ProjectID domain.ProjectID
}

// ShareViewResult carries the read-only listen view.
type ShareViewResult struct {
	Project  *domain.Project
	Versions []domain.Version
}

// ShareView is the listen-only surface behind the project share secret.
// Holders can see the project and its versions but reach none of the
// mutation or approval operations, which demand other credentials.
type ShareView struct {
	engine   *authz.Engine
	projects ports.ProjectRepository
}

// NewShareView builds the use case.
func NewShareView(engine *authz.Engine, projects ports.ProjectRepository) *ShareView {
	return &ShareView{engine: engine, projects: projects}
}

// Execute authorizes share.read and returns the project with its versions.
func (uc *ShareView) Execute(ctx context.Context, input ShareViewInput) (*ShareViewResult, error) {
	decision, err := uc.engine.Authorize(ctx, input.Principal, authz.ActionShareRead, input.ProjectID.UUID)
	if err != nil {
		return nil, err
	}
	if !decision.Allow {
		return nil, decision.Reason
	}
	proj, err := uc.projects.GetByID(ctx, input.ProjectID)
	if err != nil {
		return nil, err
	}
	versions, err := uc.projects.ListVersions(ctx, input.ProjectID)
	if err != nil {
		return nil, err
	}
	return &ShareViewResult{Project: proj, Versions: versions}, nil
}
