package project

import (
	"context"

	"github.com/trackroom/trackroom/internal/application/authz"
	"github.com/trackroom/trackroom/internal/application/ports"
	"github.com/trackroom/trackroom/internal/domain"
)

// ViewInput fetches a project and its version history.
type ViewInput struct {
	Principal domain.Principal
	ProjectID domain.ProjectID
}

// ViewResult carries the project and its versions in submission order.
type ViewResult struct {
	Project  *domain.Project
	Versions []domain.Version
}

// View reads a project for any principal the engine admits on project.read:
// owner, admin, or review link. Share links go through ShareView instead.
type View struct {
	engine   *authz.Engine
	projects ports.ProjectRepository
}

// NewView builds the use case.
func NewView(engine *authz.Engine, projects ports.ProjectRepository) *View {
	return &View{engine: engine, projects: projects}
}

// Execute authorizes the read and returns the project with its versions.
func (uc *View) Execute(ctx context.Context, input ViewInput) (*ViewResult, error) {
	decision, err := uc.engine.Authorize(ctx, input.Principal, authz.ActionProjectRead, input.ProjectID.UUID)
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
	return &ViewResult{Project: proj, Versions: versions}, nil
}
