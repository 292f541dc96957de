package revision

import (
	"context"

	"github.com/trackroom/trackroom/internal/application/authz"
	"github.com/trackroom/trackroom/internal/application/ports"
	"github.com/trackroom/trackroom/internal/domain"
	domerrors "github.com/trackroom/trackroom/internal/domain/errors"
)

// ReopenInput is the project to unlock.
type ReopenInput struct {
	Principal domain.Principal
	ProjectID domain.ProjectID
}

// ReopenResult returns nothing on success.
type ReopenResult struct{}

// Reopen flips an approved project back to pending. Owner-only (admins pass
// through the global override); token holders cannot reopen. The approved
// fields stay as history and revisions_used keeps counting from where it
// stopped — the budget applies across the project's full lifetime.
type Reopen struct {
	engine   *authz.Engine
	projects ports.ProjectRepository
}

// NewReopen builds the use case.
func NewReopen(engine *authz.Engine, projects ports.ProjectRepository) *Reopen {
	return &Reopen{engine: engine, projects: projects}
}

// Execute authorizes and applies the reopen.
func (uc *Reopen) Execute(ctx context.Context, input ReopenInput) (*ReopenResult, error) {
	decision, err := uc.engine.Authorize(ctx, input.Principal, authz.ActionProjectWrite, input.ProjectID.UUID)
	if err != nil {
		return nil, err
	}
	if !decision.Allow {
		return nil, decision.Reason
	}
	if decision.Role == domain.EffectiveTokenHolder {
		return nil, domerrors.ErrForbidden
	}
	if err := uc.projects.Reopen(ctx, input.ProjectID); err != nil {
		return nil, err
	}
	return &ReopenResult{}, nil
}
