package revision

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/trackroom/trackroom/internal/application/authz"
	"github.com/trackroom/trackroom/internal/application/ports"
	"github.com/trackroom/trackroom/internal/domain"
	domerrors "github.com/trackroom/trackroom/internal/domain/errors"
)

// ApproveInput names the version being accepted as final.
type ApproveInput struct {
	Principal domain.Principal
	ProjectID domain.ProjectID
	VersionID domain.VersionID
}

// ApproveResult returns nothing on success.
type ApproveResult struct{}

// Approve performs the pending->approved transition. The repository applies
// it as a compare-and-set; only the winning caller triggers the approval
// notification, so the notifier fires exactly once per transition.
type Approve struct {
	engine   *authz.Engine
	projects ports.ProjectRepository
	enqueuer ports.TaskEnqueuer
	log      zerolog.Logger
}

// NewApprove builds the use case.
func NewApprove(engine *authz.Engine, projects ports.ProjectRepository, enqueuer ports.TaskEnqueuer, log zerolog.Logger) *Approve {
	return &Approve{engine: engine, projects: projects, enqueuer: enqueuer, log: log}
}

// Execute authorizes the approval (owner, admin, or review-link holder) and
// applies the transition. Approving an already-approved project fails with
// ErrProjectLocked.
func (uc *Approve) Execute(ctx context.Context, input ApproveInput) (*ApproveResult, error) {
	decision, err := uc.engine.Authorize(ctx, input.Principal, authz.ActionProjectApprove, input.ProjectID.UUID)
	if err != nil {
		return nil, err
	}
	if !decision.Allow {
		return nil, decision.Reason
	}

	applied, err := uc.projects.Approve(ctx, input.ProjectID, input.VersionID, decision.Actor, time.Now())
	if err != nil {
		return nil, err
	}
	if !applied {
		return nil, domerrors.ErrProjectLocked
	}

	if err := uc.enqueuer.EnqueueApprovalNotice(ctx, input.ProjectID.String(), input.VersionID.String(), decision.Actor); err != nil {
		// Notification is fire-and-forget; the approval stands.
		uc.log.Warn().Err(err).Str("project_id", input.ProjectID.String()).Msg("enqueue approval notice failed")
	}
	return &ApproveResult{}, nil
}
