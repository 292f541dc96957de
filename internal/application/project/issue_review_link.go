package project

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/trackroom/trackroom/internal/application/accesstoken"
	"github.com/trackroom/trackroom/internal/application/authz"
	"github.com/trackroom/trackroom/internal/application/ports"
	"github.com/trackroom/trackroom/internal/domain"
)

// IssueReviewLinkInput asks for a review link on a project, optionally
// notifying a client by email.
type IssueReviewLinkInput struct {
	Principal   domain.Principal
	ProjectID   domain.ProjectID
	ClientEmail string // empty = no reminder email
}

// IssueReviewLinkResult returns the review URL embedding the raw secret
// (only time it is visible).
type IssueReviewLinkResult struct {
	ReviewURL string
	Token     *domain.AccessToken
}

// IssueReviewLink mints a ProjectReviewLink token bound to the project and
// builds the URL a client follows to review and approve versions.
type IssueReviewLink struct {
	engine   *authz.Engine
	tokens   *accesstoken.Service
	enqueuer ports.TaskEnqueuer
	baseURL  string
	log      zerolog.Logger
}

// NewIssueReviewLink builds the use case.
func NewIssueReviewLink(engine *authz.Engine, tokens *accesstoken.Service, enqueuer ports.TaskEnqueuer, baseURL string, log zerolog.Logger) *IssueReviewLink {
	return &IssueReviewLink{engine: engine, tokens: tokens, enqueuer: enqueuer, baseURL: baseURL, log: log}
}

// Execute authorizes the owner, issues the token, and enqueues the reminder
// email best-effort.
func (uc *IssueReviewLink) Execute(ctx context.Context, input IssueReviewLinkInput) (*IssueReviewLinkResult, error) {
	decision, err := uc.engine.Authorize(ctx, input.Principal, authz.ActionProjectWrite, input.ProjectID.UUID)
	if err != nil {
		return nil, err
	}
	if !decision.Allow {
		return nil, decision.Reason
	}
	secret, token, err := uc.tokens.Issue(ctx, domain.TokenProjectReviewLink, input.ProjectID.UUID)
	if err != nil {
		return nil, err
	}
	reviewURL := fmt.Sprintf("%s/%s?token=%s", uc.baseURL, input.ProjectID, secret)
	if input.ClientEmail != "" {
		if err := uc.enqueuer.EnqueueReviewReminder(ctx, input.ProjectID.String(), input.ClientEmail, reviewURL); err != nil {
			uc.log.Warn().Err(err).Str("project_id", input.ProjectID.String()).Msg("enqueue review reminder failed")
		}
	}
	return &IssueReviewLinkResult{ReviewURL: reviewURL, Token: token}, nil
}
