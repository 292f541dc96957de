package project

import (
	"context"

	"github.com/trackroom/trackroom/internal/application/accesstoken"
	"github.com/trackroom/trackroom/internal/application/authz"
	"github.com/trackroom/trackroom/internal/domain"
)

// RevokeReviewLinkInput kills one issued review link by its token ID.
type RevokeReviewLinkInput struct {
	Principal domain.Principal
	ProjectID domain.ProjectID
	TokenID   domain.TokenID
}

// RevokeReviewLink lets the owner (or an admin) invalidate a review link
// before it expires, the recourse when a long-lived link leaks. The store
// checks that the token is bound to this project, so a token ID from
// another project reports ErrNotFound.
type RevokeReviewLink struct {
	engine *authz.Engine
	tokens *accesstoken.Service
}

// NewRevokeReviewLink builds the use case.
func NewRevokeReviewLink(engine *authz.Engine, tokens *accesstoken.Service) *RevokeReviewLink {
	return &RevokeReviewLink{engine: engine, tokens: tokens}
}

// Execute authorizes a write on the project and revokes the link. Link
// holders themselves cannot revoke: project.write never resolves a token.
func (uc *RevokeReviewLink) Execute(ctx context.Context, input RevokeReviewLinkInput) error {
	decision, err := uc.engine.Authorize(ctx, input.Principal, authz.ActionProjectWrite, input.ProjectID.UUID)
	if err != nil {
		return err
	}
	if !decision.Allow {
		return decision.Reason
	}
	return uc.tokens.RevokeIssued(ctx, domain.TokenProjectReviewLink, input.ProjectID.UUID, input.TokenID)
}
