package folder

import (
	"context"

	"github.com/trackroom/trackroom/internal/application/accesstoken"
	"github.com/trackroom/trackroom/internal/application/authz"
	"github.com/trackroom/trackroom/internal/domain"
	domerrors "github.com/trackroom/trackroom/internal/domain/errors"
)

// RevokeGrantInput kills one client's folder-access grant by token ID.
type RevokeGrantInput struct {
	Principal domain.Principal
	FolderID  domain.FolderID
	TokenID   domain.TokenID
}

// RevokeGrant lets the owner cut off a client whose access grant leaked or
// whose engagement ended, without touching the other grants on the folder.
type RevokeGrant struct {
	engine *authz.Engine
	tokens *accesstoken.Service
}

// NewRevokeGrant builds the use case.
func NewRevokeGrant(engine *authz.Engine, tokens *accesstoken.Service) *RevokeGrant {
	return &RevokeGrant{engine: engine, tokens: tokens}
}

// Execute authorizes the owner and revokes the grant. Like minting, grant
// holders cannot revoke, not even their own token.
func (uc *RevokeGrant) Execute(ctx context.Context, input RevokeGrantInput) error {
	decision, err := uc.engine.Authorize(ctx, input.Principal, authz.ActionFolderRead, input.FolderID.UUID)
	if err != nil {
		return err
	}
	if !decision.Allow {
		return decision.Reason
	}
	if decision.Role == domain.EffectiveTokenHolder {
		return domerrors.ErrForbidden
	}
	return uc.tokens.RevokeIssued(ctx, domain.TokenClientFolderAccess, input.FolderID.UUID, input.TokenID)
}
