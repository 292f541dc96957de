package folder

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/trackroom/trackroom/internal/application/accesstoken"
	"github.com/trackroom/trackroom/internal/application/authz"
	"github.com/trackroom/trackroom/internal/application/ports"
	"github.com/trackroom/trackroom/internal/domain"
	domerrors "github.com/trackroom/trackroom/internal/domain/errors"
)

// GrantAccessInput asks for a folder-access link for an outside client.
type GrantAccessInput struct {
	Principal   domain.Principal
	FolderID    domain.FolderID
	ClientEmail string // empty = no email, link returned only
}

// GrantAccessResult returns the upload URL embedding the raw secret (only
// time it is visible).
type GrantAccessResult struct {
	UploadURL string
	Token     *domain.AccessToken
}

// GrantAccess mints a ClientFolderAccess token bound to the folder. The
// holder may read everything in the folder; mutations are further scoped by
// the author-match rule in the file use cases.
type GrantAccess struct {
	engine   *authz.Engine
	tokens   *accesstoken.Service
	enqueuer ports.TaskEnqueuer
	baseURL  string
	log      zerolog.Logger
}

// NewGrantAccess builds the use case.
func NewGrantAccess(engine *authz.Engine, tokens *accesstoken.Service, enqueuer ports.TaskEnqueuer, baseURL string, log zerolog.Logger) *GrantAccess {
	return &GrantAccess{engine: engine, tokens: tokens, enqueuer: enqueuer, baseURL: baseURL, log: log}
}

// Execute authorizes the owner and issues the access token.
func (uc *GrantAccess) Execute(ctx context.Context, input GrantAccessInput) (*GrantAccessResult, error) {
	decision, err := uc.engine.Authorize(ctx, input.Principal, authz.ActionFolderRead, input.FolderID.UUID)
	if err != nil {
		return nil, err
	}
	if !decision.Allow {
		return nil, decision.Reason
	}
	if decision.Role == domain.EffectiveTokenHolder {
		// Holders cannot mint further grants.
		return nil, domerrors.ErrForbidden
	}
	secret, token, err := uc.tokens.Issue(ctx, domain.TokenClientFolderAccess, input.FolderID.UUID)
	if err != nil {
		return nil, err
	}
	uploadURL := fmt.Sprintf("%s/%s?token=%s", uc.baseURL, input.FolderID, secret)
	if input.ClientEmail != "" {
		if err := uc.enqueuer.EnqueueFolderInvite(ctx, input.FolderID.String(), input.ClientEmail, uploadURL); err != nil {
			uc.log.Warn().Err(err).Str("folder_id", input.FolderID.String()).Msg("enqueue folder invite failed")
		}
	}
	return &GrantAccessResult{UploadURL: uploadURL, Token: token}, nil
}
