package authz

import (
	"context"
	"crypto/subtle"
	"errors"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/trackroom/trackroom/internal/application/accesstoken"
	"github.com/trackroom/trackroom/internal/application/ports"
	"github.com/trackroom/trackroom/internal/domain"
	domerrors "github.com/trackroom/trackroom/internal/domain/errors"
)

var authzDecisions = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Name: "trackroom_authz_decisions_total",
		Help: "Authorization decisions by action and outcome",
	},
	[]string{"action", "outcome"},
)

// Decision is the output of one authorization evaluation. When Allow is
// false, Reason carries the sentinel to surface (ErrUnauthenticated or
// ErrForbidden). When a bearer token granted access, Token carries the
// resolved record so callers can scope follow-up checks to its subject.
type Decision struct {
	Allow bool
	Role  domain.EffectiveRole
	Token *domain.AccessToken
	// Actor is the identity authorization resolved for the caller: the
	// session user id, or the id of the granting token. Used for the
	// author-match rule on folder files and for audit fields.
	Actor  string
	Reason error
}

// Engine combines session role, re-derived ownership, and bearer token
// proof into one allow/deny decision. Precedence is a fixed first-match
// list: admin, owner, valid token, deny. The admin override is global and
// auditable here rather than re-implemented per resource type.
type Engine struct {
	tokens   *accesstoken.Service
	projects ports.ProjectRepository
	folders  ports.FolderRepository
}

// NewEngine builds the engine over its collaborators.
func NewEngine(tokens *accesstoken.Service, projects ports.ProjectRepository, folders ports.FolderRepository) *Engine {
	return &Engine{tokens: tokens, projects: projects, folders: folders}
}

// Authorize evaluates principal against action on the resource identified
// by resourceID. Ownership is always re-derived from the repository; no
// caller-supplied claim of ownership is trusted. A store failure surfaces
// as an error (retryable by the caller); a denial is final for the request.
func (e *Engine) Authorize(ctx context.Context, principal domain.Principal, action Action, resourceID uuid.UUID) (Decision, error) {
	ownerID, shareDigest, err := e.lookupResource(ctx, action, resourceID)
	if err != nil {
		if errors.Is(err, domerrors.ErrNotFound) {
			authzDecisions.WithLabelValues(string(action), "not_found").Inc()
		}
		return Decision{}, err
	}

	if principal.IsSession() {
		if principal.Role == domain.RoleAdmin {
			return e.allow(action, Decision{Allow: true, Role: domain.EffectiveAdmin, Actor: principal.UserID.String()}), nil
		}
		if ownerID == principal.UserID {
			return e.allow(action, Decision{Allow: true, Role: domain.EffectiveOwner, Actor: principal.UserID.String()}), nil
		}
	}

	if principal.IsTokenHolder() {
		if action == ActionShareRead {
			presented := accesstoken.DigestSecret(principal.BearerSecret)
			if shareDigest != "" && subtle.ConstantTimeCompare([]byte(presented), []byte(shareDigest)) == 1 {
				return e.allow(action, Decision{Allow: true, Role: domain.EffectiveTokenHolder, Actor: "share"}), nil
			}
		} else if kind, ok := action.tokenKind(); ok {
			token, err := e.tokens.Resolve(ctx, kind, principal.BearerSecret, &resourceID)
			if err == nil {
				return e.allow(action, Decision{Allow: true, Role: domain.EffectiveTokenHolder, Token: token, Actor: token.ID.String()}), nil
			}
			if errors.Is(err, domerrors.ErrStoreUnavailable) {
				return Decision{}, err
			}
			// Any other resolution failure falls through to deny.
		}
	}

	return e.deny(action, principal), nil
}

func (e *Engine) lookupResource(ctx context.Context, action Action, resourceID uuid.UUID) (owner domain.UserID, shareDigest string, err error) {
	if action.targetsProject() {
		project, err := e.projects.GetByID(ctx, domain.NewProjectID(resourceID))
		if err != nil {
			return domain.UserID{}, "", err
		}
		return project.OwnerID, project.ShareTokenDigest, nil
	}
	folder, err := e.folders.GetByID(ctx, domain.NewFolderID(resourceID))
	if err != nil {
		return domain.UserID{}, "", err
	}
	return folder.OwnerID, "", nil
}

func (e *Engine) allow(action Action, d Decision) Decision {
	authzDecisions.WithLabelValues(string(action), "allow:"+string(d.Role)).Inc()
	return d
}

func (e *Engine) deny(action Action, principal domain.Principal) Decision {
	if principal.Kind == domain.PrincipalAnonymous {
		authzDecisions.WithLabelValues(string(action), "unauthenticated").Inc()
		return Decision{Reason: domerrors.ErrUnauthenticated}
	}
	authzDecisions.WithLabelValues(string(action), "forbidden").Inc()
	return Decision{Reason: domerrors.ErrForbidden}
}
