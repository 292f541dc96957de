package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/trackroom/trackroom/internal/application/ports"
	"github.com/trackroom/trackroom/internal/application/project"
	"github.com/trackroom/trackroom/internal/application/revision"
	"github.com/trackroom/trackroom/internal/domain"
	domerrors "github.com/trackroom/trackroom/internal/domain/errors"
	"github.com/trackroom/trackroom/internal/infrastructure/http/middleware"
)

type ProjectHandler struct {
	create     *project.CreateProject
	view       *project.View
	shareView  *project.ShareView
	reset      *project.ResetShareToken
	issueLink  *project.IssueReviewLink
	revokeLink *project.RevokeReviewLink
	submit     *revision.SubmitVersion
	approve    *revision.Approve
	reopen     *revision.Reopen
	lockout    ports.ResolveLockoutStore
	emitter    ports.WebhookEmitter
	validate   *validator.Validate
	log        zerolog.Logger
}

func NewProjectHandler(create *project.CreateProject, view *project.View, shareView *project.ShareView, reset *project.ResetShareToken, issueLink *project.IssueReviewLink, revokeLink *project.RevokeReviewLink, submit *revision.SubmitVersion, approve *revision.Approve, reopen *revision.Reopen, lockout ports.ResolveLockoutStore, emitter ports.WebhookEmitter, log zerolog.Logger) *ProjectHandler {
	return &ProjectHandler{
		create:     create,
		view:       view,
		shareView:  shareView,
		reset:      reset,
		issueLink:  issueLink,
		revokeLink: revokeLink,
		submit:     submit,
		approve:    approve,
		reopen:     reopen,
		lockout:    lockout,
		emitter:    emitter,
		validate:   validator.New(),
		log:        log,
	}
}

func (h *ProjectHandler) Create(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Title         string `json:"title" validate:"required,max=200"`
		RevisionLimit *int   `json:"revision_limit" validate:"omitempty,min=1"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeErr(w, http.StatusBadRequest, "", "invalid body")
		return
	}
	if err := h.validate.Struct(&body); err != nil {
		writeErr(w, http.StatusBadRequest, "", err.Error())
		return
	}
	title := SanitizeName(body.Title, MaxTitleLength)
	if title == "" {
		writeErr(w, http.StatusBadRequest, "", "invalid title")
		return
	}
	principal := middleware.PrincipalFromContext(r.Context())
	result, err := h.create.Execute(r.Context(), project.CreateProjectInput{
		Principal:     principal,
		Title:         title,
		RevisionLimit: body.RevisionLimit,
	})
	if err != nil {
		writeDomainErr(w, err)
		return
	}
	AuditEmit(h.log, r, h.emitter, "project.create", result.Project.ID.String(), actorID(principal), true, "")
	writeJSON(w, http.StatusCreated, map[string]interface{}{
		"project":      projectJSON(result.Project),
		"share_secret": result.ShareSecret,
	})
}

func (h *ProjectHandler) Get(w http.ResponseWriter, r *http.Request) {
	projectID, ok := h.projectID(w, r)
	if !ok {
		return
	}
	principal := middleware.PrincipalFromContext(r.Context())
	if h.locked(w, r) {
		return
	}
	result, err := h.view.Execute(r.Context(), project.ViewInput{Principal: principal, ProjectID: projectID})
	if err != nil {
		h.recordResolve(r, principal, err)
		writeDomainErr(w, err)
		return
	}
	h.recordResolve(r, principal, nil)
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"project":  projectJSON(result.Project),
		"versions": versionsJSON(result.Versions),
	})
}

// ShareGet is the listen-only view behind the share secret.
func (h *ProjectHandler) ShareGet(w http.ResponseWriter, r *http.Request) {
	projectID, ok := h.projectID(w, r)
	if !ok {
		return
	}
	principal := middleware.PrincipalFromContext(r.Context())
	if h.locked(w, r) {
		return
	}
	result, err := h.shareView.Execute(r.Context(), project.ShareViewInput{Principal: principal, ProjectID: projectID})
	if err != nil {
		h.recordResolve(r, principal, err)
		writeDomainErr(w, err)
		return
	}
	h.recordResolve(r, principal, nil)
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"project":  shareProjectJSON(result.Project),
		"versions": versionsJSON(result.Versions),
	})
}

// SubmitVersion accepts the deliverable payload as the request body; the
// note rides in the note query parameter.
func (h *ProjectHandler) SubmitVersion(w http.ResponseWriter, r *http.Request) {
	projectID, ok := h.projectID(w, r)
	if !ok {
		return
	}
	principal := middleware.PrincipalFromContext(r.Context())
	result, err := h.submit.Execute(r.Context(), revision.SubmitVersionInput{
		Principal: principal,
		ProjectID: projectID,
		Note:      r.URL.Query().Get("note"),
		Payload:   r.Body,
	})
	if err != nil {
		AuditEmit(h.log, r, h.emitter, "version.submit", projectID.String(), actorID(principal), false, err.Error())
		writeDomainErr(w, err)
		return
	}
	AuditEmit(h.log, r, h.emitter, "version.submit", projectID.String(), actorID(principal), true, "")
	writeJSON(w, http.StatusCreated, versionJSON(result.Version))
}

func (h *ProjectHandler) Approve(w http.ResponseWriter, r *http.Request) {
	projectID, ok := h.projectID(w, r)
	if !ok {
		return
	}
	var body struct {
		VersionID string `json:"version_id" validate:"required,uuid"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeErr(w, http.StatusBadRequest, "", "invalid body")
		return
	}
	if err := h.validate.Struct(&body); err != nil {
		writeErr(w, http.StatusBadRequest, "", err.Error())
		return
	}
	versionID, err := uuid.Parse(body.VersionID)
	if err != nil {
		writeErr(w, http.StatusBadRequest, "", "invalid version id")
		return
	}
	principal := middleware.PrincipalFromContext(r.Context())
	if h.locked(w, r) {
		return
	}
	_, err = h.approve.Execute(r.Context(), revision.ApproveInput{
		Principal: principal,
		ProjectID: projectID,
		VersionID: domain.NewVersionID(versionID),
	})
	if err != nil {
		h.recordResolve(r, principal, err)
		AuditEmit(h.log, r, h.emitter, "project.approve", projectID.String(), "", false, err.Error())
		writeDomainErr(w, err)
		return
	}
	h.recordResolve(r, principal, nil)
	AuditEmit(h.log, r, h.emitter, "project.approve", projectID.String(), "", true, "")
	writeJSON(w, http.StatusOK, map[string]string{"status": "approved"})
}

func (h *ProjectHandler) Reopen(w http.ResponseWriter, r *http.Request) {
	projectID, ok := h.projectID(w, r)
	if !ok {
		return
	}
	principal := middleware.PrincipalFromContext(r.Context())
	_, err := h.reopen.Execute(r.Context(), revision.ReopenInput{Principal: principal, ProjectID: projectID})
	if err != nil {
		AuditEmit(h.log, r, h.emitter, "project.reopen", projectID.String(), actorID(principal), false, err.Error())
		writeDomainErr(w, err)
		return
	}
	AuditEmit(h.log, r, h.emitter, "project.reopen", projectID.String(), actorID(principal), true, "")
	writeJSON(w, http.StatusOK, map[string]string{"status": "reopened"})
}

// ResetShareToken rotates the share secret. The old links die immediately.
func (h *ProjectHandler) ResetShareToken(w http.ResponseWriter, r *http.Request) {
	projectID, ok := h.projectID(w, r)
	if !ok {
		return
	}
	principal := middleware.PrincipalFromContext(r.Context())
	result, err := h.reset.Execute(r.Context(), project.ResetShareTokenInput{Principal: principal, ProjectID: projectID})
	if err != nil {
		AuditEmit(h.log, r, h.emitter, "share.reset", projectID.String(), actorID(principal), false, err.Error())
		writeDomainErr(w, err)
		return
	}
	AuditEmit(h.log, r, h.emitter, "share.reset", projectID.String(), actorID(principal), true, "")
	writeJSON(w, http.StatusOK, map[string]string{"share_secret": result.ShareSecret})
}

func (h *ProjectHandler) IssueReviewLink(w http.ResponseWriter, r *http.Request) {
	projectID, ok := h.projectID(w, r)
	if !ok {
		return
	}
	var body struct {
		ClientEmail string `json:"client_email" validate:"omitempty,email,max=254"`
	}
	if r.ContentLength > 0 {
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			writeErr(w, http.StatusBadRequest, "", "invalid body")
			return
		}
		if err := h.validate.Struct(&body); err != nil {
			writeErr(w, http.StatusBadRequest, "", err.Error())
			return
		}
	}
	principal := middleware.PrincipalFromContext(r.Context())
	result, err := h.issueLink.Execute(r.Context(), project.IssueReviewLinkInput{
		Principal:   principal,
		ProjectID:   projectID,
		ClientEmail: SanitizeEmail(body.ClientEmail),
	})
	if err != nil {
		AuditEmit(h.log, r, h.emitter, "token.issue", projectID.String(), actorID(principal), false, err.Error())
		writeDomainErr(w, err)
		return
	}
	AuditEmit(h.log, r, h.emitter, "token.issue", projectID.String(), actorID(principal), true, "")
	writeJSON(w, http.StatusCreated, map[string]interface{}{
		"review_url": result.ReviewURL,
		"token_id":   result.Token.ID.String(),
		"expires_at": result.Token.ExpiresAt,
	})
}

func (h *ProjectHandler) RevokeReviewLink(w http.ResponseWriter, r *http.Request) {
	projectID, ok := h.projectID(w, r)
	if !ok {
		return
	}
	tokenID, ok := h.tokenID(w, r)
	if !ok {
		return
	}
	principal := middleware.PrincipalFromContext(r.Context())
	err := h.revokeLink.Execute(r.Context(), project.RevokeReviewLinkInput{
		Principal: principal,
		ProjectID: projectID,
		TokenID:   tokenID,
	})
	if err != nil {
		AuditEmit(h.log, r, h.emitter, "token.revoke", projectID.String(), actorID(principal), false, err.Error())
		writeDomainErr(w, err)
		return
	}
	AuditEmit(h.log, r, h.emitter, "token.revoke", projectID.String(), actorID(principal), true, "")
	w.WriteHeader(http.StatusNoContent)
}

func (h *ProjectHandler) projectID(w http.ResponseWriter, r *http.Request) (domain.ProjectID, bool) {
	id, err := uuid.Parse(chi.URLParam(r, "projectID"))
	if err != nil {
		writeErr(w, http.StatusBadRequest, "", "invalid project id")
		return domain.ProjectID{}, false
	}
	return domain.NewProjectID(id), true
}

func (h *ProjectHandler) tokenID(w http.ResponseWriter, r *http.Request) (domain.TokenID, bool) {
	id, err := uuid.Parse(chi.URLParam(r, "tokenID"))
	if err != nil {
		writeErr(w, http.StatusBadRequest, "", "invalid token id")
		return domain.TokenID{}, false
	}
	return domain.NewTokenID(id), true
}

// locked answers true (and writes 429) when this client IP is cooling down
// after repeated failed link resolutions.
func (h *ProjectHandler) locked(w http.ResponseWriter, r *http.Request) bool {
	if h.lockout == nil {
		return false
	}
	locked, retryAfter := h.lockout.IsLocked(r.Context(), resolveLockKey(r))
	if locked {
		w.Header().Set("Retry-After", strconv.Itoa(retryAfter))
		writeErr(w, http.StatusTooManyRequests, ErrCodeLocked, "too many failed attempts, retry later")
		return true
	}
	return false
}

// recordResolve feeds the lockout store with the outcome of a token-holder
// request. Session traffic never counts against the key.
func (h *ProjectHandler) recordResolve(r *http.Request, principal domain.Principal, err error) {
	if h.lockout == nil || !principal.IsTokenHolder() {
		return
	}
	key := resolveLockKey(r)
	if err == nil {
		h.lockout.RecordSuccess(r.Context(), key)
		return
	}
	if errors.Is(err, domerrors.ErrNotFound) || errors.Is(err, domerrors.ErrForbidden) || errors.Is(err, domerrors.ErrUnauthenticated) {
		h.lockout.RecordFailure(r.Context(), key)
	}
}

func resolveLockKey(r *http.Request) string {
	return "resolve:" + getClientIP(r)
}

func projectJSON(p *domain.Project) map[string]interface{} {
	out := map[string]interface{}{
		"id":              p.ID.String(),
		"owner_id":        p.OwnerID.String(),
		"title":           p.Title,
		"approval_status": p.ApprovalStatus,
		"revisions_used":  p.RevisionsUsed,
		"revision_limit":  p.RevisionLimit,
		"created_at":      p.CreatedAt,
	}
	if p.ApprovedVersionID != nil {
		out["approved_version_id"] = p.ApprovedVersionID.String()
		out["approved_at"] = p.ApprovedAt
		out["approved_by"] = p.ApprovedBy
	}
	return out
}

// shareProjectJSON omits ownership and budget internals from the listen view.
func shareProjectJSON(p *domain.Project) map[string]interface{} {
	return map[string]interface{}{
		"id":              p.ID.String(),
		"title":           p.Title,
		"approval_status": p.ApprovalStatus,
	}
}

func versionJSON(v *domain.Version) map[string]interface{} {
	return map[string]interface{}{
		"id":          v.ID.String(),
		"project_id":  v.ProjectID.String(),
		"number":      v.Number,
		"note":        v.Note,
		"uploaded_by": v.UploadedBy,
		"uploaded_at": v.UploadedAt,
	}
}

func versionsJSON(vs []domain.Version) []map[string]interface{} {
	out := make([]map[string]interface{}, 0, len(vs))
	for i := range vs {
		out = append(out, versionJSON(&vs[i]))
	}
	return out
}

// actorID is the audit actor for a principal: the session user id, or
// empty for link-borne callers whose token id is not yet resolved here.
func actorID(p domain.Principal) string {
	if p.IsSession() {
		return p.UserID.String()
	}
	return ""
}
