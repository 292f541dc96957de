package handlers

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/trackroom/trackroom/internal/application/folder"
	"github.com/trackroom/trackroom/internal/application/ports"
	"github.com/trackroom/trackroom/internal/domain"
	domerrors "github.com/trackroom/trackroom/internal/domain/errors"
	"github.com/trackroom/trackroom/internal/infrastructure/http/middleware"
)

type FolderHandler struct {
	create      *folder.CreateFolder
	grant       *folder.GrantAccess
	revokeGrant *folder.RevokeGrant
	files       *folder.Files
	lockout     ports.ResolveLockoutStore
	emitter     ports.WebhookEmitter
	validate    *validator.Validate
	log         zerolog.Logger
}

func NewFolderHandler(create *folder.CreateFolder, grant *folder.GrantAccess, revokeGrant *folder.RevokeGrant, files *folder.Files, lockout ports.ResolveLockoutStore, emitter ports.WebhookEmitter, log zerolog.Logger) *FolderHandler {
	return &FolderHandler{
		create:      create,
		grant:       grant,
		revokeGrant: revokeGrant,
		files:       files,
		lockout:     lockout,
		emitter:     emitter,
		validate:    validator.New(),
		log:         log,
	}
}

func (h *FolderHandler) Create(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Name string `json:"name" validate:"required,max=200"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeErr(w, http.StatusBadRequest, "", "invalid body")
		return
	}
	if err := h.validate.Struct(&body); err != nil {
		writeErr(w, http.StatusBadRequest, "", err.Error())
		return
	}
	name := SanitizeName(body.Name, MaxTitleLength)
	if name == "" {
		writeErr(w, http.StatusBadRequest, "", "invalid name")
		return
	}
	principal := middleware.PrincipalFromContext(r.Context())
	result, err := h.create.Execute(r.Context(), folder.CreateFolderInput{Principal: principal, Name: name})
	if err != nil {
		writeDomainErr(w, err)
		return
	}
	AuditEmit(h.log, r, h.emitter, "folder.create", result.Folder.ID.String(), actorID(principal), true, "")
	writeJSON(w, http.StatusCreated, map[string]interface{}{
		"id":         result.Folder.ID.String(),
		"owner_id":   result.Folder.OwnerID.String(),
		"name":       result.Folder.Name,
		"created_at": result.Folder.CreatedAt,
	})
}

func (h *FolderHandler) GrantAccess(w http.ResponseWriter, r *http.Request) {
	folderID, ok := h.folderID(w, r)
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
	result, err := h.grant.Execute(r.Context(), folder.GrantAccessInput{
		Principal:   principal,
		FolderID:    folderID,
		ClientEmail: SanitizeEmail(body.ClientEmail),
	})
	if err != nil {
		AuditEmit(h.log, r, h.emitter, "token.issue", folderID.String(), actorID(principal), false, err.Error())
		writeDomainErr(w, err)
		return
	}
	AuditEmit(h.log, r, h.emitter, "token.issue", folderID.String(), actorID(principal), true, "")
	writeJSON(w, http.StatusCreated, map[string]interface{}{
		"upload_url": result.UploadURL,
		"token_id":   result.Token.ID.String(),
		"expires_at": result.Token.ExpiresAt,
	})
}

// Upload streams the request body into the folder. The file name rides in
// the name query parameter.
func (h *FolderHandler) Upload(w http.ResponseWriter, r *http.Request) {
	folderID, ok := h.folderID(w, r)
	if !ok {
		return
	}
	name := SanitizeName(r.URL.Query().Get("name"), MaxFileNameLength)
	if name == "" {
		writeErr(w, http.StatusBadRequest, "", "missing or invalid name parameter")
		return
	}
	principal := middleware.PrincipalFromContext(r.Context())
	if h.lockedOut(w, r) {
		return
	}
	file, err := h.files.Upload(r.Context(), folder.UploadInput{
		Principal: principal,
		FolderID:  folderID,
		Name:      name,
		Payload:   r.Body,
	})
	if err != nil {
		h.recordOutcome(r, principal, err)
		writeDomainErr(w, err)
		return
	}
	h.recordOutcome(r, principal, nil)
	AuditEmit(h.log, r, h.emitter, "file.upload", folderID.String(), file.UploadedBy, true, "")
	writeJSON(w, http.StatusCreated, fileJSON(file))
}

func (h *FolderHandler) List(w http.ResponseWriter, r *http.Request) {
	folderID, ok := h.folderID(w, r)
	if !ok {
		return
	}
	principal := middleware.PrincipalFromContext(r.Context())
	if h.lockedOut(w, r) {
		return
	}
	files, err := h.files.List(r.Context(), folder.ListInput{Principal: principal, FolderID: folderID})
	if err != nil {
		h.recordOutcome(r, principal, err)
		writeDomainErr(w, err)
		return
	}
	h.recordOutcome(r, principal, nil)
	out := make([]map[string]interface{}, 0, len(files))
	for i := range files {
		out = append(out, fileJSON(&files[i]))
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"files": out})
}

func (h *FolderHandler) Download(w http.ResponseWriter, r *http.Request) {
	folderID, ok := h.folderID(w, r)
	if !ok {
		return
	}
	fileID, ok := h.fileID(w, r)
	if !ok {
		return
	}
	principal := middleware.PrincipalFromContext(r.Context())
	if h.lockedOut(w, r) {
		return
	}
	file, rc, err := h.files.Download(r.Context(), folder.DownloadInput{
		Principal: principal,
		FolderID:  folderID,
		FileID:    fileID,
	})
	if err != nil {
		h.recordOutcome(r, principal, err)
		writeDomainErr(w, err)
		return
	}
	h.recordOutcome(r, principal, nil)
	defer rc.Close()
	w.Header().Set("Content-Type", "application/octet-stream")
	w.Header().Set("Content-Disposition", `attachment; filename="`+file.Name+`"`)
	_, _ = io.Copy(w, rc)
}

func (h *FolderHandler) Rename(w http.ResponseWriter, r *http.Request) {
	folderID, ok := h.folderID(w, r)
	if !ok {
		return
	}
	fileID, ok := h.fileID(w, r)
	if !ok {
		return
	}
	var body struct {
		Name string `json:"name" validate:"required,max=255"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeErr(w, http.StatusBadRequest, "", "invalid body")
		return
	}
	if err := h.validate.Struct(&body); err != nil {
		writeErr(w, http.StatusBadRequest, "", err.Error())
		return
	}
	name := SanitizeName(body.Name, MaxFileNameLength)
	if name == "" {
		writeErr(w, http.StatusBadRequest, "", "invalid name")
		return
	}
	principal := middleware.PrincipalFromContext(r.Context())
	err := h.files.Rename(r.Context(), folder.RenameInput{
		Principal: principal,
		FolderID:  folderID,
		FileID:    fileID,
		NewName:   name,
	})
	if err != nil {
		AuditEmit(h.log, r, h.emitter, "file.rename", folderID.String(), actorID(principal), false, err.Error())
		writeDomainErr(w, err)
		return
	}
	AuditEmit(h.log, r, h.emitter, "file.rename", folderID.String(), actorID(principal), true, "")
	writeJSON(w, http.StatusOK, map[string]string{"status": "renamed"})
}

func (h *FolderHandler) Delete(w http.ResponseWriter, r *http.Request) {
	folderID, ok := h.folderID(w, r)
	if !ok {
		return
	}
	fileID, ok := h.fileID(w, r)
	if !ok {
		return
	}
	principal := middleware.PrincipalFromContext(r.Context())
	err := h.files.Delete(r.Context(), folder.DeleteInput{
		Principal: principal,
		FolderID:  folderID,
		FileID:    fileID,
	})
	if err != nil {
		AuditEmit(h.log, r, h.emitter, "file.delete", folderID.String(), actorID(principal), false, err.Error())
		writeDomainErr(w, err)
		return
	}
	AuditEmit(h.log, r, h.emitter, "file.delete", folderID.String(), actorID(principal), true, "")
	writeJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}

func (h *FolderHandler) RevokeGrant(w http.ResponseWriter, r *http.Request) {
	folderID, ok := h.folderID(w, r)
	if !ok {
		return
	}
	tokenID, err := uuid.Parse(chi.URLParam(r, "tokenID"))
	if err != nil {
		writeErr(w, http.StatusBadRequest, "", "invalid token id")
		return
	}
	principal := middleware.PrincipalFromContext(r.Context())
	err = h.revokeGrant.Execute(r.Context(), folder.RevokeGrantInput{
		Principal: principal,
		FolderID:  folderID,
		TokenID:   domain.NewTokenID(tokenID),
	})
	if err != nil {
		AuditEmit(h.log, r, h.emitter, "grant.revoke", folderID.String(), actorID(principal), false, err.Error())
		writeDomainErr(w, err)
		return
	}
	AuditEmit(h.log, r, h.emitter, "grant.revoke", folderID.String(), actorID(principal), true, "")
	w.WriteHeader(http.StatusNoContent)
}

func (h *FolderHandler) folderID(w http.ResponseWriter, r *http.Request) (domain.FolderID, bool) {
	id, err := uuid.Parse(chi.URLParam(r, "folderID"))
	if err != nil {
		writeErr(w, http.StatusBadRequest, "", "invalid folder id")
		return domain.FolderID{}, false
	}
	return domain.NewFolderID(id), true
}

func (h *FolderHandler) fileID(w http.ResponseWriter, r *http.Request) (domain.FileID, bool) {
	id, err := uuid.Parse(chi.URLParam(r, "fileID"))
	if err != nil {
		writeErr(w, http.StatusBadRequest, "", "invalid file id")
		return domain.FileID{}, false
	}
	return domain.NewFileID(id), true
}

func (h *FolderHandler) lockedOut(w http.ResponseWriter, r *http.Request) bool {
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

func (h *FolderHandler) recordOutcome(r *http.Request, principal domain.Principal, err error) {
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

func fileJSON(f *domain.FolderFile) map[string]interface{} {
	return map[string]interface{}{
		"id":          f.ID.String(),
		"folder_id":   f.FolderID.String(),
		"name":        f.Name,
		"size":        f.Size,
		"uploaded_by": f.UploadedBy,
		"uploaded_at": f.UploadedAt,
	}
}
