package folder

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/trackroom/trackroom/internal/application/authz"
	"github.com/trackroom/trackroom/internal/application/ports"
	"github.com/trackroom/trackroom/internal/domain"
	domerrors "github.com/trackroom/trackroom/internal/domain/errors"
)

// Files bundles the per-file operations on a client folder. Reads are
// folder-wide for any granted principal; rename and delete by a token
// holder additionally require the file's UploadedBy to match the
// token-resolved identity. Owners and admins mutate anything.
type Files struct {
	engine  *authz.Engine
	folders ports.FolderRepository
	blobs   ports.BlobStore
	log     zerolog.Logger
}

// NewFiles builds the use case bundle.
func NewFiles(engine *authz.Engine, folders ports.FolderRepository, blobs ports.BlobStore, log zerolog.Logger) *Files {
	return &Files{engine: engine, folders: folders, blobs: blobs, log: log}
}

// UploadInput carries one incoming file.
type UploadInput struct {
	Principal domain.Principal
	FolderID  domain.FolderID
	Name      string
	Payload   io.Reader
}

// Upload stores the payload and records the file, stamping UploadedBy with
// the identity authorization resolved.
func (uc *Files) Upload(ctx context.Context, input UploadInput) (*domain.FolderFile, error) {
	decision, err := uc.engine.Authorize(ctx, input.Principal, authz.ActionFileUpload, input.FolderID.UUID)
	if err != nil {
		return nil, err
	}
	if !decision.Allow {
		return nil, decision.Reason
	}

	file := &domain.FolderFile{
		ID:         domain.NewFileID(uuid.New()),
		FolderID:   input.FolderID,
		Name:       input.Name,
		BlobKey:    fmt.Sprintf("folders/%s/files/%s", input.FolderID, uuid.New()),
		UploadedBy: decision.Actor,
		UploadedAt: time.Now(),
	}
	size, err := uc.blobs.Put(ctx, file.BlobKey, input.Payload)
	if err != nil {
		return nil, err
	}
	file.Size = size
	if err := uc.folders.InsertFile(ctx, file); err != nil {
		if delErr := uc.blobs.Delete(ctx, file.BlobKey); delErr != nil {
			uc.log.Warn().Err(delErr).Str("blob_key", file.BlobKey).Msg("orphaned blob after failed insert")
		}
		return nil, err
	}
	return file, nil
}

// RenameInput renames one file.
type RenameInput struct {
	Principal domain.Principal
	FolderID  domain.FolderID
	FileID    domain.FileID
	NewName   string
}

// Rename renames a file, enforcing author-match for token holders.
func (uc *Files) Rename(ctx context.Context, input RenameInput) error {
	if err := uc.authorizeMutation(ctx, input.Principal, authz.ActionFileRename, input.FolderID, input.FileID); err != nil {
		return err
	}
	return uc.folders.RenameFile(ctx, input.FolderID, input.FileID, input.NewName)
}

// DeleteInput removes one file.
type DeleteInput struct {
	Principal domain.Principal
	FolderID  domain.FolderID
	FileID    domain.FileID
}

// Delete removes the file record, then deletes the blob best-effort:
// a failed blob delete is logged and never rolls back the metadata delete.
func (uc *Files) Delete(ctx context.Context, input DeleteInput) error {
	if err := uc.authorizeMutation(ctx, input.Principal, authz.ActionFileDelete, input.FolderID, input.FileID); err != nil {
		return err
	}
	file, err := uc.folders.GetFile(ctx, input.FolderID, input.FileID)
	if err != nil {
		return err
	}
	if err := uc.folders.DeleteFile(ctx, input.FolderID, input.FileID); err != nil {
		return err
	}
	if err := uc.blobs.Delete(ctx, file.BlobKey); err != nil {
		uc.log.Warn().Err(err).Str("blob_key", file.BlobKey).Msg("blob delete failed; metadata removed")
	}
	return nil
}

// ListInput lists a folder's files.
type ListInput struct {
	Principal domain.Principal
	FolderID  domain.FolderID
}

// List returns every file in the folder. Visibility is folder-wide: a
// token holder sees files uploaded by others sharing the same folder.
func (uc *Files) List(ctx context.Context, input ListInput) ([]domain.FolderFile, error) {
	decision, err := uc.engine.Authorize(ctx, input.Principal, authz.ActionFolderRead, input.FolderID.UUID)
	if err != nil {
		return nil, err
	}
	if !decision.Allow {
		return nil, decision.Reason
	}
	return uc.folders.ListFiles(ctx, input.FolderID)
}

// DownloadInput fetches one file's payload.
type DownloadInput struct {
	Principal domain.Principal
	FolderID  domain.FolderID
	FileID    domain.FileID
}

// Download opens the file payload for any granted principal.
func (uc *Files) Download(ctx context.Context, input DownloadInput) (*domain.FolderFile, io.ReadCloser, error) {
	decision, err := uc.engine.Authorize(ctx, input.Principal, authz.ActionFolderRead, input.FolderID.UUID)
	if err != nil {
		return nil, nil, err
	}
	if !decision.Allow {
		return nil, nil, decision.Reason
	}
	file, err := uc.folders.GetFile(ctx, input.FolderID, input.FileID)
	if err != nil {
		return nil, nil, err
	}
	rc, err := uc.blobs.Open(ctx, file.BlobKey)
	if err != nil {
		return nil, nil, err
	}
	return file, rc, nil
}

func (uc *Files) authorizeMutation(ctx context.Context, principal domain.Principal, action authz.Action, folderID domain.FolderID, fileID domain.FileID) error {
	decision, err := uc.engine.Authorize(ctx, principal, action, folderID.UUID)
	if err != nil {
		return err
	}
	if !decision.Allow {
		return decision.Reason
	}
	if decision.Role != domain.EffectiveTokenHolder {
		return nil
	}
	file, err := uc.folders.GetFile(ctx, folderID, fileID)
	if err != nil {
		return err
	}
	if file.UploadedBy != decision.Actor {
		return domerrors.ErrForbidden
	}
	return nil
}
