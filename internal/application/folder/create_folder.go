package folder

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/trackroom/trackroom/internal/application/ports"
	"github.com/trackroom/trackroom/internal/domain"
	domerrors "github.com/trackroom/trackroom/internal/domain/errors"
)

// CreateFolderInput names the upload drop-box.
type CreateFolderInput struct {
	Principal domain.Principal
	Name      string
}

// CreateFolderResult returns the created folder.
type CreateFolderResult struct {
	Folder *domain.ClientFolder
}

// CreateFolder creates a client folder owned by the calling engineer.
type CreateFolder struct {
	folders ports.FolderRepository
}

// NewCreateFolder builds the use case.
func NewCreateFolder(folders ports.FolderRepository) *CreateFolder {
	return &CreateFolder{folders: folders}
}

// Execute creates the folder.
func (uc *CreateFolder) Execute(ctx context.Context, input CreateFolderInput) (*CreateFolderResult, error) {
	if !input.Principal.IsSession() {
		return nil, domerrors.ErrUnauthenticated
	}
	if input.Principal.Role != domain.RoleEngineer && input.Principal.Role != domain.RoleAdmin {
		return nil, domerrors.ErrForbidden
	}
	now := time.Now()
	folder := &domain.ClientFolder{
		ID:        domain.NewFolderID(uuid.New()),
		OwnerID:   input.Principal.UserID,
		Name:      input.Name,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := uc.folders.Create(ctx, folder); err != nil {
		return nil, err
	}
	return &CreateFolderResult{Folder: folder}, nil
}
