package ports

import (
	"context"
	"time"

	"github.com/trackroom/trackroom/internal/domain"
)

// UserRepository defines persistence for user accounts.
type UserRepository interface {
	Create(ctx context.Context, user *domain.User) error
	GetByEmail(ctx context.Context, email string) (*domain.User, error)
	GetByID(ctx context.Context, userID domain.UserID) (*domain.User, error)
	UpdatePassword(ctx context.Context, userID domain.UserID, passwordHash string) error
}

// ProjectRepository defines persistence for projects and their versions.
// SubmitVersion and Approve are the two concurrency-critical operations:
// both must be conditional updates serialized at the store, never a
// read-then-write pair.
type ProjectRepository interface {
	Create(ctx context.Context, project *domain.Project) error
	GetByID(ctx context.Context, projectID domain.ProjectID) (*domain.Project, error)
	// UpdateShareDigest replaces the share token digest wholesale.
	UpdateShareDigest(ctx context.Context, projectID domain.ProjectID, digest string) error

	// SubmitVersion atomically checks the pending status and the revision
	// budget, increments revisions_used, and appends the version record.
	// Fills in version.Number. Returns ErrProjectLocked when approved,
	// ErrRevisionLimitExceeded when the budget is spent; in both cases no
	// version is created and the counter is untouched.
	SubmitVersion(ctx context.Context, projectID domain.ProjectID, version *domain.Version) error
	// Approve performs the pending->approved transition as a single
	// compare-and-set, stamping the approved fields together. Returns
	// applied=false when the project was not pending (or the version does
	// not belong to it).
	Approve(ctx context.Context, projectID domain.ProjectID, versionID domain.VersionID, approvedBy string, at time.Time) (applied bool, err error)
	// Reopen flips approved back to pending, keeping the approved fields
	// as history and leaving revisions_used untouched.
	Reopen(ctx context.Context, projectID domain.ProjectID) error
	ListVersions(ctx context.Context, projectID domain.ProjectID) ([]domain.Version, error)
}

// FolderRepository defines persistence for client folders and their files.
type FolderRepository interface {
	Create(ctx context.Context, folder *domain.ClientFolder) error
	GetByID(ctx context.Context, folderID domain.FolderID) (*domain.ClientFolder, error)
	InsertFile(ctx context.Context, file *domain.FolderFile) error
	GetFile(ctx context.Context, folderID domain.FolderID, fileID domain.FileID) (*domain.FolderFile, error)
	RenameFile(ctx context.Context, folderID domain.FolderID, fileID domain.FileID, name string) error
	DeleteFile(ctx context.Context, folderID domain.FolderID, fileID domain.FileID) error
	ListFiles(ctx context.Context, folderID domain.FolderID) ([]domain.FolderFile, error)
}
