package domain

import (
	"time"

	"github.com/google/uuid"
)

// FolderID is a value object for client-folder identity.
type FolderID struct{ uuid.UUID }

// NewFolderID creates a new FolderID from uuid.
func NewFolderID(id uuid.UUID) FolderID { return FolderID{UUID: id} }

// String returns the canonical string form.
func (f FolderID) String() string { return f.UUID.String() }

// FileID is a value object for folder-file identity.
type FileID struct{ uuid.UUID }

// NewFileID creates a new FileID from uuid.
func NewFileID(id uuid.UUID) FileID { return FileID{UUID: id} }

// String returns the canonical string form.
func (f FileID) String() string { return f.UUID.String() }

// ClientFolder is an upload drop-box owned by an engineer and opened to
// clients through ClientFolderAccess tokens.
type ClientFolder struct {
	ID        FolderID
	OwnerID   UserID
	Name      string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// FolderFile is a single upload inside a client folder. UploadedBy records
// the identity that created it: the owner's user id, or the id of the
// folder-access token the uploading client held. A token holder may read
// every file in the folder but may only rename or delete files whose
// UploadedBy matches its own identity.
type FolderFile struct {
	ID         FileID
	FolderID   FolderID
	Name       string
	BlobKey    string
	Size       int64
	UploadedBy string
	UploadedAt time.Time
}
