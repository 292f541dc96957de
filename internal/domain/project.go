package domain

import (
	"time"

	"github.com/google/uuid"
)

// ProjectID is a value object for project identity.
type ProjectID struct{ uuid.UUID }

// NewProjectID creates a new ProjectID from uuid.
func NewProjectID(id uuid.UUID) ProjectID { return ProjectID{UUID: id} }

// String returns the canonical string form.
func (p ProjectID) String() string { return p.UUID.String() }

// VersionID is a value object for version identity.
type VersionID struct{ uuid.UUID }

// NewVersionID creates a new VersionID from uuid.
func NewVersionID(id uuid.UUID) VersionID { return VersionID{UUID: id} }

// String returns the canonical string form.
func (v VersionID) String() string { return v.UUID.String() }

// ApprovalStatus of a project deliverable.
type ApprovalStatus string

const (
	ApprovalPending  ApprovalStatus = "pending"
	ApprovalApproved ApprovalStatus = "approved"
)

// Project is a media deliverable owned by an engineer. The share token is a
// single denormalized digest on the row; resetting it voids every link
// distributed so far. Revision accounting is monotonic across the project's
// lifetime: reopening after approval does not reset RevisionsUsed.
type Project struct {
	ID               ProjectID
	OwnerID          UserID
	Title            string
	ShareTokenDigest string
	RevisionLimit    *int // nil = unlimited
	RevisionsUsed    int
	ApprovalStatus   ApprovalStatus
	// Approved* are set together on the pending->approved transition and
	// kept as history after a reopen.
	ApprovedVersionID *VersionID
	ApprovedAt        *time.Time
	ApprovedBy        string
	CreatedAt         time.Time
	UpdatedAt         time.Time
}

// Locked reports whether new versions are refused until the owner reopens.
func (p *Project) Locked() bool { return p.ApprovalStatus == ApprovalApproved }

// RevisionsExhausted reports whether the revision budget is spent.
func (p *Project) RevisionsExhausted() bool {
	return p.RevisionLimit != nil && p.RevisionsUsed >= *p.RevisionLimit
}

// Version is one accepted revision of a project's deliverable.
type Version struct {
	ID         VersionID
	ProjectID  ProjectID
	Number     int
	BlobKey    string
	Note       string
	UploadedBy string
	UploadedAt time.Time
}
