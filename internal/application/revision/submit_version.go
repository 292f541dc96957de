package revision

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
)

// SubmitVersionInput carries a new deliverable revision.
type SubmitVersionInput struct {
	Principal domain.Principal
	ProjectID domain.ProjectID
	Note      string
	Payload   io.Reader
}

// SubmitVersionResult returns the accepted version.
type SubmitVersionResult struct {
	Version *domain.Version
}

// SubmitVersion appends a new version to a pending project. The revision
// budget check and the counter increment happen as one conditional update
// in the repository, so concurrent submissions cannot race past the limit.
type SubmitVersion struct {
	engine   *authz.Engine
	projects ports.ProjectRepository
	blobs    ports.BlobStore
	log      zerolog.Logger
}

// NewSubmitVersion builds the use case.
func NewSubmitVersion(engine *authz.Engine, projects ports.ProjectRepository, blobs ports.BlobStore, log zerolog.Logger) *SubmitVersion {
	return &SubmitVersion{engine: engine, projects: projects, blobs: blobs, log: log}
}

// Execute authorizes the write, stores the payload, and records the version.
// On a refused submission the stored blob is removed best-effort.
func (uc *SubmitVersion) Execute(ctx context.Context, input SubmitVersionInput) (*SubmitVersionResult, error) {
	decision, err := uc.engine.Authorize(ctx, input.Principal, authz.ActionProjectWrite, input.ProjectID.UUID)
	if err != nil {
		return nil, err
	}
	if !decision.Allow {
		return nil, decision.Reason
	}

	version := &domain.Version{
		ID:         domain.NewVersionID(uuid.New()),
		ProjectID:  input.ProjectID,
		Note:       input.Note,
		UploadedBy: decision.Actor,
		UploadedAt: time.Now(),
	}
	if input.Payload != nil {
		version.BlobKey = fmt.Sprintf("projects/%s/versions/%s", input.ProjectID, version.ID)
		if _, err := uc.blobs.Put(ctx, version.BlobKey, input.Payload); err != nil {
			return nil, err
		}
	}

	if err := uc.projects.SubmitVersion(ctx, input.ProjectID, version); err != nil {
		if version.BlobKey != "" {
			if delErr := uc.blobs.Delete(ctx, version.BlobKey); delErr != nil {
				uc.log.Warn().Err(delErr).Str("blob_key", version.BlobKey).Msg("orphaned blob after refused submission")
			}
		}
		return nil, err
	}
	return &SubmitVersionResult{Version: version}, nil
}
