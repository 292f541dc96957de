package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/trackroom/trackroom/internal/application/ports"
	"github.com/trackroom/trackroom/internal/domain"
	domerrors "github.com/trackroom/trackroom/internal/domain/errors"
)

const (
	createProjectSQL = `INSERT INTO projects
		(id, owner_id, title, share_token_digest, revision_limit, revisions_used, approval_status, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`
	getProjectSQL = `SELECT id, owner_id, title, share_token_digest, revision_limit, revisions_used,
		approval_status, approved_version_id, approved_at, approved_by, created_at, updated_at
		FROM projects WHERE id = $1`
	updateShareDigestSQL = `UPDATE projects SET share_token_digest = $2, updated_at = NOW() WHERE id = $1`

	// Status and budget guard live in the WHERE clause so two racing
	// submissions cannot both pass a stale read. RETURNING delivers the
	// incremented counter, which is the new version's number.
	claimRevisionSQL = `UPDATE projects SET revisions_used = revisions_used + 1, updated_at = NOW()
		WHERE id = $1 AND approval_status = 'pending'
		AND (revision_limit IS NULL OR revisions_used < revision_limit)
		RETURNING revisions_used`
	insertVersionSQL = `INSERT INTO versions (id, project_id, number, blob_key, note, uploaded_by, uploaded_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`

	approveProjectSQL = `UPDATE projects SET approval_status = 'approved',
		approved_version_id = $2, approved_by = $3, approved_at = $4, updated_at = NOW()
		WHERE id = $1 AND approval_status = 'pending'
		AND EXISTS (SELECT 1 FROM versions WHERE id = $2 AND project_id = $1)`
	reopenProjectSQL = `UPDATE projects SET approval_status = 'pending', updated_at = NOW() WHERE id = $1`
	projectExistsSQL = `SELECT 1 FROM projects WHERE id = $1`

	listVersionsSQL = `SELECT id, project_id, number, blob_key, note, uploaded_by, uploaded_at
		FROM versions WHERE project_id = $1 ORDER BY number`
)

// ProjectRepository persists projects and their versions. The two
// transition operations, SubmitVersion and Approve, are conditional updates
// serialized by Postgres row locking.
type ProjectRepository struct {
	pool *pgxpool.Pool
}

// NewProjectRepository builds the repository over a pgx pool.
func NewProjectRepository(pool *pgxpool.Pool) *ProjectRepository {
	return &ProjectRepository{pool: pool}
}

func (r *ProjectRepository) Create(ctx context.Context, project *domain.Project) error {
	_, err := r.pool.Exec(ctx, createProjectSQL,
		project.ID.UUID, project.OwnerID.UUID, project.Title, project.ShareTokenDigest,
		project.RevisionLimit, project.RevisionsUsed, string(project.ApprovalStatus),
		project.CreatedAt, project.UpdatedAt)
	return mapErr(err)
}

func (r *ProjectRepository) GetByID(ctx context.Context, projectID domain.ProjectID) (*domain.Project, error) {
	return scanProject(r.pool.QueryRow(ctx, getProjectSQL, projectID.UUID))
}

func (r *ProjectRepository) UpdateShareDigest(ctx context.Context, projectID domain.ProjectID, digest string) error {
	tag, err := r.pool.Exec(ctx, updateShareDigestSQL, projectID.UUID, digest)
	if err != nil {
		return mapErr(err)
	}
	if tag.RowsAffected() == 0 {
		return domerrors.ErrNotFound
	}
	return nil
}

func (r *ProjectRepository) SubmitVersion(ctx context.Context, projectID domain.ProjectID, version *domain.Version) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return mapErr(err)
	}
	defer tx.Rollback(ctx)

	var number int
	err = tx.QueryRow(ctx, claimRevisionSQL, projectID.UUID).Scan(&number)
	if errors.Is(err, pgx.ErrNoRows) {
		// Claim refused. Re-read outside the claim to say why.
		return r.refusalReason(ctx, projectID)
	}
	if err != nil {
		return mapErr(err)
	}
	version.Number = number
	_, err = tx.Exec(ctx, insertVersionSQL,
		version.ID.UUID, projectID.UUID, version.Number, version.BlobKey,
		version.Note, version.UploadedBy, version.UploadedAt)
	if err != nil {
		return mapErr(err)
	}
	return mapErr(tx.Commit(ctx))
}

// refusalReason distinguishes the three ways the revision claim can match
// zero rows: missing project, approved project, spent budget.
func (r *ProjectRepository) refusalReason(ctx context.Context, projectID domain.ProjectID) error {
	project, err := r.GetByID(ctx, projectID)
	if err != nil {
		return err
	}
	if project.Locked() {
		return domerrors.ErrProjectLocked
	}
	if project.RevisionsExhausted() {
		return domerrors.ErrRevisionLimitExceeded
	}
	// The claim lost to a concurrent transition that has since reversed.
	return domerrors.ErrConflict
}

func (r *ProjectRepository) Approve(ctx context.Context, projectID domain.ProjectID, versionID domain.VersionID, approvedBy string, at time.Time) (bool, error) {
	tag, err := r.pool.Exec(ctx, approveProjectSQL, projectID.UUID, versionID.UUID, approvedBy, at)
	if err != nil {
		return false, mapErr(err)
	}
	if tag.RowsAffected() > 0 {
		return true, nil
	}
	var one int
	err = r.pool.QueryRow(ctx, projectExistsSQL, projectID.UUID).Scan(&one)
	if errors.Is(err, pgx.ErrNoRows) {
		return false, domerrors.ErrNotFound
	}
	if err != nil {
		return false, mapErr(err)
	}
	return false, nil
}

func (r *ProjectRepository) Reopen(ctx context.Context, projectID domain.ProjectID) error {
	tag, err := r.pool.Exec(ctx, reopenProjectSQL, projectID.UUID)
	if err != nil {
		return mapErr(err)
	}
	if tag.RowsAffected() == 0 {
		return domerrors.ErrNotFound
	}
	return nil
}

func (r *ProjectRepository) ListVersions(ctx context.Context, projectID domain.ProjectID) ([]domain.Version, error) {
	rows, err := r.pool.Query(ctx, listVersionsSQL, projectID.UUID)
	if err != nil {
		return nil, mapErr(err)
	}
	defer rows.Close()
	var versions []domain.Version
	for rows.Next() {
		var v domain.Version
		var id, pid uuid.UUID
		if err := rows.Scan(&id, &pid, &v.Number, &v.BlobKey, &v.Note, &v.UploadedBy, &v.UploadedAt); err != nil {
			return nil, mapErr(err)
		}
		v.ID = domain.NewVersionID(id)
		v.ProjectID = domain.NewProjectID(pid)
		versions = append(versions, v)
	}
	return versions, mapErr(rows.Err())
}

func scanProject(row pgx.Row) (*domain.Project, error) {
	var (
		p                 domain.Project
		id, ownerID       uuid.UUID
		status            string
		approvedVersionID *uuid.UUID
	)
	err := row.Scan(&id, &ownerID, &p.Title, &p.ShareTokenDigest, &p.RevisionLimit,
		&p.RevisionsUsed, &status, &approvedVersionID, &p.ApprovedAt, &p.ApprovedBy,
		&p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return nil, mapErr(err)
	}
	p.ID = domain.NewProjectID(id)
	p.OwnerID = domain.NewUserID(ownerID)
	p.ApprovalStatus = domain.ApprovalStatus(status)
	if approvedVersionID != nil {
		vid := domain.NewVersionID(*approvedVersionID)
		p.ApprovedVersionID = &vid
	}
	return &p, nil
}

var _ ports.ProjectRepository = (*ProjectRepository)(nil)
