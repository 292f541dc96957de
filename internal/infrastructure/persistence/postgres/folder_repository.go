package postgres

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/trackroom/trackroom/internal/application/ports"
	"github.com/trackroom/trackroom/internal/domain"
	domerrors "github.com/trackroom/trackroom/internal/domain/errors"
)

const (
	createFolderSQL = `INSERT INTO client_folders (id, owner_id, name, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5)`
	getFolderSQL = `SELECT id, owner_id, name, created_at, updated_at FROM client_folders WHERE id = $1`

	insertFileSQL = `INSERT INTO folder_files (id, folder_id, name, blob_key, size, uploaded_by, uploaded_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`
	getFileSQL = `SELECT id, folder_id, name, blob_key, size, uploaded_by, uploaded_at
		FROM folder_files WHERE folder_id = $1 AND id = $2`
	renameFileSQL = `UPDATE folder_files SET name = $3 WHERE folder_id = $1 AND id = $2`
	deleteFileSQL = `DELETE FROM folder_files WHERE folder_id = $1 AND id = $2`
	listFilesSQL  = `SELECT id, folder_id, name, blob_key, size, uploaded_by, uploaded_at
		FROM folder_files WHERE folder_id = $1 ORDER BY uploaded_at`
)

// FolderRepository persists client folders and their file records. Every
// file query is scoped by folder id, so a file id leaked across folders
// resolves to nothing.
type FolderRepository struct {
	pool *pgxpool.Pool
}

// NewFolderRepository builds the repository over a pgx pool.
func NewFolderRepository(pool *pgxpool.Pool) *FolderRepository {
	return &FolderRepository{pool: pool}
}

func (r *FolderRepository) Create(ctx context.Context, folder *domain.ClientFolder) error {
	_, err := r.pool.Exec(ctx, createFolderSQL,
		folder.ID.UUID, folder.OwnerID.UUID, folder.Name, folder.CreatedAt, folder.UpdatedAt)
	return mapErr(err)
}

func (r *FolderRepository) GetByID(ctx context.Context, folderID domain.FolderID) (*domain.ClientFolder, error) {
	var (
		f           domain.ClientFolder
		id, ownerID uuid.UUID
	)
	err := r.pool.QueryRow(ctx, getFolderSQL, folderID.UUID).
		Scan(&id, &ownerID, &f.Name, &f.CreatedAt, &f.UpdatedAt)
	if err != nil {
		return nil, mapErr(err)
	}
	f.ID = domain.NewFolderID(id)
	f.OwnerID = domain.NewUserID(ownerID)
	return &f, nil
}

func (r *FolderRepository) InsertFile(ctx context.Context, file *domain.FolderFile) error {
	_, err := r.pool.Exec(ctx, insertFileSQL,
		file.ID.UUID, file.FolderID.UUID, file.Name, file.BlobKey, file.Size,
		file.UploadedBy, file.UploadedAt)
	return mapErr(err)
}

func (r *FolderRepository) GetFile(ctx context.Context, folderID domain.FolderID, fileID domain.FileID) (*domain.FolderFile, error) {
	return scanFile(r.pool.QueryRow(ctx, getFileSQL, folderID.UUID, fileID.UUID))
}

func (r *FolderRepository) RenameFile(ctx context.Context, folderID domain.FolderID, fileID domain.FileID, name string) error {
	tag, err := r.pool.Exec(ctx, renameFileSQL, folderID.UUID, fileID.UUID, name)
	if err != nil {
		return mapErr(err)
	}
	if tag.RowsAffected() == 0 {
		return domerrors.ErrNotFound
	}
	return nil
}

func (r *FolderRepository) DeleteFile(ctx context.Context, folderID domain.FolderID, fileID domain.FileID) error {
	tag, err := r.pool.Exec(ctx, deleteFileSQL, folderID.UUID, fileID.UUID)
	if err != nil {
		return mapErr(err)
	}
	if tag.RowsAffected() == 0 {
		return domerrors.ErrNotFound
	}
	return nil
}

func (r *FolderRepository) ListFiles(ctx context.Context, folderID domain.FolderID) ([]domain.FolderFile, error) {
	rows, err := r.pool.Query(ctx, listFilesSQL, folderID.UUID)
	if err != nil {
		return nil, mapErr(err)
	}
	defer rows.Close()
	var files []domain.FolderFile
	for rows.Next() {
		file, err := scanFile(rows)
		if err != nil {
			return nil, err
		}
		files = append(files, *file)
	}
	return files, mapErr(rows.Err())
}

func scanFile(row pgx.Row) (*domain.FolderFile, error) {
	var f domain.FolderFile
	var id, folderID uuid.UUID
	err := row.Scan(&id, &folderID, &f.Name, &f.BlobKey, &f.Size, &f.UploadedBy, &f.UploadedAt)
	if err != nil {
		return nil, mapErr(err)
	}
	f.ID = domain.NewFileID(id)
	f.FolderID = domain.NewFolderID(folderID)
	return &f, nil
}

var _ ports.FolderRepository = (*FolderRepository)(nil)
