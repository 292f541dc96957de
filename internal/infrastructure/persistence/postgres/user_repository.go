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
	createUserSQL = `INSERT INTO users (id, email, password_hash, role, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6)`
	getUserByEmailSQL = `SELECT id, email, password_hash, role, created_at, updated_at
		FROM users WHERE email = $1`
	getUserByIDSQL = `SELECT id, email, password_hash, role, created_at, updated_at
		FROM users WHERE id = $1`
	updateUserPasswordSQL = `UPDATE users SET password_hash = $2, updated_at = NOW() WHERE id = $1`
)

// UserRepository persists accounts in the users table.
type UserRepository struct {
	pool *pgxpool.Pool
}

// NewUserRepository builds the repository over a pgx pool.
func NewUserRepository(pool *pgxpool.Pool) *UserRepository {
	return &UserRepository{pool: pool}
}

func (r *UserRepository) Create(ctx context.Context, user *domain.User) error {
	_, err := r.pool.Exec(ctx, createUserSQL,
		user.ID.UUID, user.Email, user.PasswordHash, string(user.Role),
		user.CreatedAt, user.UpdatedAt)
	return mapErr(err)
}

func (r *UserRepository) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	return scanUser(r.pool.QueryRow(ctx, getUserByEmailSQL, email))
}

func (r *UserRepository) GetByID(ctx context.Context, userID domain.UserID) (*domain.User, error) {
	return scanUser(r.pool.QueryRow(ctx, getUserByIDSQL, userID.UUID))
}

func (r *UserRepository) UpdatePassword(ctx context.Context, userID domain.UserID, passwordHash string) error {
	tag, err := r.pool.Exec(ctx, updateUserPasswordSQL, userID.UUID, passwordHash)
	if err != nil {
		return mapErr(err)
	}
	if tag.RowsAffected() == 0 {
		return domerrors.ErrNotFound
	}
	return nil
}

func scanUser(row pgx.Row) (*domain.User, error) {
	var (
		u    domain.User
		id   uuid.UUID
		role string
	)
	err := row.Scan(&id, &u.Email, &u.PasswordHash, &role, &u.CreatedAt, &u.UpdatedAt)
	if err != nil {
		return nil, mapErr(err)
	}
	u.ID = domain.NewUserID(id)
	u.Role = domain.Role(role)
	return &u, nil
}

var _ ports.UserRepository = (*UserRepository)(nil)
