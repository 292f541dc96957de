package postgres

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	domerrors "github.com/trackroom/trackroom/internal/domain/errors"
)

// mapErr translates pgx failures into the domain sentinels the application
// layer branches on. Anything transport-shaped becomes ErrStoreUnavailable
// so authorization fails closed instead of denying.
func mapErr(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, pgx.ErrNoRows) {
		return domerrors.ErrNotFound
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case "23505": // unique_violation
			return domerrors.ErrConflict
		case "40001": // serialization_failure
			return domerrors.ErrConflict
		}
	}
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return domerrors.ErrStoreUnavailable
	}
	var connErr *pgconn.ConnectError
	if errors.As(err, &connErr) {
		return domerrors.ErrStoreUnavailable
	}
	return err
}
