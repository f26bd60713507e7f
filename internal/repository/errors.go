package repository

import (
	"github.com/cockroachdb/errors"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/krishna9325/Car-Rental/internal/domain"
)

const (
	pgUniqueViolation     = "23505"
	pgForeignKeyViolation = "23503"
	pgCheckViolation      = "23514"
)

// mapError translates driver errors into domain sentinels, keeping the original
// error in the chain.
func mapError(err error, format string, args ...interface{}) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, pgx.ErrNoRows) {
		return errors.Mark(errors.Wrapf(err, format, args...), domain.ErrNotFound)
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case pgUniqueViolation:
			return errors.Mark(errors.Wrapf(err, format, args...), domain.ErrConflict)
		case pgForeignKeyViolation:
			return errors.Mark(errors.Wrapf(err, format, args...), domain.ErrConflict)
		case pgCheckViolation:
			return errors.Mark(errors.Wrapf(err, format, args...), domain.ErrInvalidInput)
		}
	}
	return errors.Wrapf(err, format, args...)
}
