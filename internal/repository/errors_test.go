package repository

import (
	"testing"

	"github.com/cockroachdb/errors"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"

	"github.com/krishna9325/Car-Rental/internal/domain"
)

func TestMapError(t *testing.T) {
	testCases := []struct {
		name     string
		err      error
		sentinel error
	}{
		{name: "no rows", err: pgx.ErrNoRows, sentinel: domain.ErrNotFound},
		{name: "unique violation", err: &pgconn.PgError{Code: pgUniqueViolation}, sentinel: domain.ErrConflict},
		{name: "foreign key violation", err: &pgconn.PgError{Code: pgForeignKeyViolation}, sentinel: domain.ErrConflict},
		{name: "check violation", err: &pgconn.PgError{Code: pgCheckViolation}, sentinel: domain.ErrInvalidInput},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			err := mapError(tc.err, "car %d", 7)
			assert.True(t, errors.Is(err, tc.sentinel))
			assert.True(t, errors.Is(err, tc.err))
			assert.Contains(t, err.Error(), "car 7")
		})
	}
}

func TestMapError_PassThrough(t *testing.T) {
	assert.NoError(t, mapError(nil, "anything"))

	err := mapError(errors.New("connection refused"), "list cars")
	assert.False(t, errors.Is(err, domain.ErrNotFound))
	assert.Contains(t, err.Error(), "list cars: connection refused")
}
