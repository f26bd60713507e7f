package main

import (
	"path/filepath"
	"testing"

	"github.com/cockroachdb/errors"
	"github.com/stretchr/testify/assert"

	"github.com/krishna9325/Car-Rental/internal/domain"
)

func TestRun_ReturnsErrors(t *testing.T) {
	t.Setenv("CARRENTAL_SESSION_FILE", filepath.Join(t.TempDir(), "session.json"))
	t.Setenv("CARRENTAL_API_URL", "http://127.0.0.1:1")

	err := run("teleport", nil)
	assert.ErrorContains(t, err, `unknown command "teleport"`)

	err = run("bookings", nil)
	assert.True(t, errors.Is(err, domain.ErrUnauthorized))
}
