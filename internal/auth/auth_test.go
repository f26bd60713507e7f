package auth

import (
	"testing"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/krishna9325/Car-Rental/internal/clock"
	"github.com/krishna9325/Car-Rental/internal/domain"
)

func TestTokenService_RoundTrip(t *testing.T) {
	clk := clock.NewMockClock(time.Now())
	svc := NewTokenService("secret", time.Hour, clk)

	token, err := svc.GenerateToken(&domain.User{ID: 42, Username: "asha", Role: domain.RoleAdmin})
	require.NoError(t, err)

	claims, err := svc.ValidateToken(token)
	require.NoError(t, err)
	assert.Equal(t, int64(42), claims.UserID)
	assert.Equal(t, "asha", claims.Username)
	assert.Equal(t, "ADMIN", claims.Role)
}

func TestTokenService_Expired(t *testing.T) {
	clk := clock.NewMockClock(time.Now())
	svc := NewTokenService("secret", time.Minute, clk)

	token, err := svc.GenerateToken(&domain.User{ID: 1, Username: "ravi", Role: domain.RoleUser})
	require.NoError(t, err)

	clk.Add(2 * time.Minute)

	_, err = svc.ValidateToken(token)
	assert.ErrorIs(t, err, ErrExpiredToken)
	assert.True(t, errors.Is(err, domain.ErrUnauthorized))
}

func TestTokenService_WrongSecret(t *testing.T) {
	clk := clock.NewMockClock(time.Now())
	token, err := NewTokenService("one", time.Hour, clk).GenerateToken(&domain.User{ID: 1, Username: "ravi", Role: domain.RoleUser})
	require.NoError(t, err)

	_, err = NewTokenService("two", time.Hour, clk).ValidateToken(token)
	assert.ErrorIs(t, err, ErrInvalidToken)

	_, err = NewTokenService("one", time.Hour, clk).ValidateToken("not-a-token")
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestPassword(t *testing.T) {
	hash, err := HashPassword("hunter22")
	require.NoError(t, err)
	assert.NotEqual(t, "hunter22", hash)

	assert.NoError(t, ComparePassword(hash, "hunter22"))
	assert.ErrorIs(t, ComparePassword(hash, "wrong"), ErrPasswordMismatch)
	assert.ErrorIs(t, ComparePassword("", "hunter22"), ErrPasswordMismatch)

	_, err = HashPassword("")
	assert.True(t, errors.Is(err, domain.ErrInvalidInput))
}
